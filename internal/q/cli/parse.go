package cli

import (
	"errors"
	"io"
	"strings"
)

var errHelpPrinted = errors.New("help printed")

// parseArgv walks argv, descending into subcommands until the first token that isn't one, and sets flags as they appear. Flags may be interspersed with
// positional args; "--" ends both. -h/--help prints help for the command selected so far and returns errHelpPrinted.
func parseArgv(root *Command, argv []string, out io.Writer) (*Command, []string, error) {
	selected := root
	selecting := true
	var positional []string

	for i := 0; i < len(argv); i++ {
		token := argv[i]
		switch {
		case token == "--":
			return selected, append(positional, argv[i+1:]...), nil
		case token == "-h" || token == "--help":
			writeHelp(out, selected)
			return selected, nil, errHelpPrinted
		case isFlagToken(token):
			var next *string
			if i+1 < len(argv) {
				next = &argv[i+1]
			}
			consumed, err := setFlag(selected.activeFlags(), token, next)
			if err != nil {
				return selected, nil, err
			}
			if consumed {
				i++
			}
		case selecting && selected.child(token) != nil:
			selected = selected.child(token)
		default:
			selecting = false
			positional = append(positional, token)
		}
	}
	return selected, positional, nil
}

// isFlagToken reports whether token is a flag. A lone "-" is a positional arg (conventionally stdin).
func isFlagToken(token string) bool {
	return strings.HasPrefix(token, "-") && token != "-"
}

// setFlag parses one flag token: --name, --name=value, -x, -x=value, or the single-dash long forms -name and -name=value. A flag that needs a value
// and has none inline takes next, and setFlag reports that it was consumed.
func setFlag(active *FlagSet, token string, next *string) (bool, error) {
	var f *flag
	body := strings.TrimPrefix(token, "-")
	long := strings.HasPrefix(body, "-")
	body = strings.TrimPrefix(body, "-")
	name, value, hasValue := strings.Cut(body, "=")

	if !long && len([]rune(name)) == 1 {
		f = active.lookupShort([]rune(name)[0])
	} else {
		f = active.lookup(name)
	}
	if f == nil || name == "" {
		return false, usageErrorf("unknown flag: %s", token)
	}

	consumed := false
	switch {
	case hasValue:
	case f.isBool():
		value = "true"
	case next == nil:
		return false, usageErrorf("flag needs a value: %s", token)
	case *next == "--":
		return false, usageErrorf("flag needs a value before --: %s", token)
	default:
		value, consumed = *next, true
	}

	if err := f.value.Set(value); err != nil {
		return false, usageErrorf("invalid value for %s: %v", f.display(), err)
	}
	f.changed = true
	return consumed, nil
}

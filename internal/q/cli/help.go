package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
)

func writeHelp(w io.Writer, cmd *Command) {
	name := displayName(cmd)
	if cmd.Short != "" {
		fmt.Fprintf(w, "%s - %s\n", name, cmd.Short)
	} else {
		fmt.Fprintln(w, name)
	}
	if cmd.Long != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(cmd.Long, "\n"))
	}

	fmt.Fprintf(w, "\nUsage:\n  %s\n", usageLine(cmd))

	if len(cmd.children) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		children := cmd.Commands()
		slices.SortFunc(children, func(a, b *Command) int { return strings.Compare(a.Name, b.Name) })
		for _, ch := range children {
			label := ch.Name
			if len(ch.Aliases) > 0 {
				label += " (" + strings.Join(ch.Aliases, ", ") + ")"
			}
			fmt.Fprintf(tw, "  %s\t%s\n", label, ch.Short)
		}
		tw.Flush()
	}

	if flags := cmd.activeFlags().flags; len(flags) > 0 {
		fmt.Fprintln(w, "\nFlags:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range flags {
			fmt.Fprintf(tw, "  %s\t%s\n", flagSynopsis(f), strings.TrimSpace(f.usage))
		}
		tw.Flush()
	}

	if cmd.Example != "" {
		fmt.Fprintln(w, "\nExample:")
		for _, line := range strings.Split(strings.TrimRight(cmd.Example, "\n"), "\n") {
			if line == "" {
				fmt.Fprintln(w)
			} else {
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
}

// displayName is the command's full invocation, e.g. "prog doc add".
func displayName(cmd *Command) string {
	var parts []string
	for _, c := range cmd.path() {
		parts = append(parts, c.Name)
	}
	return strings.Join(parts, " ")
}

func usageLine(cmd *Command) string {
	segments := []string{displayName(cmd)}
	if len(cmd.activeFlags().flags) > 0 {
		segments = append(segments, "[flags]")
	}
	switch {
	case len(cmd.children) > 0 && cmd.Run == nil:
		segments = append(segments, "<command>")
	case len(cmd.children) > 0:
		segments = append(segments, "[command]")
	}
	if cmd.Run != nil {
		segments = append(segments, "[args]")
	}
	return strings.Join(segments, " ")
}

// flagSynopsis is e.g. "-c, --cursor <line:col>" or "    --no-color".
func flagSynopsis(f *flag) string {
	s := "    --" + f.name
	if f.shorthand != 0 {
		s = fmt.Sprintf("-%c, --%s", f.shorthand, f.name)
	}
	if !f.isBool() {
		s += " <" + f.value.Type() + ">"
	}
	return s
}

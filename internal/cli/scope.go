package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/codalotl/proofreader/internal/document"
	qcli "github.com/codalotl/proofreader/internal/q/cli"
)

// posValue is a "line:col" flag value. Both numbers are 1-based on the command line; a bare "line" means column 1.
type posValue struct {
	pos document.Pos
}

func (v *posValue) String() string {
	return v.pos.String()
}

func (v *posValue) Type() string {
	return "line:col"
}

func (v *posValue) Set(s string) error {
	p, err := parsePos(s)
	if err != nil {
		return err
	}
	v.pos = p
	return nil
}

func parsePos(s string) (document.Pos, error) {
	lineStr, colStr, hasCol := strings.Cut(strings.TrimSpace(s), ":")
	line, err := strconv.Atoi(lineStr)
	if err != nil || line < 1 {
		return document.Pos{}, fmt.Errorf("invalid position %q: line must be a positive integer", s)
	}
	col := 1
	if hasCol {
		col, err = strconv.Atoi(colStr)
		if err != nil || col < 1 {
			return document.Pos{}, fmt.Errorf("invalid position %q: column must be a positive integer", s)
		}
	}
	return document.Pos{Line: line - 1, Col: col - 1}, nil
}

// scopeFlags selects part of a document. At most one of --line, --paragraph, or --from/--to may be given; with none, the scope is the body (everything after
// the frontmatter).
type scopeFlags struct {
	flags     *qcli.FlagSet
	line      *int
	paragraph *int
	from      posValue
	to        posValue
}

func addScopeFlags(fs *qcli.FlagSet) *scopeFlags {
	sf := &scopeFlags{flags: fs}
	sf.line = fs.Int("line", 'l', 0, "Only the given line (1-based).")
	sf.paragraph = fs.Int("paragraph", 'p', 0, "Only the paragraph containing the given line (1-based).")
	fs.Var(&sf.from, "from", 0, "Start of a selection (inclusive). Requires --to.")
	fs.Var(&sf.to, "to", 0, "End of a selection (exclusive).")
	return sf
}

var errScopeFlags = errors.New("use only one of --line, --paragraph, or --from/--to")

func (sf *scopeFlags) resolve(doc *document.Document) (document.Scope, error) {
	hasLine := sf.flags.Changed("line")
	hasParagraph := sf.flags.Changed("paragraph")
	hasSelection := sf.flags.Changed("from") || sf.flags.Changed("to")

	n := 0
	for _, b := range []bool{hasLine, hasParagraph, hasSelection} {
		if b {
			n++
		}
	}
	if n > 1 {
		return document.Scope{}, qcli.UsageError{Message: errScopeFlags.Error()}
	}

	switch {
	case hasLine:
		if *sf.line < 1 {
			return document.Scope{}, qcli.UsageError{Message: "--line must be >= 1"}
		}
		return doc.Line(*sf.line - 1)
	case hasParagraph:
		if *sf.paragraph < 1 {
			return document.Scope{}, qcli.UsageError{Message: "--paragraph must be >= 1"}
		}
		return doc.Paragraph(*sf.paragraph - 1)
	case hasSelection:
		if !sf.flags.Changed("from") || !sf.flags.Changed("to") {
			return document.Scope{}, qcli.UsageError{Message: "--from and --to must be given together"}
		}
		return doc.Selection(sf.from.pos, sf.to.pos)
	default:
		return doc.Body(), nil
	}
}

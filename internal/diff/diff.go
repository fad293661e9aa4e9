package diff

import "strings"

// Op is an operation from old text to new text.
type Op int

// Operations from old text to new text.
const (
	OpEqual Op = iota
	OpInsert
	OpDelete
)

// String returns the string representation of the Op.
func (o Op) String() string {
	switch o {
	case OpEqual:
		return "Equal"
	case OpInsert:
		return "Insert"
	case OpDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Edit is one run of a diff. Text is a word-granularity token or a run of tokens.
type Edit struct {
	Op   Op
	Text string
}

// OldText returns the old side of edits (OpEqual and OpDelete text, in order).
func OldText(edits []Edit) string {
	var b strings.Builder
	for _, e := range edits {
		if e.Op != OpInsert {
			b.WriteString(e.Text)
		}
	}
	return b.String()
}

// NewText returns the new side of edits (OpEqual and OpInsert text, in order).
func NewText(edits []Edit) string {
	var b strings.Builder
	for _, e := range edits {
		if e.Op != OpDelete {
			b.WriteString(e.Text)
		}
	}
	return b.String()
}

// HasChanges reports whether any edit is an insert or a delete.
func HasChanges(edits []Edit) bool {
	for _, e := range edits {
		if e.Op != OpEqual {
			return true
		}
	}
	return false
}

// Coalesce merges adjacent edits with the same Op and drops edits with empty Text. The input is not modified.
func Coalesce(edits []Edit) []Edit {
	out := make([]Edit, 0, len(edits))
	for _, e := range edits {
		if e.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Op == e.Op {
			out[n-1].Text += e.Text
			continue
		}
		out = append(out, e)
	}
	return out
}

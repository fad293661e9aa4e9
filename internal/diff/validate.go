package diff

import "fmt"

// Validate checks that edits reconstruct oldText and newText and that no edit is empty. It returns an error on the first violation.
func Validate(oldText, newText string, edits []Edit) error {
	for i, e := range edits {
		if e.Text == "" {
			return fmt.Errorf("edit[%d]: empty text", i)
		}
		switch e.Op {
		case OpEqual, OpInsert, OpDelete:
		default:
			return fmt.Errorf("edit[%d]: unknown op %d", i, int(e.Op))
		}
	}
	if got := OldText(edits); got != oldText {
		return fmt.Errorf("diff: edits do not reconstruct old text")
	}
	if got := NewText(edits); got != newText {
		return fmt.Errorf("diff: edits do not reconstruct new text")
	}
	return nil
}

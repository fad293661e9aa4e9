// Package diff computes word-granularity diffs between an "old" and a "new" string and renders them for terminals.
//
// Representation: DiffWords returns an ordered slice of Edits. Each Edit has an Op:
//   - OpEqual: text present on both sides
//   - OpInsert: text present only in the new side
//   - OpDelete: text present only in the old side
//
// Invariants:
//   - concat(Text of OpEqual and OpDelete edits) == old text
//   - concat(Text of OpEqual and OpInsert edits) == new text
//   - no Edit has empty Text
//
// Granularity: tokens are Unicode words (UAX #29 word boundaries), so whitespace and punctuation are their own tokens. A changed word is reported as a whole-word
// Delete followed by a whole-word Insert; consumers that want sub-word precision post-process the edits themselves.
//
// Getting a diff:
//
//	edits := diff.DiffWords(oldText, newText)
//	fmt.Println(diff.RenderPretty(edits))
package diff

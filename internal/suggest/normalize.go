package suggest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codalotl/proofreader/internal/diff"
)

// DefaultTruncationNote is the callout spliced into a truncated revision, on its own paragraph, right before the text the model never reached.
const DefaultTruncationNote = "\n\n> [!INFO] Text below was not proofread: the revision reached the model's output length limit.\n\n"

// NormalizeOptions controls Normalize.
type NormalizeOptions struct {
	// Truncated means the revision stopped early (the model hit its output limit). The original text past the cut-off is kept and TruncationNote is inserted before it.
	Truncated bool

	// TruncationNote is the callout used when Truncated is set. If empty, DefaultTruncationNote is used.
	TruncationNote string

	// PreserveStraightQuotes drops straight-to-curly quote substitutions, so `"` replaced with `“` is left as `"`.
	PreserveStraightQuotes bool
}

// Normalize cleans up a word diff (as returned by diff.DiffWords) before it is encoded:
//   - if opts.Truncated, a removal that ends the edits is turned back into unchanged text and the truncation note is inserted right before it (otherwise the note
//     is appended).
//   - a replacement that only adds or drops one rune at either end (ex: "cats" -> "cat") becomes the shared text plus a one-rune change.
//   - if opts.PreserveStraightQuotes, straight quotes replaced with curly quotes are kept straight.
//   - changed runs are shifted so that, where possible without changing either side of the diff, they don't begin with whitespace.
//
// The result is coalesced: no empty edits, no adjacent edits with the same Op, and each run of changes is at most one OpDelete followed by one OpInsert. Except for
// the truncation note, diff.OldText and diff.NewText of the result are the same as those of edits.
func Normalize(edits []diff.Edit, opts NormalizeOptions) []diff.Edit {
	out := canonicalize(edits)
	if opts.Truncated {
		note := opts.TruncationNote
		if note == "" {
			note = DefaultTruncationNote
		}
		out = canonicalize(keepTruncatedTail(out, note))
	}
	out = canonicalize(mapPairs(out, splitOneRuneAffix))
	if opts.PreserveStraightQuotes {
		out = canonicalize(mapPairs(out, keepStraightQuotes))
	}
	out = canonicalize(mapPairs(out, hoistSharedSpace))
	out = canonicalize(shiftLeadingSpace(out))
	return out
}

// canonicalize drops empty edits, merges adjacent equal runs, and rewrites every maximal run of changes as one OpDelete followed by one OpInsert (either may be
// absent). Both projections are unchanged.
func canonicalize(edits []diff.Edit) []diff.Edit {
	var out []diff.Edit
	var del, ins strings.Builder
	flush := func() {
		if del.Len() > 0 {
			out = append(out, diff.Edit{Op: diff.OpDelete, Text: del.String()})
			del.Reset()
		}
		if ins.Len() > 0 {
			out = append(out, diff.Edit{Op: diff.OpInsert, Text: ins.String()})
			ins.Reset()
		}
	}
	for _, e := range edits {
		switch e.Op {
		case diff.OpDelete:
			del.WriteString(e.Text)
		case diff.OpInsert:
			ins.WriteString(e.Text)
		default:
			flush()
			if e.Text == "" {
				continue
			}
			if n := len(out); n > 0 && out[n-1].Op == diff.OpEqual {
				out[n-1].Text += e.Text
			} else {
				out = append(out, e)
			}
		}
	}
	flush()
	return out
}

// keepTruncatedTail inserts note before the deletion in the trailing run of changes and turns everything from there on into the original text: deletions become
// equal text and insertions (the model's partial output) are dropped. If the edits end with equal text, or the trailing changes delete nothing, note is appended
// and every change is kept.
func keepTruncatedTail(edits []diff.Edit, note string) []diff.Edit {
	last := len(edits)
	for i := len(edits) - 1; i >= 0 && edits[i].Op != diff.OpEqual; i-- {
		if edits[i].Op == diff.OpDelete {
			last = i
			break
		}
	}

	out := append([]diff.Edit(nil), edits[:last]...)
	out = append(out, equal(note))
	for _, e := range edits[last:] {
		if e.Op != diff.OpInsert {
			out = append(out, equal(e.Text))
		}
	}
	return out
}

// pairFunc rewrites a run of changes. del or ins may be empty (but not both). It returns replacement edits with the same projections.
type pairFunc func(del, ins string) []diff.Edit

// mapPairs calls f on every run of changes of a canonical edit list.
func mapPairs(edits []diff.Edit, f pairFunc) []diff.Edit {
	var out []diff.Edit
	for i := 0; i < len(edits); i++ {
		e := edits[i]
		switch e.Op {
		case diff.OpEqual:
			out = append(out, e)
		case diff.OpDelete:
			ins := ""
			if i+1 < len(edits) && edits[i+1].Op == diff.OpInsert {
				ins = edits[i+1].Text
				i++
			}
			out = append(out, f(e.Text, ins)...)
		case diff.OpInsert:
			out = append(out, f("", e.Text)...)
		}
	}
	return out
}

func change(del, ins string) []diff.Edit {
	var out []diff.Edit
	if del != "" {
		out = append(out, diff.Edit{Op: diff.OpDelete, Text: del})
	}
	if ins != "" {
		out = append(out, diff.Edit{Op: diff.OpInsert, Text: ins})
	}
	return out
}

func equal(s string) diff.Edit {
	return diff.Edit{Op: diff.OpEqual, Text: s}
}

// splitOneRuneAffix turns ("cats", "cat") into [=cat, -s], and ("cat", "scat") into [+s, =cat]. The suffix form is tried first.
func splitOneRuneAffix(del, ins string) []diff.Edit {
	if del == "" || ins == "" {
		return change(del, ins)
	}
	if del == ins {
		return []diff.Edit{equal(del)}
	}

	long, short, op := del, ins, diff.OpDelete
	if len(ins) > len(del) {
		long, short, op = ins, del, diff.OpInsert
	}

	if strings.HasPrefix(long, short) && utf8.RuneCountInString(long[len(short):]) == 1 {
		return []diff.Edit{equal(short), {Op: op, Text: long[len(short):]}}
	}
	if strings.HasSuffix(long, short) && utf8.RuneCountInString(long[:len(long)-len(short)]) == 1 {
		return []diff.Edit{{Op: op, Text: long[:len(long)-len(short)]}, equal(short)}
	}
	return change(del, ins)
}

// curlyOf maps a straight quote to its curly forms.
var curlyOf = map[rune][]rune{
	'"':  {'“', '”'},
	'\'': {'‘', '’'},
}

func isCurlyOf(straight, r rune) bool {
	for _, c := range curlyOf[straight] {
		if c == r {
			return true
		}
	}
	return false
}

// keepStraightQuotes undoes straight-to-curly substitutions at the start and end of a replacement, leaving the straight quote as equal text.
func keepStraightQuotes(del, ins string) []diff.Edit {
	if del == "" || ins == "" {
		return change(del, ins)
	}
	if del == ins {
		return []diff.Edit{equal(del)}
	}

	var head, tail []diff.Edit

	d, dSize := utf8.DecodeRuneInString(del)
	c, cSize := utf8.DecodeRuneInString(ins)
	if isCurlyOf(d, c) {
		head = append(head, equal(del[:dSize]))
		del, ins = del[dSize:], ins[cSize:]
	}

	if del != "" && ins != "" {
		d, dSize = utf8.DecodeLastRuneInString(del)
		c, cSize = utf8.DecodeLastRuneInString(ins)
		if isCurlyOf(d, c) {
			tail = append(tail, equal(del[len(del)-dSize:]))
			del, ins = del[:len(del)-dSize], ins[:len(ins)-cSize]
		}
	}

	if len(head) == 0 && len(tail) == 0 {
		return change(del, ins)
	}

	var mid []diff.Edit
	if del == ins {
		if del != "" {
			mid = []diff.Edit{equal(del)}
		}
	} else {
		mid = change(del, ins)
	}
	out := append(head, mid...)
	return append(out, tail...)
}

// hoistSharedSpace moves whitespace that starts (or ends) both sides of a replacement out of the replacement.
func hoistSharedSpace(del, ins string) []diff.Edit {
	if del == "" || ins == "" {
		return change(del, ins)
	}

	lead := 0
	for lead < len(del) && lead < len(ins) {
		r, size := utf8.DecodeRuneInString(del[lead:])
		if !unicode.IsSpace(r) || !strings.HasPrefix(ins[lead:], del[lead:lead+size]) {
			break
		}
		lead += size
	}

	trail := 0
	for trail < len(del)-lead && trail < len(ins)-lead {
		r, size := utf8.DecodeLastRuneInString(del[:len(del)-trail])
		if !unicode.IsSpace(r) || len(ins)-trail-size < lead || !strings.HasSuffix(ins[:len(ins)-trail], del[len(del)-trail-size:len(del)-trail]) {
			break
		}
		trail += size
	}

	var out []diff.Edit
	if lead > 0 {
		out = append(out, equal(del[:lead]))
	}
	out = append(out, change(del[lead:len(del)-trail], ins[lead:len(ins)-trail])...)
	if trail > 0 {
		out = append(out, equal(del[len(del)-trail:]))
	}
	return out
}

// shiftLeadingSpace moves a lone insertion or deletion that begins with whitespace rightward while the following equal run begins with the same rune. Sliding
// a change along a repeated rune doesn't change either projection: "a" [+" b"] " c" is the same diff as "a " [+"b "] "c".
func shiftLeadingSpace(edits []diff.Edit) []diff.Edit {
	// Leading empty equal run so every change has a left neighbor. canonicalize drops it.
	out := append([]diff.Edit{equal("")}, edits...)
	for i := 1; i+1 < len(out); i++ {
		if out[i].Op == diff.OpEqual || out[i-1].Op != diff.OpEqual || out[i+1].Op != diff.OpEqual {
			continue
		}
		for range len(out[i].Text) {
			r, size := utf8.DecodeRuneInString(out[i].Text)
			w := out[i].Text[:size]
			if !unicode.IsSpace(r) || !strings.HasPrefix(out[i+1].Text, w) {
				break
			}
			out[i-1].Text += w
			out[i].Text = out[i].Text[size:] + w
			out[i+1].Text = out[i+1].Text[size:]
		}
	}
	return out
}

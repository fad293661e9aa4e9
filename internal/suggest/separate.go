package suggest

import (
	"strings"
	"unicode/utf8"

	"github.com/codalotl/proofreader/internal/diff"
)

// separateMarkers widens changes whose markers Scan would otherwise misread. Scan matches the leftmost marker token, so a change must not follow text ending in a
// byte of an opening marker ("a=" + "==b==" reads as "a" + "===b=="), and its removed or added text must not end in a byte of its own closing marker ("~~a~~~" closes
// one byte early). The offending rune of the neighboring equal text is moved into both sides of the change, which keeps both projections.
//
// A change at the very end of the text can't be widened to the right. Verify reports those.
func separateMarkers(edits []diff.Edit, m Markers) []diff.Edit {
	out := canonicalize(edits)
	for {
		next, widened := widenOnce(out, m)
		if !widened {
			return out
		}
		out = canonicalize(next)
	}
}

// widenOnce widens the first change of a canonical edit list that needs it.
func widenOnce(edits []diff.Edit, m Markers) ([]diff.Edit, bool) {
	opens := m.AddOpen + m.DelOpen
	for i := 0; i < len(edits); i++ {
		if edits[i].Op == diff.OpEqual {
			continue
		}
		j := i + 1
		if j < len(edits) && edits[j].Op != diff.OpEqual {
			j++
		}
		var del, ins string
		for _, e := range edits[i:j] {
			if e.Op == diff.OpDelete {
				del = e.Text
			} else {
				ins = e.Text
			}
		}

		if i > 0 && endsWithByteOf(edits[i-1].Text, opens) {
			before := edits[i-1].Text
			_, size := utf8.DecodeLastRuneInString(before)
			r := before[len(before)-size:]

			out := append([]diff.Edit(nil), edits[:i-1]...)
			out = append(out, equal(before[:len(before)-size]))
			out = append(out, change(r+del, r+ins)...)
			return append(out, edits[j:]...), true
		}

		if j < len(edits) && (endsWithByteOf(del, m.DelClose) || endsWithByteOf(ins, m.AddClose)) {
			after := edits[j].Text
			_, size := utf8.DecodeRuneInString(after)
			r := after[:size]

			out := append([]diff.Edit(nil), edits[:i]...)
			out = append(out, change(del+r, ins+r)...)
			out = append(out, equal(after[size:]))
			return append(out, edits[j+1:]...), true
		}

		i = j - 1
	}
	return edits, false
}

func endsWithByteOf(s, set string) bool {
	return s != "" && strings.IndexByte(set, s[len(s)-1]) >= 0
}

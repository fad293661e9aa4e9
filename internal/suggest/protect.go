package suggest

import (
	"strings"

	"github.com/codalotl/proofreader/internal/diff"
)

// span is a protected byte range [start, end] of the original text. Both ends are inclusive for insertion points.
type span struct {
	start, end int
}

func (s span) containsRange(start, end int) bool {
	return start >= s.start && end <= s.end
}

func (s span) containsPoint(p int) bool {
	return p >= s.start && p <= s.end
}

// quotedSpans returns the inner ranges of double-quoted text in s. Straight quotes pair up in order; curly quotes pair “ with the next ”. Pairing restarts at
// every blank line so one stray quote can't protect the rest of the document.
func quotedSpans(s string) []span {
	var spans []span
	offset := 0
	for _, para := range strings.SplitAfter(s, "\n\n") {
		straight, curly := -1, -1
		for i, r := range para {
			switch r {
			case '"':
				if straight < 0 {
					straight = i + 1
				} else {
					spans = append(spans, span{offset + straight, offset + i})
					straight = -1
				}
			case '“':
				curly = i + len("“")
			case '”':
				if curly >= 0 {
					spans = append(spans, span{offset + curly, offset + i})
					curly = -1
				}
			}
		}
		offset += len(para)
	}
	return spans
}

// blockquoteSpans returns the ranges of lines that start with '>' (after up to three spaces), excluding the newline.
func blockquoteSpans(s string) []span {
	var spans []span
	offset := 0
	for _, line := range strings.SplitAfter(s, "\n") {
		content := strings.TrimSuffix(line, "\n")
		trimmed := strings.TrimLeft(content, " ")
		if len(content)-len(trimmed) <= 3 && strings.HasPrefix(trimmed, ">") {
			spans = append(spans, span{offset, offset + len(content)})
		}
		offset += len(line)
	}
	return spans
}

// protect reverts deletions lying fully inside a span to equal text and drops insertions whose insertion point (in original-text offsets) is inside a span.
func protect(edits []diff.Edit, spans []span) []diff.Edit {
	if len(spans) == 0 {
		return edits
	}
	inside := func(start, end int) bool {
		for _, s := range spans {
			if start == end && s.containsPoint(start) || start < end && s.containsRange(start, end) {
				return true
			}
		}
		return false
	}

	var out []diff.Edit
	pos := 0 // offset in the original text
	for _, e := range edits {
		switch e.Op {
		case diff.OpEqual:
			out = append(out, e)
			pos += len(e.Text)
		case diff.OpDelete:
			if inside(pos, pos+len(e.Text)) {
				out = append(out, diff.Edit{Op: diff.OpEqual, Text: e.Text})
			} else {
				out = append(out, e)
			}
			pos += len(e.Text)
		case diff.OpInsert:
			if !inside(pos, pos) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Package uni measures and cuts text by its display width in monospace terminals.
package uni

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended by Truncate when text is cut.
const Ellipsis = "…"

// Options control width calculation.
//
// Currently only relevant for East Asian code points and their locale.
type Options struct {
	EastAsianWidth   bool // if true, treats certain East Asian code points as 2 wide (e.g., Chinese, Japanese, Korean). Use if the locale is one of CJK.
	TreatEmojiAsWide bool // Only considered if EastAsianWidth. If true, treats emoji as wide (2 columns).
}

// TextWidth returns the text width of str for monospace fonts in terminals. If opts is nil, locale is assumed to be non-East Asian.
func TextWidth[T string | []byte](str T, opts *Options) int {
	return conditionFromOptions(opts).StringWidth(string(str))
}

// Truncate returns the longest prefix of str, cut at a grapheme boundary, that fits in width columns. If str is cut, the prefix ends with Ellipsis and the whole
// result still fits in width. A width below 1 returns "".
func Truncate(str string, width int, opts *Options) string {
	if width < 1 {
		return ""
	}
	cond := conditionFromOptions(opts)
	if cond.StringWidth(str) <= width {
		return str
	}

	budget := width - cond.StringWidth(Ellipsis)
	used := 0
	end := 0
	iter := graphemes.FromString(str)
	for iter.Next() {
		w := cond.StringWidth(iter.Value())
		if used+w > budget {
			break
		}
		used += w
		end = iter.End()
	}
	return str[:end] + Ellipsis
}

// Snippet flattens str onto one line (each run of whitespace, newlines included, becomes one space) and truncates it to width columns.
func Snippet(str string, width int, opts *Options) string {
	return Truncate(strings.Join(strings.Fields(str), " "), width, opts)
}

func conditionFromOptions(opts *Options) *runewidth.Condition {
	cond := runewidth.NewCondition()
	cond.EastAsianWidth = false
	cond.StrictEmojiNeutral = true

	if opts == nil {
		return cond
	}

	cond.EastAsianWidth = opts.EastAsianWidth
	if opts.EastAsianWidth && opts.TreatEmojiAsWide {
		cond.StrictEmojiNeutral = false
	}

	return cond
}

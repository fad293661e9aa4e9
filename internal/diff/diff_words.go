package diff

import (
	"fmt"

	"github.com/clipperhouse/uax29/v2/words"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffWords diffs oldText to newText at word granularity.
//
// Each distinct token is mapped to a single rune, the rune strings are diffed with diffmatchpatch, and the result is decoded back to token text. Semantic cleanup
// is applied so that short equal runs sandwiched between changes are folded into the changes (ex: "the quick" -> "a fast" is one replacement, not two).
func DiffWords(oldText, newText string) []Edit {
	if oldText == newText {
		if oldText == "" {
			return nil
		}
		return []Edit{{Op: OpEqual, Text: oldText}}
	}

	enc := newTokenEncoder()
	rOld := enc.encode(oldText)
	rNew := enc.encode(newText)

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMainRunes(rOld, rNew, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	diffs = dmp.DiffCleanupMerge(diffs)

	edits := make([]Edit, 0, len(diffs))
	for _, d := range diffs {
		text := enc.decode(d.Text)
		if text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			edits = append(edits, Edit{Op: OpEqual, Text: text})
		case diffmatchpatch.DiffDelete:
			edits = append(edits, Edit{Op: OpDelete, Text: text})
		case diffmatchpatch.DiffInsert:
			edits = append(edits, Edit{Op: OpInsert, Text: text})
		}
	}
	edits = Coalesce(edits)

	if err := Validate(oldText, newText, edits); err != nil {
		panic(fmt.Errorf("DiffWords: validate failed with %v", err))
	}

	return edits
}

// surrogateStart and surrogateEnd bound the UTF-16 surrogate range. Runes in it do not survive a round trip through a Go string, so token ids skip it.
const (
	surrogateStart = 0xD800
	surrogateEnd   = 0xDFFF
)

// tokenEncoder assigns each distinct word token a rune. The same encoder must be used for both sides of a diff.
type tokenEncoder struct {
	ids    map[string]rune
	tokens []string // tokens[i] is the token for the i'th assigned id
}

func newTokenEncoder() *tokenEncoder {
	return &tokenEncoder{ids: map[string]rune{}}
}

func (e *tokenEncoder) encode(text string) []rune {
	var out []rune
	iter := words.FromString(text)
	for iter.Next() {
		tok := iter.Value()
		id, ok := e.ids[tok]
		if !ok {
			id = indexToRune(len(e.tokens))
			e.ids[tok] = id
			e.tokens = append(e.tokens, tok)
		}
		out = append(out, id)
	}
	return out
}

func (e *tokenEncoder) decode(s string) string {
	var n int
	for _, r := range s {
		if idx := runeToIndex(r); idx >= 0 && idx < len(e.tokens) {
			n += len(e.tokens[idx])
		}
	}
	buf := make([]byte, 0, n)
	for _, r := range s {
		if idx := runeToIndex(r); idx >= 0 && idx < len(e.tokens) {
			buf = append(buf, e.tokens[idx]...)
		}
	}
	return string(buf)
}

func indexToRune(i int) rune {
	r := rune(i + 1)
	if r >= surrogateStart {
		r += surrogateEnd - surrogateStart + 1
	}
	return r
}

func runeToIndex(r rune) int {
	if r > surrogateEnd {
		r -= surrogateEnd - surrogateStart + 1
	}
	return int(r) - 1
}

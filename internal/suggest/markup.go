package suggest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/codalotl/proofreader/internal/diff"
)

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// Markers are the tokens written around changes. The zero value means DefaultMarkers.
	Markers Markers

	// PreserveQuotes keeps text inside double quotes ("..." or “...”) of the original unchanged: deletions there revert to equal text and insertions there are
	// dropped. It is a heuristic meant for quoted speech and citations; unbalanced quotes may protect too much or too little.
	PreserveQuotes bool

	// PreserveBlockquotes does the same for original lines that start with '>' (blockquotes and callouts).
	PreserveBlockquotes bool
}

func (o EncodeOptions) markers() Markers {
	if o.Markers == (Markers{}) {
		return DefaultMarkers()
	}
	return o.Markers
}

// ErrLossyEncoding means annotated text doesn't decode back to the edits it was encoded from.
var ErrLossyEncoding = errors.New("suggest: markup does not decode to the encoded edits")

// Encode writes edits as annotated text: equal text verbatim, insertions as additions, and deletions as removals. In a replacement the removal comes first. edits
// is normally the output of Normalize.
//
// Rejecting every region of the result gives diff.OldText(edits) and accepting every region gives diff.NewText(edits), except for changes reverted by the Preserve
// options. A change next to marker characters is widened to take in the neighboring rune (see Prepare).
func Encode(edits []diff.Edit, opts EncodeOptions) string {
	m := opts.markers()

	var b strings.Builder
	for _, e := range Prepare(edits, opts) {
		switch e.Op {
		case diff.OpEqual:
			b.WriteString(e.Text)
		case diff.OpInsert:
			b.WriteString(m.Wrap(Addition, e.Text))
		case diff.OpDelete:
			b.WriteString(m.Wrap(Removal, e.Text))
		}
	}
	return b.String()
}

// Prepare returns the edits Encode writes: edits coalesced, with the Preserve options applied, and with changes widened wherever a neighboring byte would be
// scanned as part of a marker. Its projections are what Encode's output decodes to.
func Prepare(edits []diff.Edit, opts EncodeOptions) []diff.Edit {
	if opts.PreserveQuotes || opts.PreserveBlockquotes {
		var spans []span
		old := diff.OldText(edits)
		if opts.PreserveQuotes {
			spans = append(spans, quotedSpans(old)...)
		}
		if opts.PreserveBlockquotes {
			spans = append(spans, blockquoteSpans(old)...)
		}
		edits = canonicalize(protect(edits, spans))
	}
	return separateMarkers(edits, opts.markers())
}

// Verify checks that rejecting every region of annotated gives diff.OldText(edits) and accepting every region gives diff.NewText(edits). A mismatch wraps
// ErrLossyEncoding; malformed markup returns the scan error.
func Verify(annotated string, edits []diff.Edit, m Markers) error {
	for _, policy := range []Policy{Accept, Reject} {
		got, err := Decode(annotated, policy, m)
		if err != nil {
			return err
		}
		want := diff.NewText(edits)
		if policy == Reject {
			want = diff.OldText(edits)
		}
		if got != want {
			return fmt.Errorf("%w: %s gives %q, want %q", ErrLossyEncoding, policy, got, want)
		}
	}
	return nil
}

// Decode resolves every region of annotated text with policy and returns the plain text. Malformed markup returns a *MalformedError.
func Decode(text string, policy Policy, m Markers) (string, error) {
	var b strings.Builder
	prev := 0
	for r, err := range Scan(text, m) {
		if err != nil {
			return "", err
		}
		b.WriteString(text[prev:r.Start])
		b.WriteString(DecodeInner(r.Kind, r.Inner, policy))
		prev = r.End
	}
	b.WriteString(text[prev:])
	return b.String(), nil
}

// DecodeInner returns what the inner text of a region of kind k becomes under policy: accepting keeps additions and drops removals; rejecting does the opposite.
func DecodeInner(k Kind, inner string, policy Policy) string {
	keep := (k == Addition) == (policy == Accept)
	if keep {
		return inner
	}
	return ""
}

// Edits parses annotated text back into edits: plain runs become OpEqual, additions OpInsert, and removals OpDelete.
func Edits(text string, m Markers) ([]diff.Edit, error) {
	var edits []diff.Edit
	prev := 0
	for r, err := range Scan(text, m) {
		if err != nil {
			return nil, err
		}
		edits = append(edits, diff.Edit{Op: diff.OpEqual, Text: text[prev:r.Start]})
		op := diff.OpInsert
		if r.Kind == Removal {
			op = diff.OpDelete
		}
		edits = append(edits, diff.Edit{Op: op, Text: r.Inner})
		prev = r.End
	}
	edits = append(edits, diff.Edit{Op: diff.OpEqual, Text: text[prev:]})
	return diff.Coalesce(edits), nil
}

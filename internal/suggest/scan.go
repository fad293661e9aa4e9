package suggest

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// ErrMalformedMarkup is wrapped by every *MalformedError.
var ErrMalformedMarkup = errors.New("malformed suggestion markup")

// MalformedError describes markup that can't be scanned: an opening marker with no matching close, or a region containing a marker of the other kind.
type MalformedError struct {
	Offset int    // byte offset of the offending opening marker
	Marker string // the opening marker
	Reason string // "unterminated" or "nested"
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%s: %s %q at offset %d", ErrMalformedMarkup.Error(), e.Reason, e.Marker, e.Offset)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedMarkup
}

// Region is one marked run of annotated text. [Start, End) are byte offsets that include the markers; Inner is the text between them.
type Region struct {
	Kind  Kind
	Start int
	End   int
	Inner string
}

// InnerStart returns the offset of the first byte of r.Inner.
func (r Region) InnerStart(m Markers) int {
	return r.Start + len(m.Open(r.Kind))
}

// Scan returns the regions of text in document order. The earliest opening marker of either kind opens a region, and the next closing marker of the same kind
// closes it. Scanning resumes after the close, so adjacent regions are reported separately.
//
// On malformed markup, Scan yields a *MalformedError as its last element. Each range over the returned sequence rescans text.
func Scan(text string, m Markers) iter.Seq2[Region, error] {
	return func(yield func(Region, error) bool) {
		pos := 0
		for {
			kind, start, ok := nextOpen(text, pos, m)
			if !ok {
				return
			}
			open, closeTok := m.Open(kind), m.Close(kind)
			innerStart := start + len(open)

			rel := strings.Index(text[innerStart:], closeTok)
			if rel < 0 {
				yield(Region{}, &MalformedError{Offset: start, Marker: open, Reason: "unterminated"})
				return
			}
			inner := text[innerStart : innerStart+rel]
			if nested(inner, kind, m) {
				yield(Region{}, &MalformedError{Offset: start, Marker: open, Reason: "nested"})
				return
			}

			r := Region{Kind: kind, Start: start, End: innerStart + rel + len(closeTok), Inner: inner}
			if !yield(r, nil) {
				return
			}
			pos = r.End
		}
	}
}

// ScanAll collects Scan into a slice. On malformed markup it returns the regions before the error and the error.
func ScanAll(text string, m Markers) ([]Region, error) {
	var regions []Region
	for r, err := range Scan(text, m) {
		if err != nil {
			return regions, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// nextOpen finds the earliest opening marker at or after pos.
func nextOpen(text string, pos int, m Markers) (Kind, int, bool) {
	add := strings.Index(text[pos:], m.AddOpen)
	del := strings.Index(text[pos:], m.DelOpen)
	switch {
	case add < 0 && del < 0:
		return 0, 0, false
	case del < 0 || (add >= 0 && add < del):
		return Addition, pos + add, true
	default:
		return Removal, pos + del, true
	}
}

func nested(inner string, k Kind, m Markers) bool {
	o := k.other()
	if strings.Contains(inner, m.Open(o)) || strings.Contains(inner, m.Close(o)) {
		return true
	}
	return m.Open(k) != m.Close(k) && strings.Contains(inner, m.Open(k))
}

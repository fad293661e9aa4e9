package suggest

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the kind of a suggestion region.
type Kind int

const (
	Addition Kind = iota // text the revision adds
	Removal              // text the revision removes
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Removal:
		return "removal"
	default:
		return "unknown"
	}
}

func (k Kind) other() Kind {
	if k == Addition {
		return Removal
	}
	return Addition
}

// Markers are the bracketing tokens of annotated text. Open and close may be the same token (as in the defaults).
type Markers struct {
	AddOpen  string `json:"addopen"`
	AddClose string `json:"addclose"`
	DelOpen  string `json:"delopen"`
	DelClose string `json:"delclose"`
}

// DefaultMarkers returns markdown highlight (==) for additions and markdown strikethrough (~~) for removals.
func DefaultMarkers() Markers {
	return Markers{AddOpen: "==", AddClose: "==", DelOpen: "~~", DelClose: "~~"}
}

// Validate returns an error if m can't be scanned unambiguously: every token must be non-empty, and no opening token may be a prefix of the other opening token.
func (m Markers) Validate() error {
	if m.AddOpen == "" || m.AddClose == "" || m.DelOpen == "" || m.DelClose == "" {
		return errors.New("suggest: markers must be non-empty")
	}
	if strings.HasPrefix(m.AddOpen, m.DelOpen) || strings.HasPrefix(m.DelOpen, m.AddOpen) {
		return fmt.Errorf("suggest: opening markers %q and %q are ambiguous", m.AddOpen, m.DelOpen)
	}
	return nil
}

// Open returns the opening token for k.
func (m Markers) Open(k Kind) string {
	if k == Addition {
		return m.AddOpen
	}
	return m.DelOpen
}

// Close returns the closing token for k.
func (m Markers) Close(k Kind) string {
	if k == Addition {
		return m.AddClose
	}
	return m.DelClose
}

// Wrap returns text wrapped in k's markers.
func (m Markers) Wrap(k Kind, text string) string {
	return m.Open(k) + text + m.Close(k)
}

// HasMarkers reports whether text contains any marker token. It is the guard used before proofreading: text with markers either has pending suggestions or
// contains marker tokens by coincidence, and neither can be proofread safely.
func HasMarkers(text string, m Markers) bool {
	for _, tok := range []string{m.AddOpen, m.AddClose, m.DelOpen, m.DelClose} {
		if tok != "" && strings.Contains(text, tok) {
			return true
		}
	}
	return false
}

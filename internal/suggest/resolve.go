package suggest

// Policy says what to do with a region.
type Policy int

const (
	Accept Policy = iota // keep additions, drop removals
	Reject               // drop additions, keep removals
)

// String returns the string representation of the Policy.
func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "accept"
}

// Outcome is the non-error result of resolving.
type Outcome int

const (
	Resolved        Outcome = iota // a region was replaced
	AlreadyResolved                // the region was no longer in the text; nothing changed
	NothingToDo                    // no region in the requested direction; nothing changed
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case AlreadyResolved:
		return "already resolved"
	case NothingToDo:
		return "nothing to do"
	default:
		return "unknown"
	}
}

// Resolution is the result of ResolveOne.
type Resolution struct {
	Text    string  // the full text after resolving
	Delta   int     // len(Text) - len(original text)
	Outcome Outcome // Resolved or AlreadyResolved
}

// ResolveAll resolves every region of text with policy.
func ResolveAll(text string, policy Policy, m Markers) (string, error) {
	return Decode(text, policy, m)
}

// ResolveOne resolves region r of text with policy. Only text[r.Start:r.End] changes. If r is no longer a region of text (typically because it was already
// resolved), the text is returned unchanged with Outcome AlreadyResolved, so resolving the same region twice is harmless.
func ResolveOne(text string, r Region, policy Policy, m Markers) (Resolution, error) {
	unchanged := Resolution{Text: text, Outcome: AlreadyResolved}
	if r.Start < 0 || r.End > len(text) || r.Start > r.End || text[r.Start:r.End] != m.Wrap(r.Kind, r.Inner) {
		return unchanged, nil
	}

	found := false
	for x, err := range Scan(text, m) {
		if err != nil {
			return Resolution{}, err
		}
		if x.Start >= r.Start {
			found = x == r
			break
		}
	}
	if !found {
		return unchanged, nil
	}

	replacement := DecodeInner(r.Kind, r.Inner, policy)
	newText := text[:r.Start] + replacement + text[r.End:]
	return Resolution{Text: newText, Delta: len(newText) - len(text), Outcome: Resolved}, nil
}

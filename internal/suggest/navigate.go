package suggest

// Direction is the direction of a navigation step.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// String returns the string representation of the Direction.
func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// FindNext returns the first region starting at or after cursor. It does not wrap around.
func FindNext(regions []Region, cursor int) (Region, bool) {
	for _, r := range regions {
		if r.Start >= cursor {
			return r, true
		}
	}
	return Region{}, false
}

// FindPrev returns the last region starting before cursor.
func FindPrev(regions []Region, cursor int) (Region, bool) {
	for i := len(regions) - 1; i >= 0; i-- {
		if regions[i].Start < cursor {
			return regions[i], true
		}
	}
	return Region{}, false
}

// ApplyNext resolves r and returns the new text and the offset just after the replacement. If r was already resolved, text is returned unchanged with r.Start.
func ApplyNext(text string, r Region, policy Policy, m Markers) (string, int, error) {
	res, err := ResolveOne(text, r, policy, m)
	if err != nil {
		return text, r.Start, err
	}
	if res.Outcome != Resolved {
		return text, r.Start, nil
	}
	return res.Text, r.End + res.Delta, nil
}

// StepResult is the result of Step.
type StepResult struct {
	Text    string  // the text after the step
	Cursor  int     // the cursor after the step
	Region  Region  // the region that was resolved (zero if Outcome is NothingToDo)
	Outcome Outcome // Resolved or NothingToDo
}

// Step rescans text, finds the next region from cursor in direction d, and resolves it with policy.
//
// Forward steps leave the cursor just after the replacement. Backward steps leave it at the start of the replacement, so repeated backward steps keep moving backward.
// If there's no region in direction d, the text and cursor are returned unchanged with Outcome NothingToDo.
func Step(text string, cursor int, policy Policy, d Direction, m Markers) (StepResult, error) {
	regions, err := ScanAll(text, m)
	if err != nil {
		return StepResult{Text: text, Cursor: cursor}, err
	}

	var r Region
	var ok bool
	if d == Backward {
		r, ok = FindPrev(regions, cursor)
	} else {
		r, ok = FindNext(regions, cursor)
	}
	if !ok {
		return StepResult{Text: text, Cursor: cursor, Outcome: NothingToDo}, nil
	}

	newText, newCursor, err := ApplyNext(text, r, policy, m)
	if err != nil {
		return StepResult{Text: text, Cursor: cursor}, err
	}
	if d == Backward {
		newCursor = r.Start
	}
	return StepResult{Text: newText, Cursor: newCursor, Region: r, Outcome: Resolved}, nil
}

package diff

import "strings"

// RenderPretty returns a human-oriented, colorized rendering of edits as a single inline text: equal text is printed as-is, deleted text is shown on a pink
// background with strikethrough, and inserted text on a green background.
//
// contextLines controls how many unchanged lines are kept before and after each line containing a change; lines further away are collapsed to a single "…"
// line. A negative contextLines keeps everything. If there are no changes, the result is the empty string.
//
// The output contains ANSI 256-color escape sequences and is intended for terminals. For plain output, use RenderPlain.
func RenderPretty(edits []Edit, contextLines int) string {
	const (
		reset     = "\x1b[0m"
		blackFG   = "\x1b[30m"
		strike    = "\x1b[9m"
		pinkSpan  = "\x1b[48;5;217m"
		greenSpan = "\x1b[48;5;114m"
	)
	return render(edits, contextLines, func(b *strings.Builder, e Edit) {
		switch e.Op {
		case OpEqual:
			b.WriteString(e.Text)
		case OpDelete:
			writeStyledLines(b, e.Text, blackFG+strike+pinkSpan, reset)
		case OpInsert:
			writeStyledLines(b, e.Text, blackFG+greenSpan, reset)
		}
	})
}

// RenderPlain is like RenderPretty, but without colors: deletions are written as [-text-] and insertions as {+text+}, like wdiff.
func RenderPlain(edits []Edit, contextLines int) string {
	return render(edits, contextLines, func(b *strings.Builder, e Edit) {
		switch e.Op {
		case OpEqual:
			b.WriteString(e.Text)
		case OpDelete:
			b.WriteString("[-")
			b.WriteString(e.Text)
			b.WriteString("-]")
		case OpInsert:
			b.WriteString("{+")
			b.WriteString(e.Text)
			b.WriteString("+}")
		}
	})
}

// writeStyledLines writes text wrapped in on/off, re-applying the style after every newline so that terminals don't bleed background color across lines.
func writeStyledLines(b *strings.Builder, text string, on, off string) {
	lines := strings.Split(text, defaultEOL)
	for i, ln := range lines {
		if i > 0 {
			b.WriteString(defaultEOL)
		}
		if ln == "" {
			continue
		}
		b.WriteString(on)
		b.WriteString(ln)
		b.WriteString(off)
	}
}

// render writes edits through writeEdit, then collapses unchanged lines that are more than contextLines away from a changed line.
func render(edits []Edit, contextLines int, writeEdit func(b *strings.Builder, e Edit)) string {
	if !HasChanges(edits) {
		return ""
	}

	var b strings.Builder
	// changed[i] is true if output line i contains part of an insert or delete.
	var changed []bool
	line := 0
	mark := func(n int) {
		for len(changed) <= n {
			changed = append(changed, false)
		}
	}
	for _, e := range edits {
		start := line
		writeEdit(&b, e)
		line += strings.Count(e.Text, defaultEOL)
		if e.Op == OpDelete || e.Op == OpInsert {
			for l := start; l <= line; l++ {
				mark(l)
				changed[l] = true
			}
		}
	}
	mark(line)

	out := strings.TrimSuffix(b.String(), defaultEOL)
	if contextLines < 0 {
		return out
	}

	lines := strings.Split(out, defaultEOL)
	var kept []string
	elided := false
	for i, ln := range lines {
		if nearChange(changed, i, contextLines) {
			kept = append(kept, ln)
			elided = false
			continue
		}
		if !elided {
			kept = append(kept, "…")
			elided = true
		}
	}
	return strings.Join(kept, defaultEOL)
}

func nearChange(changed []bool, i, contextLines int) bool {
	for j := i - contextLines; j <= i+contextLines; j++ {
		if j >= 0 && j < len(changed) && changed[j] {
			return true
		}
	}
	return false
}

// defaultEOL is the EOL ('\n').
const defaultEOL = "\n"

// Package review is an interactive terminal UI that walks through the suggestions in a document, accepting or rejecting them one at a time.
package review

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codalotl/proofreader/internal/document"
	"github.com/codalotl/proofreader/internal/proofread"
	"github.com/codalotl/proofreader/internal/simplelogger"
	"github.com/codalotl/proofreader/internal/suggest"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	chromeHeight  = 3 // header, status and help lines
)

// Model is a bubbletea model reviewing doc's suggestions. It edits doc in memory; saving is left to the caller once the program exits.
type Model struct {
	doc    *document.Document
	svc    *proofread.Service
	title  string
	keys   KeyMap
	styles Styles

	help     help.Model
	viewport viewport.Model

	cursor   int // byte offset; the focused suggestion is the first one starting at or after it
	resolved int
	status   string
	aborted  bool
	err      error
}

// New returns a Model reviewing doc. title is shown in the header.
func New(doc *document.Document, svc *proofread.Service, title string) Model {
	m := Model{
		doc:      doc,
		svc:      svc,
		title:    title,
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
		help:     help.New(),
		viewport: viewport.New(defaultWidth, defaultHeight-chromeHeight),
	}
	m.refresh()
	return m
}

// WithStyles returns m using s.
func (m Model) WithStyles(s Styles) Model {
	m.styles = s
	m.refresh()
	return m
}

// Resolved returns the number of suggestions accepted or rejected so far, counting each region of a bulk resolution.
func (m Model) Resolved() int {
	return m.resolved
}

// Aborted reports whether the user quit without saving.
func (m Model) Aborted() bool {
	return m.aborted
}

// Err returns the error that stopped the review, if any (ex: malformed markup).
func (m Model) Err() error {
	return m.err
}

// Current returns the focused suggestion.
func (m Model) Current() (suggest.Region, bool) {
	regions, err := m.regions()
	if err != nil {
		return suggest.Region{}, false
	}
	return suggest.FindNext(regions, m.cursor)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(1, msg.Height-chromeHeight)
		m.help.Width = msg.Width
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		simplelogger.Log("review: key=%q cursor=%d", msg.String(), m.cursor)
		switch {
		case key.Matches(msg, m.keys.Abort):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case m.err != nil:
			return m, nil
		case key.Matches(msg, m.keys.Accept):
			m.resolveNext(suggest.Accept)
		case key.Matches(msg, m.keys.Reject):
			m.resolveNext(suggest.Reject)
		case key.Matches(msg, m.keys.AcceptAll):
			m.resolveAll(suggest.Accept)
		case key.Matches(msg, m.keys.RejectAll):
			m.resolveAll(suggest.Reject)
		case key.Matches(msg, m.keys.Next):
			m.move(suggest.Forward)
		case key.Matches(msg, m.keys.Prev):
			m.move(suggest.Backward)
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(m.title))
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	b.WriteString(m.styles.Status.Render(m.status))
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) regions() ([]suggest.Region, error) {
	return suggest.ScanAll(m.doc.String(), m.svc.Markers())
}

func (m *Model) resolveNext(policy suggest.Policy) {
	report, err := m.svc.ResolveNext(m.doc, m.cursor, policy, suggest.Forward)
	if err != nil {
		m.err = err
		return
	}
	if report.Outcome == suggest.Resolved {
		m.cursor = report.Cursor
		m.resolved++
		simplelogger.Log("review: %s %s at %d", policy, report.Region.Kind, report.Region.Start)
	}
}

func (m *Model) resolveAll(policy suggest.Policy) {
	report, err := m.svc.ResolveInScope(m.doc, m.doc.All(), policy)
	if err != nil {
		m.err = err
		return
	}
	m.resolved += report.Additions + report.Removals
	m.cursor = 0
}

// move focuses the suggestion after or before the current one. The focus doesn't move past the first or last suggestion.
func (m *Model) move(d suggest.Direction) {
	regions, err := m.regions()
	if err != nil {
		m.err = err
		return
	}
	cur, ok := suggest.FindNext(regions, m.cursor)
	if !ok {
		return
	}
	if d == suggest.Forward {
		if next, ok := suggest.FindNext(regions, cur.End); ok {
			m.cursor = next.Start
		}
		return
	}
	if prev, ok := suggest.FindPrev(regions, cur.Start); ok {
		m.cursor = prev.Start
	}
}

// refresh re-renders the document into the viewport and scrolls the focused suggestion into view. If nothing is left at or after the cursor but suggestions
// remain before it, the focus moves back to the last of them.
func (m *Model) refresh() {
	text := m.doc.String()
	regions, err := suggest.ScanAll(text, m.svc.Markers())
	if err != nil {
		m.err = err
	}
	if m.err != nil {
		m.status = "error: " + m.err.Error()
		m.viewport.SetContent(text)
		return
	}

	if _, ok := suggest.FindNext(regions, m.cursor); !ok {
		if prev, ok := suggest.FindPrev(regions, m.cursor); ok {
			m.cursor = prev.Start
		}
	}

	current := -1
	for i, r := range regions {
		if r.Start >= m.cursor {
			current = i
			break
		}
	}

	switch {
	case len(regions) == 0:
		m.status = fmt.Sprintf("All suggestions resolved (%d).", m.resolved)
	case len(regions) == 1:
		m.status = "1 suggestion left"
	default:
		m.status = fmt.Sprintf("%d suggestions left", len(regions))
	}

	m.viewport.SetContent(m.render(text, regions, current))
	if current >= 0 {
		line := strings.Count(text[:regions[current].Start], "\n")
		m.viewport.SetYOffset(max(0, line-m.viewport.Height/2))
	}
}

func (m Model) render(text string, regions []suggest.Region, current int) string {
	var b strings.Builder
	at := 0
	for i, r := range regions {
		b.WriteString(text[at:r.Start])
		style := m.styles.Addition
		if r.Kind == suggest.Removal {
			style = m.styles.Removal
		}
		if i == current {
			style = m.styles.Current.Inherit(style)
		}
		// Lines are styled one at a time so lipgloss doesn't pad a multi-line region into a block.
		for j, line := range strings.Split(r.Inner, "\n") {
			if j > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
		at = r.End
	}
	b.WriteString(text[at:])
	return b.String()
}

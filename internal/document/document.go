// Package document is an in-memory text document, optionally backed by a file, that proofreading operates on.
//
// Offsets are byte offsets into the full text. Positions (Pos) are 0-indexed lines and byte columns. A Scope is a half-open byte range.
//
// Every mutation bumps the document's Version. Callers that start a long operation record Identity() first and compare afterwards to detect that the text
// changed underneath them. For file-backed documents, Watch also bumps the version when the file is changed by someone else.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrOutOfRange    = errors.New("document: position out of range")
	ErrNoPath        = errors.New("document: no file path")
	ErrInFrontmatter = errors.New("document: line is in the frontmatter")
)

// Identity identifies one version of one document.
type Identity struct {
	ID      uuid.UUID
	Version int
}

func (i Identity) String() string {
	return fmt.Sprintf("%s@%d", i.ID, i.Version)
}

// Pos is a 0-indexed line and byte column.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Col+1)
}

// Scope is the byte range [From, To) of a document.
type Scope struct {
	From int
	To   int
}

// Len returns the length of s in bytes.
func (s Scope) Len() int {
	return s.To - s.From
}

// Document is safe for concurrent use.
type Document struct {
	mu      sync.Mutex
	id      uuid.UUID
	version int
	path    string
	perm    os.FileMode
	text    string
}

// New returns a document with text that isn't backed by a file.
func New(text string) *Document {
	return &Document{id: uuid.New(), text: text, perm: 0o644}
}

// Load reads the file at path.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Document{id: uuid.New(), path: path, perm: info.Mode().Perm(), text: string(b)}, nil
}

// Save writes the text to the document's file. The file is replaced atomically (written to a temp file in the same directory, then renamed), so a Watcher never
// sees it half-written.
func (d *Document) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.path == "" {
		return ErrNoPath
	}

	f, err := os.CreateTemp(filepath.Dir(d.path), "."+filepath.Base(d.path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if _, err := f.WriteString(d.text); err != nil {
		f.Close()
		return err
	}
	if err := f.Chmod(d.perm); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, d.path)
}

// Path returns the file path, or "" if the document isn't file-backed.
func (d *Document) Path() string {
	return d.path
}

// Identity returns the document's current identity.
func (d *Document) Identity() Identity {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Identity{ID: d.id, Version: d.version}
}

// String returns the full text.
func (d *Document) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

// All returns the scope of the full text.
func (d *Document) All() Scope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Scope{From: 0, To: len(d.text)}
}

// Text returns the text in s.
func (d *Document) Text(s Scope) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(s); err != nil {
		return "", err
	}
	return d.text[s.From:s.To], nil
}

// Replace replaces the text in s with text and bumps the version.
func (d *Document) Replace(s Scope, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check(s); err != nil {
		return err
	}
	d.text = d.text[:s.From] + text + d.text[s.To:]
	d.version++
	return nil
}

func (d *Document) check(s Scope) error {
	if s.From < 0 || s.To > len(d.text) || s.From > s.To {
		return fmt.Errorf("%w: scope [%d, %d) of %d bytes", ErrOutOfRange, s.From, s.To, len(d.text))
	}
	return nil
}

// bump marks the document as changed without changing its text.
func (d *Document) bump() Identity {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version++
	return Identity{ID: d.id, Version: d.version}
}

// lineStarts returns the offset at which each line starts.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineScope returns the scope of line n of text, excluding its newline.
func lineScope(text string, starts []int, n int) Scope {
	end := len(text)
	if n+1 < len(starts) {
		end = starts[n+1] - 1
	}
	return Scope{From: starts[n], To: end}
}

// OffsetAt returns the offset of p.
func (d *Document) OffsetAt(p Pos) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := lineStarts(d.text)
	if p.Line < 0 || p.Line >= len(starts) || p.Col < 0 {
		return 0, fmt.Errorf("%w: line %d", ErrOutOfRange, p.Line+1)
	}
	ls := lineScope(d.text, starts, p.Line)
	if p.Col > ls.Len() {
		return 0, fmt.Errorf("%w: column %d of line %d", ErrOutOfRange, p.Col+1, p.Line+1)
	}
	return ls.From + p.Col, nil
}

// PosAt returns the position of offset, which is clamped to the text.
func (d *Document) PosAt(offset int) Pos {
	d.mu.Lock()
	defer d.mu.Unlock()
	offset = max(0, min(offset, len(d.text)))
	line := strings.Count(d.text[:offset], "\n")
	col := offset - (strings.LastIndex(d.text[:offset], "\n") + 1)
	return Pos{Line: line, Col: col}
}

// Line returns the scope of line n, excluding its newline.
func (d *Document) Line(n int) (Scope, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := lineStarts(d.text)
	if n < 0 || n >= len(starts) {
		return Scope{}, fmt.Errorf("%w: line %d", ErrOutOfRange, n+1)
	}
	return lineScope(d.text, starts, n), nil
}

// Paragraph returns the scope of the paragraph containing line n: the surrounding run of non-blank lines, not extending into the frontmatter. If line n is blank,
// the scope is empty. A line of the frontmatter itself returns ErrInFrontmatter.
func (d *Document) Paragraph(n int) (Scope, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	starts := lineStarts(d.text)
	if n < 0 || n >= len(starts) {
		return Scope{}, fmt.Errorf("%w: line %d", ErrOutOfRange, n+1)
	}
	bodyStart := bodyOffset(d.text)
	if starts[n] < bodyStart {
		return Scope{}, fmt.Errorf("%w: line %d", ErrInFrontmatter, n+1)
	}

	blank := func(i int) bool {
		ls := lineScope(d.text, starts, i)
		return strings.TrimSpace(d.text[ls.From:ls.To]) == ""
	}
	if blank(n) {
		ls := lineScope(d.text, starts, n)
		return Scope{From: ls.From, To: ls.From}, nil
	}

	first, last := n, n
	for first > 0 && !blank(first-1) && starts[first-1] >= bodyStart {
		first--
	}
	for last+1 < len(starts) && !blank(last+1) {
		last++
	}
	return Scope{From: starts[first], To: lineScope(d.text, starts, last).To}, nil
}

// Selection returns the scope between two positions.
func (d *Document) Selection(from, to Pos) (Scope, error) {
	a, err := d.OffsetAt(from)
	if err != nil {
		return Scope{}, err
	}
	b, err := d.OffsetAt(to)
	if err != nil {
		return Scope{}, err
	}
	if a > b {
		return Scope{}, fmt.Errorf("%w: selection ends before it starts", ErrOutOfRange)
	}
	return Scope{From: a, To: b}, nil
}

// Package preview renders markdown that contains suggestion markup as HTML: additions become <mark> and removals become <del>.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/codalotl/proofreader/internal/suggest"
	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrUnsupportedMarkers is returned for markers that can't be parsed as inline delimiters. Each kind's open and close tokens must be the same run of one or two
// of a single byte (ex: "==", "~~", "+"), and the two kinds must use different bytes.
var ErrUnsupportedMarkers = errors.New("preview: markers must be runs of a single repeated character")

// KindSuggestion is the node kind of a *Suggestion.
var KindSuggestion = gast.NewNodeKind("Suggestion")

// Suggestion is an inline node for one suggestion region.
type Suggestion struct {
	gast.BaseInline
	Change suggest.Kind
}

// Kind implements ast.Node.
func (n *Suggestion) Kind() gast.NodeKind {
	return KindSuggestion
}

// Dump implements ast.Node.
func (n *Suggestion) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Change": n.Change.String()}, nil)
}

// delimiter returns the byte a kind's markers are made of.
func delimiter(m suggest.Markers, k suggest.Kind) (byte, error) {
	open, cl := m.Open(k), m.Close(k)
	if open == "" || len(open) > 2 || open != cl || strings.Count(open, open[:1]) != len(open) {
		return 0, fmt.Errorf("%w: %q %q", ErrUnsupportedMarkers, open, cl)
	}
	return open[0], nil
}

type suggestionDelimiterProcessor struct {
	char byte
	kind suggest.Kind
}

func (p *suggestionDelimiterProcessor) IsDelimiter(b byte) bool {
	return b == p.char
}

func (p *suggestionDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *suggestionDelimiterProcessor) OnMatch(consumes int) gast.Node {
	return &Suggestion{Change: p.kind}
}

type suggestionParser struct {
	length    int
	processor *suggestionDelimiterProcessor
}

func (s *suggestionParser) Trigger() []byte {
	return []byte{s.processor.char}
}

func (s *suggestionParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, s.length, s.processor)
	if node == nil || node.OriginalLength != s.length || before == rune(s.processor.char) {
		return nil
	}

	// Suggestion markers pair in order regardless of the surrounding characters, so a region like "== leading space==" still opens.
	node.CanOpen = true
	node.CanClose = true

	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

func (s *suggestionParser) CloseBlock(parent gast.Node, pc parser.Context) {}

type suggestionHTMLRenderer struct{}

func (r *suggestionHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindSuggestion, r.renderSuggestion)
}

func (r *suggestionHTMLRenderer) renderSuggestion(w util.BufWriter, source []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	tag := "mark"
	if n.(*Suggestion).Change == suggest.Removal {
		tag = "del"
	}
	if entering {
		_, _ = w.WriteString("<" + tag + ">")
	} else {
		_, _ = w.WriteString("</" + tag + ">")
	}
	return gast.WalkContinue, nil
}

type suggestions struct {
	parsers []*suggestionParser
}

// Extension returns a goldmark extension that parses suggestion regions delimited by m.
func Extension(m suggest.Markers) (goldmark.Extender, error) {
	if m == (suggest.Markers{}) {
		m = suggest.DefaultMarkers()
	}
	var e suggestions
	for _, k := range []suggest.Kind{suggest.Addition, suggest.Removal} {
		c, err := delimiter(m, k)
		if err != nil {
			return nil, err
		}
		e.parsers = append(e.parsers, &suggestionParser{length: len(m.Open(k)), processor: &suggestionDelimiterProcessor{char: c, kind: k}})
	}
	if e.parsers[0].processor.char == e.parsers[1].processor.char {
		return nil, fmt.Errorf("%w: additions and removals share %q", ErrUnsupportedMarkers, e.parsers[0].processor.char)
	}
	return &e, nil
}

func (e *suggestions) Extend(m goldmark.Markdown) {
	for _, p := range e.parsers {
		m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(p, 500)))
	}
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(&suggestionHTMLRenderer{}, 500)))
}

// Renderer converts annotated markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a Renderer for markers m (the zero value means suggest.DefaultMarkers). Tables, task lists and bare links are rendered as on GitHub.
func New(m suggest.Markers) (*Renderer, error) {
	ext, err := Extension(m)
	if err != nil {
		return nil, err
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.TaskList, extension.Linkify, ext))
	return &Renderer{md: md}, nil
}

// Render writes the HTML fragment for annotated to w.
func (r *Renderer) Render(w io.Writer, annotated string) error {
	return r.md.Convert([]byte(annotated), w)
}

// RenderString returns the HTML fragment for annotated.
func (r *Renderer) RenderString(annotated string) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, annotated); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const pageStyle = `body { max-width: 46em; margin: 2em auto; padding: 0 1em; font-family: system-ui, sans-serif; line-height: 1.5; }
mark { background: #d4f7d4; }
del { background: #fbd8d8; color: #8a1f1f; }`

// Page writes a standalone HTML page titled title, with the rendered annotated text as its body.
func (r *Renderer) Page(w io.Writer, title, annotated string) error {
	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>\n%s\n</style>\n</head>\n<body>\n", html.EscapeString(title), pageStyle); err != nil {
		return err
	}
	if err := r.Render(w, annotated); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

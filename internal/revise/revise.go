// Package revise asks a language model for a proofread version of a text.
package revise

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"

	"github.com/codalotl/proofreader/internal/llmcomplete"
	"github.com/codalotl/proofreader/internal/q/health"
	"github.com/codalotl/proofreader/internal/suggest"
)

var (
	// ErrEmptyRevision is returned when the model's response has no text.
	ErrEmptyRevision = errors.New("revise: empty revision")

	// ErrMarkersInRevision is returned when the model's response contains suggestion markers the original doesn't have. Such a revision would be mistaken for
	// suggestions once encoded.
	ErrMarkersInRevision = errors.New("revise: revision contains suggestion markers")
)

// DefaultPrompt is the system prompt used unless Options.StaticPrompt is set.
const DefaultPrompt = `You are a professional copy editor. Improve the clarity, readability, grammar, and spelling of the text the user sends.
Preserve the original meaning, tone, and any technical terms. Make as few changes as possible; if the text is already clear and correct, return it unchanged.
Do not add or remove content, and do not reformat (no new headings or lists). Keep all Markdown syntax, links, and line breaks intact.
Reply with the revised text only: no preamble, no explanations, no code fences.`

// reasoningHeadroom is added to the output token budget so reasoning models have room to think before writing the revision.
const reasoningHeadroom = 4096

// Revision is a model's revision of a text.
type Revision struct {
	Text      string
	Truncated bool // the model hit its output limit, so Text covers only a prefix of the original
	Usage     llmcomplete.Usage
}

// Reviser produces revisions. A failure (transport error, empty response, markers in the response) is an error; "no change" is a Revision whose Text equals the
// original.
type Reviser interface {
	Revise(ctx context.Context, original string) (Revision, error)
}

// Options configures an LLMReviser.
type Options struct {
	Model llmcomplete.ModelID

	// StaticPrompt replaces DefaultPrompt.
	StaticPrompt string

	// MaxOutputTokens caps the response. If 0, the cap is sized from the text: twice its token count plus headroom for reasoning, bounded by the model's limit.
	MaxOutputTokens int

	// Markers are checked for in the response. The zero value means suggest.DefaultMarkers.
	Markers suggest.Markers

	Logger *slog.Logger
}

// LLMReviser is a Reviser backed by llmcomplete.
type LLMReviser struct {
	conversationalist llmcomplete.Conversationalist
	opts              Options
	health.Ctx
}

var _ Reviser = (*LLMReviser)(nil)

// New returns an LLMReviser that starts a new conversation for each revision.
func New(c llmcomplete.Conversationalist, opts Options) *LLMReviser {
	if opts.Markers == (suggest.Markers{}) {
		opts.Markers = suggest.DefaultMarkers()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LLMReviser{conversationalist: c, opts: opts, Ctx: health.NewCtx(logger)}
}

// Revise sends original (without its leading and trailing whitespace, which models tend to drop) and returns the model's revision with that whitespace
// restored.
func (r *LLMReviser) Revise(ctx context.Context, original string) (Revision, error) {
	lead, core, trail := splitSpace(original)
	if core == "" {
		return Revision{Text: original}, nil
	}

	modelID := llmcomplete.ModelIDOrDefault(r.opts.Model)
	prompt := r.opts.StaticPrompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	conv := r.conversationalist.NewConversation(modelID, prompt)
	conv.SetLogger(r.Logger)
	conv.SetMaxOutputTokens(r.outputCap(modelID, core))
	conv.AddUserMessage(core)

	msg, err := conv.Send(ctx)
	if err != nil {
		return Revision{}, r.LogWrappedErr("revise.send", err, "model", modelID)
	}

	revised := strings.TrimSpace(msg.Text)
	if revised == "" {
		return Revision{}, r.LogErr(ErrEmptyRevision, "model", modelID)
	}
	if suggest.HasMarkers(revised, r.opts.Markers) && !suggest.HasMarkers(core, r.opts.Markers) {
		return Revision{}, r.LogErr(ErrMarkersInRevision, "model", modelID)
	}

	rev := Revision{
		Text:      lead + revised + trail,
		Truncated: msg.ResponseMetadata.Truncated(),
	}
	if usages := conv.Usage(); len(usages) > 0 {
		rev.Usage = usages[len(usages)-1]
	}
	r.Log("revise.done", "model", modelID, "truncated", rev.Truncated, "in_bytes", len(core), "out_bytes", len(revised))
	return rev, nil
}

func (r *LLMReviser) outputCap(modelID llmcomplete.ModelID, text string) int {
	if r.opts.MaxOutputTokens > 0 {
		return r.opts.MaxOutputTokens
	}
	want := 2*llmcomplete.CountTokens(text) + reasoningHeadroom
	if limit := llmcomplete.MaxOutputTokens(modelID); limit > 0 && want > limit {
		return limit
	}
	return want
}

// splitSpace splits s into its leading whitespace, its core, and its trailing whitespace.
func splitSpace(s string) (lead, core, trail string) {
	core = strings.TrimLeftFunc(s, unicode.IsSpace)
	lead = s[:len(s)-len(core)]
	trimmed := strings.TrimRightFunc(core, unicode.IsSpace)
	trail = core[len(trimmed):]
	return lead, trimmed, trail
}

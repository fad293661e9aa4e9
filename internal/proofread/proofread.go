// Package proofread drives proofreading of a host document: it revises a scope with a Reviser and writes the differences back as suggestion markup, and it
// accepts or rejects suggestions in a scope or next to a cursor.
package proofread

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/codalotl/proofreader/internal/diff"
	"github.com/codalotl/proofreader/internal/document"
	"github.com/codalotl/proofreader/internal/llmcomplete"
	"github.com/codalotl/proofreader/internal/q/health"
	"github.com/codalotl/proofreader/internal/revise"
	"github.com/codalotl/proofreader/internal/suggest"
)

var (
	ErrEmptyScope         = errors.New("proofread: empty scope")
	ErrPendingSuggestions = errors.New("proofread: scope already has suggestions")
	ErrStaleDocument      = errors.New("proofread: document changed during revision")
	ErrRevisionFailed     = errors.New("proofread: revision failed")
)

// Host is the document being proofread. Scopes are byte ranges of its full text.
type Host interface {
	Identity() document.Identity
	All() document.Scope
	Text(scope document.Scope) (string, error)
	Replace(scope document.Scope, text string) error
}

var _ Host = (*document.Document)(nil)

// Outcome is the non-error result of a Service operation.
type Outcome int

const (
	OutcomeSuggested        Outcome = iota // suggestions were written
	OutcomeNothingToChange                 // the revision equals the original; nothing was written
	OutcomeResolved                        // suggestions were accepted or rejected
	OutcomeNothingToResolve                // the scope has no suggestions
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuggested:
		return "suggested"
	case OutcomeNothingToChange:
		return "nothing to change"
	case OutcomeResolved:
		return "resolved"
	case OutcomeNothingToResolve:
		return "nothing to resolve"
	default:
		return "unknown"
	}
}

// Report describes the result of Proofread or ResolveInScope.
type Report struct {
	Outcome   Outcome
	Scope     document.Scope // the scope's extent after the operation
	Additions int            // addition regions written or resolved
	Removals  int            // removal regions written or resolved
	Truncated bool           // the revision was cut off; the tail of the scope wasn't proofread
	Usage     llmcomplete.Usage
}

// NextReport describes the result of ResolveNext.
type NextReport struct {
	Outcome suggest.Outcome // suggest.Resolved or suggest.NothingToDo
	Region  suggest.Region  // the resolved region, in offsets from before the resolution
	Cursor  int             // the cursor after the step
}

// Options configures a Service.
type Options struct {
	// Markers are the suggestion markers. The zero value means suggest.DefaultMarkers.
	Markers suggest.Markers

	PreserveQuotes         bool
	PreserveBlockquotes    bool
	PreserveStraightQuotes bool
	TruncationNote         string // "" means suggest.DefaultTruncationNote
}

// Service proofreads hosts. It holds no per-document state, so one Service can serve any number of hosts.
type Service struct {
	reviser revise.Reviser
	opts    Options
	health.Ctx
}

// NewService returns a Service. If logger is nil, nothing is logged.
func NewService(r revise.Reviser, opts Options, logger *slog.Logger) *Service {
	if opts.Markers == (suggest.Markers{}) {
		opts.Markers = suggest.DefaultMarkers()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{reviser: r, opts: opts, Ctx: health.NewCtx(logger)}
}

// Markers returns the markers the Service reads and writes.
func (s *Service) Markers() suggest.Markers {
	return s.opts.Markers
}

// Proofread revises the text in scope and replaces it with suggestion markup. Nothing is written if the scope is blank, already has suggestions, the revision
// fails, or the host changed while the revision was in flight.
func (s *Service) Proofread(ctx context.Context, host Host, scope document.Scope) (Report, error) {
	original, err := host.Text(scope)
	if err != nil {
		return Report{}, s.LogWrappedErr("proofread.text", err)
	}
	if strings.TrimSpace(original) == "" {
		return Report{}, s.LogErr(health.WrapHuman("Nothing to proofread: the selection is empty.", "proofread.empty_scope", ErrEmptyScope))
	}
	if suggest.HasMarkers(original, s.opts.Markers) {
		return Report{}, s.LogErr(health.WrapHuman("The text already has suggestions. Accept or reject them before proofreading again.", "proofread.pending", ErrPendingSuggestions))
	}

	before := host.Identity()
	rev, err := s.reviser.Revise(ctx, original)
	if err != nil {
		return Report{}, s.LogErr(health.WrapHuman("Proofreading failed: "+err.Error(), "proofread.revise", fmt.Errorf("%w: %w", ErrRevisionFailed, err)))
	}
	if after := host.Identity(); after != before {
		return Report{}, s.LogErr(health.WrapHuman("The document changed while it was being proofread. Try again.", "proofread.stale", ErrStaleDocument, "before", before.String(), "after", after.String()))
	}

	report := Report{Scope: scope, Truncated: rev.Truncated, Usage: rev.Usage}
	if rev.Text == original && !rev.Truncated {
		report.Outcome = OutcomeNothingToChange
		s.Log("proofread.nothing_to_change", "bytes", len(original))
		return report, nil
	}

	edits := suggest.Normalize(diff.DiffWords(original, rev.Text), suggest.NormalizeOptions{
		Truncated:              rev.Truncated,
		TruncationNote:         s.opts.TruncationNote,
		PreserveStraightQuotes: s.opts.PreserveStraightQuotes,
	})
	encodeOpts := suggest.EncodeOptions{
		Markers:             s.opts.Markers,
		PreserveQuotes:      s.opts.PreserveQuotes,
		PreserveBlockquotes: s.opts.PreserveBlockquotes,
	}
	annotated := suggest.Encode(edits, encodeOpts)
	if annotated == original {
		report.Outcome = OutcomeNothingToChange
		s.Log("proofread.nothing_to_change", "bytes", len(original), "reverted", true)
		return report, nil
	}

	// Markup that wouldn't resolve back to exactly the two texts is never written.
	if err := suggest.Verify(annotated, suggest.Prepare(edits, encodeOpts), s.opts.Markers); err != nil {
		return Report{}, s.LogErr(health.WrapHuman("Proofreading failed: the changes sit next to marker characters and can't be marked up unambiguously.", "proofread.encode", fmt.Errorf("%w: %w", ErrRevisionFailed, err)))
	}
	regions, err := suggest.ScanAll(annotated, s.opts.Markers)
	if err != nil {
		return Report{}, s.LogWrappedErr("proofread.encode", err)
	}
	if err := host.Replace(scope, annotated); err != nil {
		return Report{}, s.LogWrappedErr("proofread.replace", err)
	}

	report.Outcome = OutcomeSuggested
	report.Scope = document.Scope{From: scope.From, To: scope.From + len(annotated)}
	report.Additions, report.Removals = countKinds(regions)
	s.Log("proofread.suggested", "additions", report.Additions, "removals", report.Removals, "truncated", report.Truncated)
	return report, nil
}

// ResolveInScope accepts or rejects every suggestion in scope.
func (s *Service) ResolveInScope(host Host, scope document.Scope, policy suggest.Policy) (Report, error) {
	text, err := host.Text(scope)
	if err != nil {
		return Report{}, s.LogWrappedErr("proofread.text", err)
	}
	regions, err := suggest.ScanAll(text, s.opts.Markers)
	if err != nil {
		return Report{}, s.LogErr(health.WrapHuman("The suggestion markup is broken: "+err.Error(), "proofread.malformed", err))
	}
	if len(regions) == 0 {
		return Report{Outcome: OutcomeNothingToResolve, Scope: scope}, nil
	}

	resolved, err := suggest.ResolveAll(text, policy, s.opts.Markers)
	if err != nil {
		return Report{}, s.LogWrappedErr("proofread.resolve", err)
	}
	if err := host.Replace(scope, resolved); err != nil {
		return Report{}, s.LogWrappedErr("proofread.replace", err)
	}

	report := Report{Outcome: OutcomeResolved, Scope: document.Scope{From: scope.From, To: scope.From + len(resolved)}}
	report.Additions, report.Removals = countKinds(regions)
	s.Log("proofread.resolved", "policy", policy, "additions", report.Additions, "removals", report.Removals)
	return report, nil
}

// ResolveNext accepts or rejects the suggestion nearest to cursor in direction d (see suggest.Step). Only the region's span of the host is replaced.
func (s *Service) ResolveNext(host Host, cursor int, policy suggest.Policy, d suggest.Direction) (NextReport, error) {
	text, err := host.Text(host.All())
	if err != nil {
		return NextReport{}, s.LogWrappedErr("proofread.text", err)
	}

	step, err := suggest.Step(text, cursor, policy, d, s.opts.Markers)
	if err != nil {
		return NextReport{}, s.LogErr(health.WrapHuman("The suggestion markup is broken: "+err.Error(), "proofread.malformed", err))
	}
	if step.Outcome != suggest.Resolved {
		return NextReport{Outcome: step.Outcome, Cursor: cursor}, nil
	}

	r := step.Region
	replacement := suggest.DecodeInner(r.Kind, r.Inner, policy)
	if err := host.Replace(document.Scope{From: r.Start, To: r.End}, replacement); err != nil {
		return NextReport{}, s.LogWrappedErr("proofread.replace", err)
	}
	s.Log("proofread.resolved_next", "policy", policy, "direction", d, "kind", r.Kind, "start", r.Start)
	return NextReport{Outcome: suggest.Resolved, Region: r, Cursor: step.Cursor}, nil
}

func countKinds(regions []suggest.Region) (additions, removals int) {
	for _, r := range regions {
		if r.Kind == suggest.Addition {
			additions++
		} else {
			removals++
		}
	}
	return additions, removals
}

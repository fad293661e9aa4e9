package proofread

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/codalotl/proofreader/internal/document"
	"github.com/codalotl/proofreader/internal/llmcomplete"
	"github.com/codalotl/proofreader/internal/q/health"
	"github.com/codalotl/proofreader/internal/revise"
	"github.com/codalotl/proofreader/internal/suggest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviser struct {
	calls  int
	revise func(ctx context.Context, original string) (revise.Revision, error)
}

func (f *fakeReviser) Revise(ctx context.Context, original string) (revise.Revision, error) {
	f.calls++
	return f.revise(ctx, original)
}

// returning always revises to text.
func returning(text string) *fakeReviser {
	return &fakeReviser{revise: func(ctx context.Context, original string) (revise.Revision, error) {
		return revise.Revision{Text: text, Usage: llmcomplete.Usage{TotalTokens: 10}}, nil
	}}
}

func TestProofread_AcceptAndReject(t *testing.T) {
	original := "Teh cat sit on the mat."
	revised := "The cat sat on the mat."

	for _, tc := range []struct {
		policy suggest.Policy
		want   string
	}{
		{suggest.Accept, revised},
		{suggest.Reject, original},
	} {
		t.Run(tc.policy.String(), func(t *testing.T) {
			doc := document.New(original)
			svc := NewService(returning(revised), Options{}, nil)

			report, err := svc.Proofread(context.Background(), doc, doc.All())
			require.NoError(t, err)
			assert.Equal(t, OutcomeSuggested, report.Outcome)
			assert.Equal(t, 2, report.Additions)
			assert.Equal(t, 2, report.Removals)
			assert.Equal(t, doc.All(), report.Scope)
			assert.Equal(t, 10, report.Usage.TotalTokens)
			assert.False(t, report.Truncated)
			assert.True(t, suggest.HasMarkers(doc.String(), suggest.DefaultMarkers()))

			resolved, err := svc.ResolveInScope(doc, report.Scope, tc.policy)
			require.NoError(t, err)
			assert.Equal(t, OutcomeResolved, resolved.Outcome)
			assert.Equal(t, 2, resolved.Additions)
			assert.Equal(t, 2, resolved.Removals)
			assert.Equal(t, tc.want, doc.String())
			assert.Equal(t, doc.All(), resolved.Scope)
		})
	}
}

func TestProofread_NothingToChange(t *testing.T) {
	doc := document.New("All good here.")
	before := doc.Identity()
	svc := NewService(returning("All good here."), Options{}, nil)

	report, err := svc.Proofread(context.Background(), doc, doc.All())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingToChange, report.Outcome)
	assert.Equal(t, "All good here.", doc.String())
	assert.Equal(t, before, doc.Identity())
}

func TestProofread_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{"blank", "  \n\t ", ErrEmptyScope},
		{"empty", "", ErrEmptyScope},
		{"pending addition", "a ==b== c", ErrPendingSuggestions},
		{"pending removal", "a ~~b~~ c", ErrPendingSuggestions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := document.New(tt.text)
			rev := returning("anything")
			svc := NewService(rev, Options{}, nil)

			_, err := svc.Proofread(context.Background(), doc, doc.All())
			require.ErrorIs(t, err, tt.wantErr)
			assert.NotEmpty(t, health.HumanMessage(err))
			assert.Equal(t, 0, rev.calls)
			assert.Equal(t, tt.text, doc.String())
		})
	}
}

func TestProofread_RevisionFailed(t *testing.T) {
	doc := document.New("Teh cat.")
	rev := &fakeReviser{revise: func(ctx context.Context, original string) (revise.Revision, error) {
		return revise.Revision{}, llmcomplete.ErrRetryable
	}}
	svc := NewService(rev, Options{}, nil)

	_, err := svc.Proofread(context.Background(), doc, doc.All())
	require.ErrorIs(t, err, ErrRevisionFailed)
	assert.ErrorIs(t, err, llmcomplete.ErrRetryable)
	assert.Equal(t, "Teh cat.", doc.String())

	var human *health.HumanErr
	assert.True(t, errors.As(err, &human))
}

func TestProofread_MarkerCharactersNextToChanges(t *testing.T) {
	original := "It takes about ~5 minutes, so x= y."
	revised := "It takes about 5 minutes, so x=z y."

	for _, tc := range []struct {
		policy suggest.Policy
		want   string
	}{
		{suggest.Accept, revised},
		{suggest.Reject, original},
	} {
		t.Run(tc.policy.String(), func(t *testing.T) {
			doc := document.New(original)
			svc := NewService(returning(revised), Options{}, nil)

			_, err := svc.Proofread(context.Background(), doc, doc.All())
			require.NoError(t, err)

			_, err = svc.ResolveInScope(doc, doc.All(), tc.policy)
			require.NoError(t, err)
			assert.Equal(t, tc.want, doc.String())
		})
	}
}

func TestProofread_UnencodableChangeIsNotWritten(t *testing.T) {
	doc := document.New("Done ~")
	svc := NewService(returning("Done"), Options{}, nil)

	_, err := svc.Proofread(context.Background(), doc, doc.All())
	require.ErrorIs(t, err, ErrRevisionFailed)
	assert.ErrorIs(t, err, suggest.ErrLossyEncoding)
	assert.Equal(t, "Done ~", doc.String())

	var human *health.HumanErr
	require.True(t, errors.As(err, &human))
	assert.Contains(t, human.HumanMessage, "Proofreading failed")
}

func TestProofread_StaleDocument(t *testing.T) {
	doc := document.New("Teh cat.")
	rev := &fakeReviser{revise: func(ctx context.Context, original string) (revise.Revision, error) {
		require.NoError(t, doc.Replace(document.Scope{}, "Edited. "))
		return revise.Revision{Text: "The cat."}, nil
	}}
	svc := NewService(rev, Options{}, nil)

	_, err := svc.Proofread(context.Background(), doc, doc.All())
	require.ErrorIs(t, err, ErrStaleDocument)
	assert.Equal(t, "Edited. Teh cat.", doc.String())
}

func TestProofread_Truncated(t *testing.T) {
	original := "Teh cat sat. The dog ran far away."
	doc := document.New(original)
	rev := &fakeReviser{revise: func(ctx context.Context, _ string) (revise.Revision, error) {
		return revise.Revision{Text: "The cat sat. The dog", Truncated: true}, nil
	}}
	svc := NewService(rev, Options{}, nil)

	report, err := svc.Proofread(context.Background(), doc, doc.All())
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Equal(t, OutcomeSuggested, report.Outcome)

	got := doc.String()
	require.Equal(t, 1, strings.Count(got, suggest.DefaultTruncationNote))
	assert.True(t, strings.HasSuffix(got, suggest.DefaultTruncationNote+" ran far away."))

	_, err = svc.ResolveInScope(doc, doc.All(), suggest.Reject)
	require.NoError(t, err)
	assert.Equal(t, original, strings.Replace(doc.String(), suggest.DefaultTruncationNote, "", 1))
}

func TestProofread_TruncationNoteOption(t *testing.T) {
	doc := document.New("one two three")
	rev := &fakeReviser{revise: func(ctx context.Context, _ string) (revise.Revision, error) {
		return revise.Revision{Text: "one two", Truncated: true}, nil
	}}
	svc := NewService(rev, Options{TruncationNote: "[cut]"}, nil)

	_, err := svc.Proofread(context.Background(), doc, doc.All())
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "[cut]")
	assert.NotContains(t, doc.String(), suggest.DefaultTruncationNote)
}

func TestProofread_PreserveQuotes(t *testing.T) {
	original := `He said "fix this".`
	doc := document.New(original)
	svc := NewService(returning(`He said "correct this".`), Options{PreserveQuotes: true}, nil)

	report, err := svc.Proofread(context.Background(), doc, doc.All())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingToChange, report.Outcome)
	assert.Equal(t, original, doc.String())
}

func TestProofread_ScopeIsNotWidened(t *testing.T) {
	doc := document.New("Para one teh.\n\nPara two teh.")
	rev := &fakeReviser{revise: func(ctx context.Context, original string) (revise.Revision, error) {
		assert.Equal(t, "Para one teh.", original)
		return revise.Revision{Text: "Para one the."}, nil
	}}
	svc := NewService(rev, Options{}, nil)

	scope := document.Scope{From: 0, To: len("Para one teh.")}
	report, err := svc.Proofread(context.Background(), doc, scope)
	require.NoError(t, err)

	got := doc.String()
	assert.True(t, strings.HasSuffix(got, "\n\nPara two teh."))
	assert.Equal(t, strings.TrimSuffix(got, "\n\nPara two teh."), got[report.Scope.From:report.Scope.To])

	_, err = svc.ResolveInScope(doc, report.Scope, suggest.Accept)
	require.NoError(t, err)
	assert.Equal(t, "Para one the.\n\nPara two teh.", doc.String())
}

func TestProofread_CustomMarkers(t *testing.T) {
	m := suggest.Markers{AddOpen: "{+", AddClose: "+}", DelOpen: "{-", DelClose: "-}"}
	doc := document.New("Teh cat.")
	svc := NewService(returning("The cat."), Options{Markers: m}, nil)

	_, err := svc.Proofread(context.Background(), doc, doc.All())
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "{-")
	assert.Contains(t, doc.String(), "{+")
	assert.False(t, suggest.HasMarkers(doc.String(), suggest.DefaultMarkers()))

	_, err = svc.ResolveInScope(doc, doc.All(), suggest.Accept)
	require.NoError(t, err)
	assert.Equal(t, "The cat.", doc.String())
}

func TestResolveInScope_NothingOrMalformed(t *testing.T) {
	svc := NewService(returning(""), Options{}, nil)

	doc := document.New("plain text")
	report, err := svc.ResolveInScope(doc, doc.All(), suggest.Accept)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNothingToResolve, report.Outcome)

	doc = document.New("a ==b c")
	before := doc.Identity()
	_, err = svc.ResolveInScope(doc, doc.All(), suggest.Accept)
	require.ErrorIs(t, err, suggest.ErrMalformedMarkup)
	var malformed *suggest.MalformedError
	assert.True(t, errors.As(err, &malformed))
	assert.Equal(t, before, doc.Identity())
}

func TestResolveNext(t *testing.T) {
	const annotated = "~~Teh~~==The== cat ~~sat~~==sits==."

	t.Run("forward accept", func(t *testing.T) {
		doc := document.New(annotated)
		svc := NewService(returning(""), Options{}, nil)

		report, err := svc.ResolveNext(doc, 0, suggest.Accept, suggest.Forward)
		require.NoError(t, err)
		assert.Equal(t, suggest.Resolved, report.Outcome)
		assert.Equal(t, suggest.Removal, report.Region.Kind)
		assert.Equal(t, 0, report.Cursor)
		assert.Equal(t, "==The== cat ~~sat~~==sits==.", doc.String())

		report, err = svc.ResolveNext(doc, report.Cursor, suggest.Accept, suggest.Forward)
		require.NoError(t, err)
		assert.Equal(t, suggest.Addition, report.Region.Kind)
		assert.Equal(t, 3, report.Cursor)
		assert.Equal(t, "The cat ~~sat~~==sits==.", doc.String())
	})

	t.Run("forward until done", func(t *testing.T) {
		doc := document.New(annotated)
		svc := NewService(returning(""), Options{}, nil)

		cursor := 0
		for range 10 {
			report, err := svc.ResolveNext(doc, cursor, suggest.Accept, suggest.Forward)
			require.NoError(t, err)
			if report.Outcome == suggest.NothingToDo {
				break
			}
			cursor = report.Cursor
		}
		assert.Equal(t, "The cat sits.", doc.String())
	})

	t.Run("backward reject until done", func(t *testing.T) {
		doc := document.New(annotated)
		svc := NewService(returning(""), Options{}, nil)

		cursor := len(annotated)
		for range 10 {
			report, err := svc.ResolveNext(doc, cursor, suggest.Reject, suggest.Backward)
			require.NoError(t, err)
			if report.Outcome == suggest.NothingToDo {
				break
			}
			assert.Equal(t, report.Region.Start, report.Cursor)
			cursor = report.Cursor
		}
		assert.Equal(t, "Teh cat sat.", doc.String())
	})

	t.Run("nothing ahead", func(t *testing.T) {
		doc := document.New(annotated)
		before := doc.Identity()
		svc := NewService(returning(""), Options{}, nil)

		report, err := svc.ResolveNext(doc, len(annotated), suggest.Accept, suggest.Forward)
		require.NoError(t, err)
		assert.Equal(t, suggest.NothingToDo, report.Outcome)
		assert.Equal(t, len(annotated), report.Cursor)
		assert.Equal(t, before, doc.Identity())
	})
}

func TestProofread_WithLLMReviser(t *testing.T) {
	conv := llmcomplete.NewMockConversationalist(map[string]string{"teh cat": "The cat sat."})
	svc := NewService(revise.New(conv, revise.Options{}), Options{}, nil)

	doc := document.New("Teh cat sat.\n")
	report, err := svc.Proofread(context.Background(), doc, doc.All())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuggested, report.Outcome)
	assert.Greater(t, report.Usage.TotalTokens, 0)

	_, err = svc.ResolveInScope(doc, doc.All(), suggest.Accept)
	require.NoError(t, err)
	assert.Equal(t, "The cat sat.\n", doc.String())
}

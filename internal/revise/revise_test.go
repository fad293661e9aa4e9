package revise

import (
	"context"
	"testing"

	"github.com/codalotl/proofreader/internal/llmcomplete"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevise(t *testing.T) {
	mock := llmcomplete.NewMockConversationalistResponses(map[string]llmcomplete.MockResponse{
		"teh cat":     {Text: "  The cat sat.\n"},
		"long text":   {Text: "Long tex", StopReason: llmcomplete.StopReasonLength},
		"say nothing": {Text: "   "},
		"use markers": {Text: "The ==cat== sat."},
		"unreachable": {Err: llmcomplete.ErrRetryable},
	})
	r := New(mock, Options{})
	ctx := context.Background()

	t.Run("whitespace restored", func(t *testing.T) {
		rev, err := r.Revise(ctx, "\n\n  Teh cat sat.  \n")
		require.NoError(t, err)
		assert.Equal(t, "\n\n  The cat sat.  \n", rev.Text)
		assert.False(t, rev.Truncated)
		assert.Greater(t, rev.Usage.TotalTokens, 0)
	})

	t.Run("truncated", func(t *testing.T) {
		rev, err := r.Revise(ctx, "Long text here.")
		require.NoError(t, err)
		assert.True(t, rev.Truncated)
		assert.Equal(t, "Long tex", rev.Text)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := r.Revise(ctx, "say nothing")
		assert.ErrorIs(t, err, ErrEmptyRevision)
	})

	t.Run("markers in revision", func(t *testing.T) {
		_, err := r.Revise(ctx, "use markers")
		assert.ErrorIs(t, err, ErrMarkersInRevision)
	})

	t.Run("provider failure", func(t *testing.T) {
		_, err := r.Revise(ctx, "unreachable")
		assert.ErrorIs(t, err, llmcomplete.ErrRetryable)
	})

	t.Run("blank input skips the model", func(t *testing.T) {
		rev, err := r.Revise(ctx, " \n ")
		require.NoError(t, err)
		assert.Equal(t, " \n ", rev.Text)
	})
}

func TestRevise_StaticPrompt(t *testing.T) {
	var gotPrompt string
	r := New(promptSpy{onNew: func(p string) { gotPrompt = p }}, Options{StaticPrompt: "Fix spelling only."})
	_, err := r.Revise(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "Fix spelling only.", gotPrompt)

	r = New(promptSpy{onNew: func(p string) { gotPrompt = p }}, Options{})
	_, err = r.Revise(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, gotPrompt)
}

type promptSpy struct {
	onNew func(prompt string)
}

func (p promptSpy) NewConversation(modelID llmcomplete.ModelID, systemMessage string) llmcomplete.Conversation {
	p.onNew(systemMessage)
	return llmcomplete.NewMockConversation(modelID, systemMessage, map[string]string{"anything": "Anything."})
}

func TestOutputCap(t *testing.T) {
	r := New(nil, Options{MaxOutputTokens: 77})
	assert.Equal(t, 77, r.outputCap("gpt-4.1-nano", "hello world"))

	r = New(nil, Options{})
	assert.Equal(t, 2*2+reasoningHeadroom, r.outputCap("gpt-4.1-nano", "hello world"))

	require.NoError(t, llmcomplete.AddCustomModel("revise-test-tiny", llmcomplete.ProviderIDOpenAI, "gpt-4.1-nano", llmcomplete.ModelOverrides{MaxOutputTokens: 100}))
	assert.Equal(t, 100, r.outputCap("revise-test-tiny", "hello world"))
}

func TestSplitSpace(t *testing.T) {
	lead, core, trail := splitSpace("\n a b \t\n")
	assert.Equal(t, "\n ", lead)
	assert.Equal(t, "a b", core)
	assert.Equal(t, " \t\n", trail)

	lead, core, trail = splitSpace("   ")
	assert.Equal(t, "   ", lead)
	assert.Equal(t, "", core)
	assert.Equal(t, "", trail)
}

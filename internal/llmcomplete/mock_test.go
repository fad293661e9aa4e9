package llmcomplete

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockConversation(t *testing.T) {
	tests := []struct {
		name          string
		modelID       ModelID
		systemMessage string
		responses     map[string]string
		userMessage   string
		expectedError bool
		expectedReply string
	}{
		{
			name:          "basic response match",
			modelID:       ModelIDGPT5,
			systemMessage: "You are a helpful assistant",
			responses: map[string]string{
				"hello": "Hi there!",
			},
			userMessage:   "hello",
			expectedError: false,
			expectedReply: "Hi there!",
		},
		{
			name:          "case insensitive match",
			modelID:       ModelIDGPT5,
			systemMessage: "You are a helpful assistant",
			responses: map[string]string{
				"hello": "Hi there!",
			},
			userMessage:   "HELLO",
			expectedError: false,
			expectedReply: "Hi there!",
		},
		{
			name:          "no response match",
			modelID:       ModelIDGPT5,
			systemMessage: "You are a helpful assistant",
			responses: map[string]string{
				"hello": "Hi there!",
			},
			userMessage:   "goodbye",
			expectedError: true,
			expectedReply: "",
		},
		{
			name:          "partial word match",
			modelID:       ModelIDGPT5,
			systemMessage: "You are a helpful assistant",
			responses: map[string]string{
				"hello": "Hi there!",
			},
			userMessage:   "hello world",
			expectedError: false,
			expectedReply: "Hi there!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewMockConversation(tt.modelID, tt.systemMessage, tt.responses)

			// Verify initial state
			messages := c.Messages()
			assert.Len(t, messages, 1)
			assert.Equal(t, RoleSystem, messages[0].Role)
			assert.Equal(t, tt.systemMessage, messages[0].Text)

			// Add user message
			c.AddUserMessage(tt.userMessage)

			// Send and check response
			response, err := c.Send(context.Background())
			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, response)
				lastError := c.LastError()
				assert.NotNil(t, lastError)
				assert.Contains(t, lastError.Message, tt.userMessage)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, response)
				assert.Equal(t, RoleAssistant, response.Role)
				assert.Equal(t, tt.expectedReply, response.Text)
			}
		})
	}
}

func TestNewMockConversationalist(t *testing.T) {
	tests := []struct {
		name          string
		responses     map[string]string
		modelID       ModelID
		systemMessage string
		userMessage   string
		expectedReply string
	}{
		{
			name:    "basic conversation creation",
			modelID: ModelIDGPT5,
			responses: map[string]string{
				"hello": "Hi there!",
			},
			systemMessage: "You are a helpful assistant",
			userMessage:   "hello",
			expectedReply: "Hi there!",
		},
		{
			name:          "empty responses",
			modelID:       ModelIDGPT5,
			responses:     map[string]string{},
			systemMessage: "You are a helpful assistant",
			userMessage:   "hello",
			expectedReply: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := NewMockConversationalist(tt.responses)
			assert.NotNil(t, conv)

			// Create a new c
			c := conv.NewConversation(tt.modelID, tt.systemMessage)
			assert.NotNil(t, c)

			// Add user message
			c.AddUserMessage(tt.userMessage)

			// Send and check response
			response, err := c.Send(context.Background())
			if tt.expectedReply == "" {
				assert.Error(t, err)
				assert.Nil(t, response)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, response)
				assert.Equal(t, RoleAssistant, response.Role)
				assert.Equal(t, tt.expectedReply, response.Text)
			}
		})
	}
}

func TestMockConversationResponses(t *testing.T) {
	failure := errors.New("boom")
	conv := NewMockConversationalistResponses(map[string]MockResponse{
		"proofread":      {Text: "short"},
		"proofread long": {Text: "cut off", StopReason: StopReasonLength},
		"fail":           {Err: failure},
	})

	c := conv.NewConversation(ModelIDGPT5Mini, "sys")
	c.AddUserMessage("please proofread long text")
	m, err := c.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cut off", m.Text)
	assert.True(t, m.ResponseMetadata.Truncated())
	assert.Equal(t, "gpt-5-mini", m.ResponseMetadata.Model)
	assert.Greater(t, m.ResponseMetadata.InputTokens, 0)
	if assert.Len(t, c.Usage(), 1) {
		assert.Greater(t, c.Usage()[0].Cost, 0.0)
	}

	c = conv.NewConversation(ModelIDGPT5Mini, "sys")
	c.AddUserMessage("please proofread")
	m, err = c.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopReasonStop, m.ResponseMetadata.StopReason)

	c = conv.NewConversation(ModelIDGPT5Mini, "sys")
	c.AddUserMessage("fail now")
	_, err = c.Send(context.Background())
	assert.ErrorIs(t, err, failure)
	require.NotNil(t, c.LastError())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c = conv.NewConversation(ModelIDGPT5Mini, "sys")
	c.AddUserMessage("please proofread")
	_, err = c.Send(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package llmcomplete

import (
	"context"
	"fmt"
	"strings"
)

// MockResponse is a canned reply of a mock conversation.
type MockResponse struct {
	Text       string
	StopReason string // defaults to StopReasonStop
	Err        error  // if set, Send fails with Err
}

type mockConversation struct {
	conversation
	responses map[string]MockResponse
}

var _ Conversation = (*mockConversation)(nil) // ensure mockConversation is a Conversation

func textResponses(responses map[string]string) map[string]MockResponse {
	out := make(map[string]MockResponse, len(responses))
	for k, v := range responses {
		out[k] = MockResponse{Text: v}
	}
	return out
}

// NewMockConversation returns a mock conversation that replies with the value for any key contained in the user message.
func NewMockConversation(modelID ModelID, systemMessage string, responses map[string]string) Conversation {
	return newMockConversation(modelID, systemMessage, textResponses(responses))
}

func newMockConversation(modelID ModelID, systemMessage string, responses map[string]MockResponse) *mockConversation {
	return &mockConversation{
		conversation: conversation{
			model: modelOrDefault(modelID),
			messages: []*Message{
				{Role: RoleSystem, Text: systemMessage},
			},
		},
		responses: responses,
	}
}

// Send checks the last user message for any keyword in responses and returns the associated reply. If several keywords match, the longest wins.
func (c *mockConversation) Send(ctx context.Context) (*Message, error) {
	if err := c.checkSendable(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lastUserMessage := c.LastMessage()
	lastUserMessage.chosenModel = c.model.modelID

	lower := strings.ToLower(lastUserMessage.Text)
	bestKey, found := "", false
	for k := range c.responses {
		if strings.Contains(lower, strings.ToLower(k)) && (!found || len(k) > len(bestKey)) {
			bestKey, found = k, true
		}
	}
	if !found {
		err := fmt.Errorf("no mock response for %q", lastUserMessage.Text)
		lastUserMessage.Errors = append(lastUserMessage.Errors, &ResponseError{Error: err, Message: err.Error()})
		return nil, err
	}

	resp := c.responses[bestKey]
	if resp.Err != nil {
		lastUserMessage.Errors = append(lastUserMessage.Errors, &ResponseError{Error: resp.Err, Message: resp.Err.Error()})
		return nil, resp.Err
	}

	stop := resp.StopReason
	if stop == "" {
		stop = StopReasonStop
	}
	in, out := CountTokens(c.transcript()), CountTokens(resp.Text)
	m := &Message{
		Role: RoleAssistant,
		Text: resp.Text,
		ResponseMetadata: &ResponseMetadata{
			RequestID:    fmt.Sprintf("mock-%d", len(c.messages)),
			Model:        c.model.modelID,
			StopReason:   stop,
			InputTokens:  in,
			OutputTokens: out,
			TotalTokens:  in + out,
		},
	}
	c.messages = append(c.messages, m)
	return m, nil
}

func (c *mockConversation) transcript() string {
	var b strings.Builder
	for _, m := range c.messages {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}

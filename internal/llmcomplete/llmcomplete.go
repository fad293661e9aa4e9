// llmcomplete is a barebones package for LLM text completions against OpenAI-shaped chat completion APIs. It purposefully does NOT take advantage of each provider's
// special features. There is no tool support. It only does completions.
package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/codalotl/proofreader/internal/q/health"
)

type Conversation interface {
	LastMessage() *Message
	Messages() []*Message
	AddUserMessage(message string) *Message
	Send(ctx context.Context) (*Message, error)
	LastError() *ResponseError

	// SetMaxOutputTokens caps the tokens of each response. A response that hits the cap has ResponseMetadata.StopReason == StopReasonLength. 0 means the model's
	// default.
	SetMaxOutputTokens(n int)

	// Usage returns usage for all assistant messages.
	Usage() []Usage

	SetLogger(logger *slog.Logger)
}

// Stop reasons, as reported by the provider.
const (
	StopReasonStop   = "stop"
	StopReasonLength = "length" // the response was cut off by the output token cap
)

type conversation struct {
	model           model
	messages        []*Message
	maxOutputTokens int
	health.Ctx
}

type Role int

const (
	RoleUser Role = iota
	RoleSystem
	RoleAssistant
)

// String returns the string representation of the Role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleSystem:
		return "System"
	case RoleAssistant:
		return "Assistant"
	default:
		return "Unknown"
	}
}

type Message struct {
	Role             Role
	Text             string
	ResponseMetadata *ResponseMetadata // only set when Role=RoleAssistant
	Errors           []*ResponseError  // only set when Role=RoleUser AND the provider errored or rejected the request
	chosenModel      string            // when Role=RoleUser, the actual model chosen to send this user message
}

type ResponseError struct {
	Error      error // actual error we get from the client library when creating a completion request
	StatusCode int   // HTTP status code
	Message    string
	RateLimits
}

type ResponseMetadata struct {
	RequestID  string // ex: "chatcmpl-BXYJ0U9PpC3uDzeoP2ZN1nBthfnpu"
	Model      string // ex: "gpt-5-mini-2025-08-07"
	StopReason string // ex: "stop" -- pass-through of the provider's finish reason

	TotalTokens     int
	InputTokens     int
	ReasoningTokens int
	OutputTokens    int // total output tokens (includes reasoning tokens)
	RateLimits
}

// Truncated reports whether the response was cut off by the output token cap.
func (md *ResponseMetadata) Truncated() bool {
	return md != nil && md.StopReason == StopReasonLength
}

type RateLimits struct {
	TokensLimit       int
	RequestsLimit     int
	TokensRemaining   int
	RequestsRemaining int
	TokensResetsAt    time.Time
	RequestsResetsAt  time.Time
}

// Usage captures token and cost information for an assistant message.
type Usage struct {
	Model           string
	TotalTokens     int
	InputTokens     int
	ReasoningTokens int
	OutputTokens    int
	Cost            float64
	RateLimits
}

// costPerMFor returns the pricing (per 1M tokens) for modelID. It tries an exact match, then a normalized ID (date suffix removed), then the conversation's
// configured model. ok=false if no pricing data is available.
func (c *conversation) costPerMFor(modelID string) (in float64, out float64, ok bool) {
	for _, id := range []string{modelID, normalizeModelForCost(modelID)} {
		for _, m := range availableModels {
			if m.modelID == id && m.costPer1MIn > 0 {
				return m.costPer1MIn, m.costPer1MOut, true
			}
		}
	}
	if c.model.costPer1MIn > 0 {
		return c.model.costPer1MIn, c.model.costPer1MOut, true
	}
	return 0, 0, false
}

func NewConversation(modelID ModelID, systemMessage string) Conversation {
	model, _ := getModelByID(modelID) // NOTE: may be invalid model
	return &conversation{
		model: model,
		messages: []*Message{
			{Role: RoleSystem, Text: systemMessage},
		},
		Ctx: health.NewCtx(slog.New(slog.DiscardHandler)),
	}
}

// ErrRetryable marks an error as retryable by the caller.
var ErrRetryable = errors.New("llmcomplete: retryable")

func makeRetryable(err error) error { return fmt.Errorf("%w: %w", ErrRetryable, err) }
func isRetryable(err error) bool    { return errors.Is(err, ErrRetryable) }

// retrySleepDurations' i'th index is the sleep duration for the i'th retry. Any retry after that would use the last value.
//
// This is meant to mix exponential backoff, an eager initial retry, keeping sleep times long enough that things might recover but short enough that the user doesn't
// think things hung.
var retrySleepDurations = []time.Duration{
	10 * time.Millisecond,
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	10 * time.Second,
}

func (c *conversation) Messages() []*Message {
	return c.messages
}

func (c *conversation) LastMessage() *Message {
	return c.messages[len(c.messages)-1]
}

func (c *conversation) AddUserMessage(message string) *Message {
	m := &Message{
		Role: RoleUser,
		Text: message,
	}
	c.messages = append(c.messages, m)
	return m
}

func (c *conversation) SetMaxOutputTokens(n int) {
	c.maxOutputTokens = n
}

// checkSendable validates the message sequence before a send.
func (c *conversation) checkSendable() error {
	if len(c.messages) < 2 {
		return errors.New("in order to send, the Conversation must contain a system and user message")
	}
	if c.messages[0].Role != RoleSystem {
		return errors.New("in order to send, the first message in the Conversation must be a system message")
	}
	if c.LastMessage().Role != RoleUser {
		return errors.New("in order to send, the last message in the Conversation must be a user message")
	}
	return nil
}

// Send sends the conversation to the model to get a RoleAssistant response message. The last message in Messages MUST be a UserMessage. If the request errors out,
// an error is returned. Additionally, the last UserMessage will contain details in a ResponseError struct.
//
// Retryable failures (rate limits, 5xx, network errors) are retried a few times; if they persist, the returned error wraps ErrRetryable.
func (c *conversation) Send(ctx context.Context) (*Message, error) {
	if c.model == (model{}) {
		return nil, c.LogNewErr("conversation.Send: invalid model")
	}
	if findProvider(c.model.providerID) == nil {
		return nil, c.LogNewErr("conversation.Send: no provider record", "providerID", c.model.providerID)
	}
	if err := c.checkSendable(); err != nil {
		return nil, c.LogErr(err)
	}
	lastUserMessage := c.LastMessage()

	// Log messages since the last assistant response.
	startIdx := 0
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			startIdx = i + 1
			break
		}
	}
	for i := startIdx; i < len(c.messages); i++ {
		m := c.messages[i]
		c.Log("conversation.message", "model", c.model.id, "role", m.Role, "bytes", len(m.Text), "toks", tokenEstimate(len(m.Text)), "multiline", m.Text)
	}

	var newMessage *Message
	var err error

	const retryMaxAttempts = 3

	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		newMessage, err = c.sendOpenAI(ctx)
		if err == nil {
			break
		}

		if isRetryable(err) && attempt < retryMaxAttempts && ctx.Err() == nil {
			sleep := retrySleepDurations[len(retrySleepDurations)-1]
			if (attempt - 1) < len(retrySleepDurations) {
				sleep = retrySleepDurations[attempt-1]
			}

			c.Log("conversation.retry", "attempt", attempt, "max", retryMaxAttempts, "sleep", sleep, "err", err.Error())
			select {
			case <-time.After(sleep):
			case <-ctx.Done():
			}
			continue
		}

		// Not retryable or out of attempts
		break
	}

	if err != nil {
		return newMessage, c.LogWrappedErr("conversation.send", err)
	}

	c.Log("conversation.response", "role", newMessage.Role, "bytes", len(newMessage.Text), "chosenModel", lastUserMessage.chosenModel, "stopReason", newMessage.ResponseMetadata.StopReason, "multiline", newMessage.Text)
	usages := c.Usage()
	c.Log("conversation.usage", usages[len(usages)-1].LogPairs()...)

	return newMessage, nil
}

// Returns nil if the last message isn't a User message with an error. Otherwise, returns the last element in Errors.
func (c *conversation) LastError() *ResponseError {
	lastMsg := c.LastMessage()
	if lastMsg.Role == RoleUser && len(lastMsg.Errors) > 0 {
		return lastMsg.Errors[len(lastMsg.Errors)-1]
	}
	return nil
}

func (c *conversation) Usage() []Usage {
	var usages []Usage
	for _, m := range c.messages {
		if m.Role != RoleAssistant || m.ResponseMetadata == nil {
			continue
		}

		responseMetadata := m.ResponseMetadata
		u := Usage{
			Model:           responseMetadata.Model,
			TotalTokens:     responseMetadata.TotalTokens,
			InputTokens:     responseMetadata.InputTokens,
			ReasoningTokens: responseMetadata.ReasoningTokens,
			OutputTokens:    responseMetadata.OutputTokens,
			RateLimits:      responseMetadata.RateLimits,
		}

		inPerM, outPerM, ok := c.costPerMFor(responseMetadata.Model)
		if ok {
			u.Cost = float64(u.InputTokens)*(inPerM/1e6) + float64(u.OutputTokens)*(outPerM/1e6)
		} else {
			c.Log("conversation.usage: no model cost", "model", responseMetadata.Model)
		}

		usages = append(usages, u)
	}
	return usages
}

func (u Usage) String() string {
	return fmt.Sprintf("model=%s tokens=%d in=%d reasoning=%d out=%d cost=$%.4f token_limits= %d/%d request_limits=%d/%d",
		u.Model, u.TotalTokens, u.InputTokens, u.ReasoningTokens, u.OutputTokens, u.Cost,
		u.RateLimits.TokensRemaining, u.RateLimits.TokensLimit, u.RateLimits.RequestsRemaining, u.RateLimits.RequestsLimit)
}

// LogPairs returns an even number of elements, string and value, for use in slog's logging.
func (u Usage) LogPairs() []any {
	return []any{
		"model", u.Model,
		"tokens", u.TotalTokens,
		"in", u.InputTokens,
		"reasoning", u.ReasoningTokens,
		"out", u.OutputTokens,
		"cost", u.Cost,
		"token_limits", fmt.Sprintf("%d/%d", u.RateLimits.TokensRemaining, u.RateLimits.TokensLimit),
		"request_limits", fmt.Sprintf("%d/%d", u.RateLimits.RequestsRemaining, u.RateLimits.RequestsLimit),
	}
}

// TotalUsage sums usages. Model and RateLimits come from the last element.
func TotalUsage(usages []Usage) Usage {
	var total Usage
	for _, u := range usages {
		total.TotalTokens += u.TotalTokens
		total.InputTokens += u.InputTokens
		total.ReasoningTokens += u.ReasoningTokens
		total.OutputTokens += u.OutputTokens
		total.Cost += u.Cost
	}
	if len(usages) > 0 {
		total.Model = usages[len(usages)-1].Model
		total.RateLimits = usages[len(usages)-1].RateLimits
	}
	return total
}

// PrintTotalUsage prints a compact summary of the total usage slice to w. If the slice is empty, "usage: none" is printed.
func PrintTotalUsage(w io.Writer, usages []Usage) {
	if len(usages) == 0 {
		fmt.Fprintln(w, "usage: none")
		return
	}
	fmt.Fprintln(w, "usage:", TotalUsage(usages))
}

func (c *conversation) SetLogger(logger *slog.Logger) {
	c.Logger = logger
}

// English prose is approximately 4 bytes per token.
func tokenEstimate(byteCount int) int {
	return byteCount / 4
}

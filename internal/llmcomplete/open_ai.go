package llmcomplete

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

func getEnvWithPossibleDollar(key string) string {
	if key == "" {
		return ""
	}
	envVar := strings.TrimPrefix(key, "$")
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v
		}
	}
	return ""
}

// getClientOpenAI returns a client for provider, or nil if no API key can be found. Keys are resolved in order: the override's key, the override's env var,
// a key set with ConfigureProviderKey, the provider's env var, and finally OPENAI_API_KEY.
func getClientOpenAI(provider *providerInfo, overrides ModelOverrides) *openai.Client {
	apiKey := overrides.APIActualKey
	if apiKey == "" {
		apiKey = getEnvWithPossibleDollar(overrides.APIKeyEnv)
	}
	if apiKey == "" && provider != nil {
		apiKey = configuredProviderKeys[provider.id]
	}
	if apiKey == "" && provider != nil {
		apiKey = getEnvWithPossibleDollar(provider.apiKeyEnv)
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil
	}

	// Endpoint: override, then provider's env, then provider's URL.
	baseURL := overrides.APIEndpointURL
	if baseURL == "" && provider != nil {
		baseURL = getEnvWithPossibleDollar(provider.endpointEnv)
	}
	if baseURL == "" && provider != nil {
		baseURL = provider.endpoint
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &client
}

func setRateLimitsFromHeaders(rateLimits *RateLimits, headers http.Header) {
	if rateLimits == nil || headers == nil {
		return
	}

	rateLimits.TokensLimit = parseRateLimitInt(headers.Get("x-ratelimit-limit-tokens"))
	rateLimits.RequestsLimit = parseRateLimitInt(headers.Get("x-ratelimit-limit-requests"))
	rateLimits.TokensRemaining = parseRateLimitInt(headers.Get("x-ratelimit-remaining-tokens"))
	rateLimits.RequestsRemaining = parseRateLimitInt(headers.Get("x-ratelimit-remaining-requests"))
	rateLimits.TokensResetsAt = parseRateLimitReset(headers.Get("x-ratelimit-reset-tokens"))
	rateLimits.RequestsResetsAt = parseRateLimitReset(headers.Get("x-ratelimit-reset-requests"))
}

func parseRateLimitInt(val string) int {
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return n
}

func parseRateLimitReset(val string) time.Time {
	if val == "" {
		return time.Now()
	}
	if d, err := time.ParseDuration(val); err == nil {
		return time.Now().Add(d)
	}
	// Fall back to now when the header is present but not a valid duration.
	return time.Now()
}

func (c *conversation) sendOpenAI(ctx context.Context) (*Message, error) {
	provider := findProvider(c.model.providerID)
	if provider == nil {
		return nil, fmt.Errorf("sendOpenAI: no provider")
	}
	client := getClientOpenAI(provider, c.model.ModelOverrides)
	if client == nil {
		return nil, fmt.Errorf("could not get client; likely no API key")
	}

	lastUserMessage := c.LastMessage()

	if lastUserMessage.chosenModel == "" {
		lastUserMessage.chosenModel = c.model.modelID
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(c.messages))
	for _, msg := range c.messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Text))
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Text))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Text))
		default:
			return nil, fmt.Errorf("sendOpenAI: unsupported role %s", msg.Role.String())
		}
	}

	request := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(lastUserMessage.chosenModel),
		Messages: messages,
	}

	if c.model.ReasoningEffort != "" {
		request.ReasoningEffort = openai.ReasoningEffort(c.model.ReasoningEffort)
	}

	maxTokens := c.maxOutputTokens
	if maxTokens <= 0 {
		maxTokens = c.model.MaxOutputTokens
	}
	if maxTokens > 0 {
		request.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}

	var httpResp *http.Response
	resp, err := client.Chat.Completions.New(ctx, request, option.WithResponseInto(&httpResp))
	if err == nil {
		if resp == nil {
			return nil, fmt.Errorf("chat completion response is nil")
		}
		if len(resp.Choices) != 1 {
			return nil, fmt.Errorf("unexpected choices length: %d", len(resp.Choices))
		}

		choice := resp.Choices[0]
		if role := string(choice.Message.Role); role != "assistant" {
			return nil, fmt.Errorf("unexpected role of last message: %s", role)
		}

		text := choice.Message.Content
		if text == "" {
			text = choice.Message.Refusal
		}
		message := &Message{
			Role: RoleAssistant,
			Text: text,
		}

		responseMetadata := &ResponseMetadata{
			RequestID:    resp.ID,
			StopReason:   choice.FinishReason,
			Model:        resp.Model,
			TotalTokens:  int(resp.Usage.TotalTokens),
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		}

		if resp.Usage.JSON.CompletionTokensDetails.Valid() {
			responseMetadata.ReasoningTokens = int(resp.Usage.CompletionTokensDetails.ReasoningTokens)
		}

		if httpResp != nil {
			setRateLimitsFromHeaders(&responseMetadata.RateLimits, httpResp.Header)
		}

		message.ResponseMetadata = responseMetadata
		c.messages = append(c.messages, message)

		return message, nil
	}

	responseErr := &ResponseError{Error: err}
	if httpResp != nil {
		setRateLimitsFromHeaders(&responseErr.RateLimits, httpResp.Header)
	}
	lastUserMessage.Errors = append(lastUserMessage.Errors, responseErr)

	retErr := err
	switch e := err.(type) {
	case *openai.Error:
		responseErr.Message = e.Message
		responseErr.StatusCode = e.StatusCode
		if e.StatusCode == 429 || (e.StatusCode >= 500 && e.StatusCode <= 599) {
			retErr = makeRetryable(err)
		}
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			responseErr.Message = err.Error()
			retErr = makeRetryable(err)
		} else {
			responseErr.Message = err.Error()
		}
	}

	if responseErr.StatusCode == 0 && httpResp != nil {
		responseErr.StatusCode = httpResp.StatusCode
	}

	return nil, retErr
}

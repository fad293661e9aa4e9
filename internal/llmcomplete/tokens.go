package llmcomplete

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
	codecErr  error
)

// CountTokens returns the token count for text. All supported models use the o200k_base encoding. If the encoder is unavailable, it falls back to an estimate of
// 4 bytes per token.
func CountTokens(text string) int {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.O200kBase)
	})
	if codecErr != nil {
		return tokenEstimate(len(text))
	}

	count, err := codec.Count(text)
	if err != nil {
		return tokenEstimate(len(text))
	}
	return count
}

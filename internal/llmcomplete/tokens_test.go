package llmcomplete

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 2, CountTokens("hello world"))
	assert.Equal(t, 0, CountTokens(""))

	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50)
	n := CountTokens(long)
	assert.Greater(t, n, 400)
	assert.Less(t, n, 600)
}

package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", &ProviderError{Provider: "openai", StatusCode: 429})
	assert.Equal(t, 429, StatusCode(wrapped))
	assert.Equal(t, 0, StatusCode(errors.New("dial tcp: refused")))
	assert.Equal(t, 0, StatusCode(nil))
}

func TestProviderError_Message(t *testing.T) {
	err := &ProviderError{Provider: "ollama", StatusCode: 500, Body: "boom"}
	assert.Equal(t, "ollama: status 500: boom", err.Error())
}

func TestApplyOptions(t *testing.T) {
	o := Apply(Options{Temperature: 0.7, MaxTokens: 500}, WithMaxTokens(20), WithModel("m"))
	assert.Equal(t, 0.7, o.Temperature)
	assert.Equal(t, 20, o.MaxTokens)
	assert.Equal(t, "m", o.Model)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}

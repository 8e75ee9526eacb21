package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"arthik-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completion(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestChat_ReturnsFirstChoice(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("Index funds track a market index."))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", srv.URL, "gpt-4o", srv.Client())
	require.NoError(t, err)

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are Arthik.ai"},
		{Role: llm.RoleUser, Content: "What is an index fund?"},
	}, llm.WithMaxTokens(500))
	require.NoError(t, err)
	assert.Equal(t, "Index funds track a market index.", out)

	msgs, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
	assert.Equal(t, "gpt-4o", body["model"])
}

func TestChat_StatusCodesBecomeProviderErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusUnauthorized, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"x"}}`))
		}))

		p, err := NewOpenAIProvider("sk-test", srv.URL, "gpt-4o", srv.Client())
		require.NoError(t, err)
		_, err = p.Generate(context.Background(), "hi")
		srv.Close()

		require.Error(t, err)
		assert.Equal(t, status, llm.StatusCode(err), "status %d", status)
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider("", "", "gpt-4o", nil)
	assert.Error(t, err)
}

func TestMapError_TransportErrorHasNoStatus(t *testing.T) {
	p := &OpenAIProvider{}
	err := p.mapError(errors.New("dial tcp 127.0.0.1:1: connect: connection refused"))
	assert.Equal(t, 0, llm.StatusCode(err))

	assert.ErrorIs(t, p.mapError(context.DeadlineExceeded), context.DeadlineExceeded)
}

package static

import (
	"context"
	"testing"

	"arthik-chat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticProvider(t *testing.T) {
	out, err := NewStaticProvider("").Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "first"},
		{Role: llm.RoleAssistant, Content: "reply"},
		{Role: llm.RoleUser, Content: " second "},
	})
	require.NoError(t, err)
	assert.Equal(t, "You asked: second", out)

	out, err = NewStaticProvider("fixed").Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "fixed", out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewStaticProvider("fixed").Generate(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

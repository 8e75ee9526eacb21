package static

import (
	"context"
	"fmt"
	"strings"

	"arthik-chat-be/pkg/llm"
)

// StaticProvider answers without any network call. It backs local
// development and demos where no API key is configured.
type StaticProvider struct {
	reply string
}

var _ llm.LLMProvider = &StaticProvider{}

// NewStaticProvider returns reply for every call. An empty reply echoes the
// last user message.
func NewStaticProvider(reply string) *StaticProvider {
	return &StaticProvider{reply: reply}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.reply != "" {
		return p.reply, nil
	}
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser {
			return fmt.Sprintf("You asked: %s", strings.TrimSpace(history[i].Content)), nil
		}
	}
	return "", nil
}

func (p *StaticProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

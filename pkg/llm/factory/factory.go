package factory

import (
	"context"
	"fmt"
	"strings"

	"arthik-chat-be/pkg/llm"
	"arthik-chat-be/pkg/llm/gemini"
	"arthik-chat-be/pkg/llm/ollama"
	"arthik-chat-be/pkg/llm/openai"
	"arthik-chat-be/pkg/llm/static"
)

type ProviderConfig struct {
	Provider string
	Model    string
	ApiKey   string
	BaseURL  string
}

func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return openai.NewOpenAIProvider(cfg.ApiKey, cfg.BaseURL, cfg.Model, nil)
	case "gemini":
		model := cfg.Model
		if model == "" || strings.HasPrefix(model, "gpt-") {
			model = "gemini-2.5-flash"
		}
		return gemini.NewGeminiProvider(ctx, cfg.ApiKey, cfg.BaseURL, model)
	case "ollama":
		return ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model), nil
	case "static":
		return static.NewStaticProvider(""), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"arthik-chat-be/pkg/llm"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// langchaingo reports non-2xx answers as "API returned unexpected status code: 429: ...".
var statusPattern = regexp.MustCompile(`status code: (\d{3})`)

type OpenAIProvider struct {
	client *lcopenai.LLM
	model  string
}

var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider talks to the OpenAI chat completions API, or to any
// compatible server when baseURL is set.
func NewOpenAIProvider(apiKey, baseURL, model string, httpClient *http.Client) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	opts := []lcopenai.Option{
		lcopenai.WithToken(apiKey),
		lcopenai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, lcopenai.WithHTTPClient(httpClient))
	}

	client, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &OpenAIProvider{client: client, model: model}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Temperature: 0.7, Model: p.model}, options...)

	callOpts := []llms.CallOption{
		llms.WithModel(opts.Model),
		llms.WithTemperature(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	resp, err := p.client.GenerateContent(ctx, toMessageContent(history), callOpts...)
	if err != nil {
		return "", p.mapError(err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func toMessageContent(history []llm.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(history))
	for _, m := range history {
		var role llms.ChatMessageType
		switch m.Role {
		case llm.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case llm.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

func (p *OpenAIProvider) mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	match := statusPattern.FindStringSubmatch(err.Error())
	if match == nil {
		return fmt.Errorf("openai request failed: %w", err)
	}
	code, _ := strconv.Atoi(match[1])
	return &llm.ProviderError{
		Provider:   p.Name(),
		StatusCode: code,
		Body:       llm.Truncate(err.Error(), 300),
		Err:        err,
	}
}

package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/pkg/llm"
	"arthik-chat-be/pkg/tokenizer"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const moduleName = "Assistant"

// Adapter turns user input into assistant text. It never fails: provider
// problems come back as fallback text.
type Adapter interface {
	GenerateReply(ctx context.Context, req ReplyRequest) string
	GenerateTitle(ctx context.Context, firstMessage string) string
}

type ReplyRequest struct {
	SessionId string
	Content   string
	// UserMessageId is the already persisted message for this turn. It is
	// skipped when the context is rebuilt from history.
	UserMessageId string
}

// HistorySource supplies stored messages to rebuild a context after a
// restart or eviction.
type HistorySource interface {
	RecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error)
}

type Config struct {
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	ContextMaxSessions int
	ContextTTL         time.Duration
	ContextMaxTurns    int
	ContextMaxTokens   int
}

func DefaultConfig() Config {
	return Config{
		Temperature:        0.7,
		MaxTokens:          500,
		RequestTimeout:     30 * time.Second,
		MaxAttempts:        3,
		RetryBaseDelay:     time.Second,
		RetryMaxDelay:      8 * time.Second,
		RateLimitRPS:       5,
		RateLimitBurst:     10,
		ContextMaxSessions: 1000,
		ContextTTL:         time.Hour,
		ContextMaxTurns:    10,
		ContextMaxTokens:   3000,
	}
}

type Option func(*Assistant)

func WithHistorySource(h HistorySource) Option {
	return func(a *Assistant) { a.history = h }
}

func WithLogger(l logger.ILogger) Option {
	return func(a *Assistant) { a.logger = l }
}

func WithTokenizer(c tokenizer.Counter) Option {
	return func(a *Assistant) { a.counter = c }
}

func WithPrompts(p Prompts) Option {
	return func(a *Assistant) { a.prompts = p }
}

// WithSleep replaces the backoff wait. Tests use it to skip real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Assistant) { a.sleep = sleep }
}

type Assistant struct {
	provider llm.LLMProvider
	cfg      Config
	prompts  Prompts
	limiter  *rate.Limiter
	contexts *contextStore
	history  HistorySource
	counter  tokenizer.Counter
	logger   logger.ILogger
	tracer   trace.Tracer
	sleep    func(ctx context.Context, d time.Duration) error
}

var _ Adapter = (*Assistant)(nil)

func New(provider llm.LLMProvider, cfg Config, opts ...Option) *Assistant {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	a := &Assistant{
		provider: provider,
		cfg:      cfg,
		prompts:  DefaultPrompts(),
		limiter:  rate.NewLimiter(limit, burst),
		contexts: newContextStore(cfg.ContextMaxSessions, cfg.ContextTTL),
		counter:  tokenizer.EstimateCounter{},
		logger:   logger.NewNopLogger(),
		tracer:   otel.Tracer("arthik-chat-be/assistant"),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GenerateReply answers req.Content in the context of the session. The
// call is detached from the caller's cancellation so a dropped client does
// not lose the turn, and bounded by the request timeout instead.
func (a *Assistant) GenerateReply(ctx context.Context, req ReplyRequest) string {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.RequestTimeout)
	defer cancel()

	var sc *sessionContext
	var history []turn
	if req.SessionId != "" {
		sc = a.contexts.acquire(req.SessionId)
		sc.mu.Lock()
		if !sc.loaded {
			sc.turns = a.rehydrate(ctx, req)
			sc.loaded = true
		}
		history = sc.snapshot()
		sc.mu.Unlock()
	}

	messages := a.buildMessages(history, req.Content)

	text, err := a.chatWithRetry(ctx, req.SessionId, messages,
		llm.WithTemperature(a.cfg.Temperature),
		llm.WithMaxTokens(a.cfg.MaxTokens),
	)
	if err != nil {
		kind := classify(err)
		a.logger.Warn(moduleName, "Provider call failed, using fallback", map[string]interface{}{
			"session_id": req.SessionId,
			"provider":   a.provider.Name(),
			"kind":       string(kind),
			"status":     llm.StatusCode(err),
			"error":      err.Error(),
		})
		return FallbackText(kind, req.Content)
	}

	if strings.TrimSpace(text) == "" {
		a.logger.Warn(moduleName, "Provider returned empty reply", map[string]interface{}{
			"session_id": req.SessionId,
		})
		return EmptyReplyText
	}

	if sc != nil {
		sc.mu.Lock()
		sc.record(turn{User: req.Content, Assistant: text}, a.cfg.ContextMaxTurns)
		sc.mu.Unlock()
	}
	return text
}

// GenerateTitle asks the model for a short label. Any failure gives the
// default title.
func (a *Assistant) GenerateTitle(ctx context.Context, firstMessage string) string {
	if strings.TrimSpace(firstMessage) == "" {
		return constant.DefaultChatTitle
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.RequestTimeout)
	defer cancel()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: a.prompts.Title},
		{Role: llm.RoleUser, Content: firstMessage},
	}

	if err := a.wait(ctx); err != nil {
		return constant.DefaultChatTitle
	}
	text, err := a.attempt(ctx, "", 0, messages, llm.WithTemperature(0.5), llm.WithMaxTokens(20))
	if err != nil {
		a.logger.Warn(moduleName, "Title generation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return constant.DefaultChatTitle
	}
	return cleanTitle(text)
}

func (a *Assistant) buildMessages(history []turn, content string) []llm.Message {
	system := llm.Message{Role: llm.RoleSystem, Content: a.prompts.System}
	user := llm.Message{Role: llm.RoleUser, Content: content}

	if a.cfg.ContextMaxTurns > 0 && len(history) > a.cfg.ContextMaxTurns {
		history = history[len(history)-a.cfg.ContextMaxTurns:]
	}

	if a.cfg.ContextMaxTokens > 0 {
		used := tokenizer.CountMessages(a.counter, system.Content, user.Content)
		keep := 0
		for i := len(history) - 1; i >= 0; i-- {
			cost := tokenizer.CountMessages(a.counter, history[i].User, history[i].Assistant)
			if used+cost > a.cfg.ContextMaxTokens {
				break
			}
			used += cost
			keep++
		}
		history = history[len(history)-keep:]
	}

	messages := make([]llm.Message, 0, 2+2*len(history))
	messages = append(messages, system)
	for _, t := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: t.User},
			llm.Message{Role: llm.RoleAssistant, Content: t.Assistant},
		)
	}
	return append(messages, user)
}

// rehydrate rebuilds turns from stored messages. Fallback replies and
// unanswered questions are dropped.
func (a *Assistant) rehydrate(ctx context.Context, req ReplyRequest) []turn {
	if a.history == nil {
		return nil
	}
	limit := 2*a.cfg.ContextMaxTurns + 1
	if a.cfg.ContextMaxTurns <= 0 {
		limit = 2*constant.HistoryContextMax + 1
	}

	stored, err := a.history.RecentMessages(ctx, req.SessionId, limit)
	if err != nil {
		a.logger.Warn(moduleName, "Could not load history for context", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
		return nil
	}

	var (
		turns   []turn
		pending *string
	)
	for _, m := range stored {
		if m.Id == req.UserMessageId {
			continue
		}
		switch m.Role {
		case constant.ChatMessageRoleUser:
			content := m.Content
			pending = &content
		case constant.ChatMessageRoleAssistant:
			if pending != nil && !IsFallback(m.Content) {
				turns = append(turns, turn{User: *pending, Assistant: m.Content})
			}
			pending = nil
		}
	}
	if a.cfg.ContextMaxTurns > 0 && len(turns) > a.cfg.ContextMaxTurns {
		turns = turns[len(turns)-a.cfg.ContextMaxTurns:]
	}
	return turns
}

func (a *Assistant) chatWithRetry(ctx context.Context, sessionId string, messages []llm.Message, opts ...llm.Option) (string, error) {
	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := a.backoff(attempt - 1)
			a.logger.Info(moduleName, "Retrying provider call", map[string]interface{}{
				"session_id": sessionId,
				"attempt":    attempt + 1,
				"delay_ms":   delay.Milliseconds(),
			})
			if err := a.sleep(ctx, delay); err != nil {
				return "", errors.Join(err, lastErr)
			}
		}

		if err := a.wait(ctx); err != nil {
			return "", errors.Join(err, lastErr)
		}

		text, err := a.attempt(ctx, sessionId, attempt, messages, opts...)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func (a *Assistant) attempt(ctx context.Context, sessionId string, attempt int, messages []llm.Message, opts ...llm.Option) (string, error) {
	ctx, span := a.tracer.Start(ctx, "llm.chat", trace.WithAttributes(
		attribute.String("llm.provider", a.provider.Name()),
		attribute.Int("llm.attempt", attempt+1),
		attribute.Int("llm.messages", len(messages)),
		attribute.String("chat.session_id", sessionId),
	))
	defer span.End()

	text, err := a.provider.Chat(ctx, messages, opts...)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", ctx.Err(), err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := llm.StatusCode(err); code != 0 {
			span.SetAttributes(attribute.Int("http.status_code", code))
		}
		return "", err
	}
	return text, nil
}

// wait blocks on the outbound rate limiter. Running out of time while
// queued counts as a timeout.
func (a *Assistant) wait(ctx context.Context) error {
	if err := a.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

// maxBackoff caps retry delays when RetryMaxDelay is unset.
const maxBackoff = 30 * time.Second

func (a *Assistant) backoff(retry int) time.Duration {
	limit := a.cfg.RetryMaxDelay
	if limit <= 0 {
		limit = maxBackoff
	}
	delay := a.cfg.RetryBaseDelay
	for i := 0; i < retry && delay < limit; i++ {
		delay *= 2
	}
	if delay > limit {
		delay = limit
	}
	return delay
}

// retryable is true for overload answers and for transport failures that
// were not caused by our own deadline.
func retryable(err error) bool {
	switch llm.StatusCode(err) {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	case 0:
		return !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled)
	default:
		return false
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

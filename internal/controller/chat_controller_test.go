package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/dto"
	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/internal/pkg/serverutils"
	"arthik-chat-be/internal/repository/memory"
	"arthik-chat-be/internal/repository/unitofwork"
	"arthik-chat-be/internal/service"
	"arthik-chat-be/pkg/assistant"
	"arthik-chat-be/pkg/llm"
	"arthik-chat-be/pkg/llm/static"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type outageProvider struct{}

func (outageProvider) Name() string { return "outage" }

func (outageProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", &llm.ProviderError{Provider: "outage", StatusCode: 503, Body: "unavailable"}
}

func (p outageProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, nil, options...)
}

func newTestApp(t *testing.T, provider llm.LLMProvider, authMode string) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()

	store := memory.NewStore()
	factory := unitofwork.NewStaticRepositoryFactory(
		memory.NewChatSessionRepository(store),
		memory.NewChatMessageRepository(store),
	)
	sessions := service.NewSessionService(factory, nil)

	cfg := assistant.DefaultConfig()
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = time.Millisecond
	cfg.RateLimitRPS = 0
	adapter := assistant.New(provider, cfg, assistant.WithHistorySource(sessions), assistant.WithLogger(log))

	chat := service.NewChatService(sessions, adapter, nil, nil, constant.TitleStrategyContent, log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.NewErrorHandler(log)})
	NewHealthController("test").RegisterRoutes(app)
	NewChatController(chat, nil, authMode, "secret", log).RegisterRoutes(app)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	res, err := app.Test(req, 5000)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		raw, err := io.ReadAll(res.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return res.StatusCode
}

func TestChatAPI_MessageRoundTrip(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("Consider a broad index fund."), constant.AuthModeOff)

	var sent dto.SendMessageResponse
	status := doJSON(t, app, http.MethodPost, "/api/chat/message",
		map[string]string{"sessionId": "session-1", "content": "Where do I start?"}, &sent)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Where do I start?", sent.UserMessage.Content)
	assert.Equal(t, "Consider a broad index fund.", sent.AiMessage.Content)

	var messages []dto.ChatMessageResponse
	status = doJSON(t, app, http.MethodGet, "/api/chat/sessions/session-1/messages", nil, &messages)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, messages, 2)
	assert.Equal(t, sent.UserMessage.Id, messages[0].Id)
	assert.Equal(t, sent.AiMessage.Id, messages[1].Id)
	assert.Equal(t, "user", messages[0].Role)
}

func TestChatAPI_WhitespaceContentRejected(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("unused"), constant.AuthModeOff)

	var body serverutils.ErrorBody
	status := doJSON(t, app, http.MethodPost, "/api/chat/message",
		map[string]string{"sessionId": "s1", "content": "   \n "}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotEmpty(t, body.Errors)
	assert.Equal(t, "content", body.Errors[0].Field)

	var messages []dto.ChatMessageResponse
	doJSON(t, app, http.MethodGet, "/api/chat/sessions/s1/messages", nil, &messages)
	assert.Empty(t, messages)
}

func TestChatAPI_ProviderOutageStillAnswers(t *testing.T) {
	app := newTestApp(t, outageProvider{}, constant.AuthModeOff)

	var sent dto.SendMessageResponse
	status := doJSON(t, app, http.MethodPost, "/api/chat/message",
		map[string]string{"sessionId": "s1", "content": "Is the market open?"}, &sent)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, assistant.GenericFailureText, sent.AiMessage.Content)

	var messages []dto.ChatMessageResponse
	doJSON(t, app, http.MethodGet, "/api/chat/sessions/s1/messages", nil, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, sent.AiMessage.Content, messages[1].Content)
}

func TestChatAPI_SessionOrderingFollowsActivity(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("ok"), constant.AuthModeOff)

	var s1, s2 dto.ChatSessionResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPost, "/api/chat/sessions", map[string]string{"title": "S1"}, &s1))
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPost, "/api/chat/sessions", map[string]string{"title": "S2"}, &s2))

	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPost, "/api/chat/message",
		map[string]string{"sessionId": s1.Id, "content": "bump"}, nil))

	var sessions []dto.ChatSessionResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/chat/sessions", nil, &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, s1.Id, sessions[0].Id)
	assert.Equal(t, s2.Id, sessions[1].Id)
	assert.True(t, sessions[0].UpdatedAt.After(sessions[1].UpdatedAt))
}

func TestChatAPI_CreateSessionValidatesTitle(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("ok"), constant.AuthModeOff)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/chat/sessions", map[string]string{"title": ""}, nil))
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	assert.Equal(t, http.StatusBadRequest, doJSON(t, app, http.MethodPost, "/api/chat/sessions", map[string]string{"title": string(long)}, nil))
}

func TestChatAPI_QuickMessageCreatesOneSession(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("Broad market ETFs are a common start."), constant.AuthModeOff)

	var quick dto.QuickMessageResponse
	status := doJSON(t, app, http.MethodPost, "/api/chat/quick-message", map[string]string{"content": "What are good ETFs?"}, &quick)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "What are good ETFs?", quick.Session.Title)
	assert.Equal(t, quick.Session.Id, quick.UserMessage.SessionId)
	assert.Equal(t, quick.Session.Id, quick.AiMessage.SessionId)

	var sessions []dto.ChatSessionResponse
	doJSON(t, app, http.MethodGet, "/api/chat/sessions", nil, &sessions)
	assert.Len(t, sessions, 1)
}

func TestChatAPI_ConcurrentAppendsAllPersistInOrder(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider(""), constant.AuthModeOff)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doJSON(t, app, http.MethodPost, "/api/chat/message",
				map[string]string{"sessionId": "busy", "content": fmt.Sprintf("question %d", i)}, nil)
		}(i)
	}
	wg.Wait()

	var messages []dto.ChatMessageResponse
	doJSON(t, app, http.MethodGet, "/api/chat/sessions/busy/messages", nil, &messages)
	require.Len(t, messages, 16)
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestChatAPI_AuthRequired(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("ok"), constant.AuthModeRequired)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, app, http.MethodGet, "/api/chat/sessions", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, app, http.MethodGet, "/api/chat/history", nil, nil))
}

func TestChatAPI_HistoryFallsBackToSessions(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("ok"), constant.AuthModeOff)

	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodPost, "/api/chat/message",
		map[string]string{"sessionId": "h1", "content": "Dividend stocks?"}, nil))

	var history []dto.HistoryEntryResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/api/chat/history", nil, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "h1", history[0].SessionId)
	assert.Equal(t, "Dividend stocks?", history[0].Title)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, static.NewStaticProvider("ok"), constant.AuthModeOff)

	var health dto.HealthResponse
	require.Equal(t, http.StatusOK, doJSON(t, app, http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.NotEmpty(t, health.Timestamp)
}

package service

import (
	"context"
	"strings"

	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/dto"
	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/pkg/apperror"
	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/pkg/assistant"
	"arthik-chat-be/pkg/events"
	"arthik-chat-be/pkg/historysync"
)

const historyLimit = 50

type IChatService interface {
	ListSessions(ctx context.Context, ownerId string) ([]*dto.ChatSessionResponse, error)
	CreateSession(ctx context.Context, ownerId string, req *dto.CreateSessionRequest) (*dto.ChatSessionResponse, error)
	ListMessages(ctx context.Context, ownerId string, sessionId string) ([]*dto.ChatMessageResponse, error)
	SendMessage(ctx context.Context, ownerId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	QuickMessage(ctx context.Context, ownerId string, req *dto.QuickMessageRequest) (*dto.QuickMessageResponse, error)
	GetHistory(ctx context.Context, ownerId string) ([]*dto.HistoryEntryResponse, error)
}

type chatService struct {
	sessions      ISessionService
	adapter       assistant.Adapter
	publisher     IPublisherService
	history       historysync.HistorySync
	titleStrategy string
	logger        logger.ILogger
}

func NewChatService(
	sessions ISessionService,
	adapter assistant.Adapter,
	publisher IPublisherService,
	history historysync.HistorySync,
	titleStrategy string,
	log logger.ILogger,
) IChatService {
	if publisher == nil {
		publisher = NewNopPublisherService()
	}
	if history == nil {
		history = historysync.Noop{}
	}
	return &chatService{
		sessions:      sessions,
		adapter:       adapter,
		publisher:     publisher,
		history:       history,
		titleStrategy: titleStrategy,
		logger:        log,
	}
}

func (c *chatService) ListSessions(ctx context.Context, ownerId string) ([]*dto.ChatSessionResponse, error) {
	sessions, err := c.sessions.ListSessions(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.ChatSessionResponse, len(sessions))
	for i, s := range sessions {
		r := dto.NewChatSessionResponse(s)
		res[i] = &r
	}
	return res, nil
}

func (c *chatService) CreateSession(ctx context.Context, ownerId string, req *dto.CreateSessionRequest) (*dto.ChatSessionResponse, error) {
	session, err := c.sessions.CreateSession(ctx, req.Title, ownerId)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.SessionCreated(session))

	res := dto.NewChatSessionResponse(session)
	return &res, nil
}

func (c *chatService) ListMessages(ctx context.Context, ownerId string, sessionId string) ([]*dto.ChatMessageResponse, error) {
	messages, err := c.sessions.ListMessages(ctx, sessionId, ownerId)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.ChatMessageResponse, len(messages))
	for i, m := range messages {
		r := dto.NewChatMessageResponse(m)
		res[i] = &r
	}
	return res, nil
}

// SendMessage runs one turn. Unknown session ids are created on first use
// so clients can allocate ids before the server has seen them.
func (c *chatService) SendMessage(ctx context.Context, ownerId string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}
	// The turn must complete even if the client goes away mid-request.
	ctx = context.WithoutCancel(ctx)

	session, created, err := c.sessions.EnsureSession(ctx, req.SessionId, assistant.TitleFromContent(req.Content), ownerId)
	if err != nil {
		return nil, err
	}
	if created {
		c.publish(ctx, events.SessionCreated(session))
	}

	userMessage, aiMessage, err := c.runTurn(ctx, session, req.Content)
	if err != nil {
		return nil, err
	}
	return &dto.SendMessageResponse{
		UserMessage: dto.NewChatMessageResponse(userMessage),
		AiMessage:   dto.NewChatMessageResponse(aiMessage),
	}, nil
}

func (c *chatService) QuickMessage(ctx context.Context, ownerId string, req *dto.QuickMessageRequest) (*dto.QuickMessageResponse, error) {
	if err := requireContent(req.Content); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	title := assistant.TitleFromContent(req.Content)
	if c.titleStrategy == constant.TitleStrategyModel {
		title = c.adapter.GenerateTitle(ctx, req.Content)
	}

	session, err := c.sessions.CreateSession(ctx, title, ownerId)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, events.SessionCreated(session))

	userMessage, aiMessage, err := c.runTurn(ctx, session, req.Content)
	if err != nil {
		return nil, err
	}
	session.UpdatedAt = aiMessage.CreatedAt

	return &dto.QuickMessageResponse{
		Session:     dto.NewChatSessionResponse(session),
		UserMessage: dto.NewChatMessageResponse(userMessage),
		AiMessage:   dto.NewChatMessageResponse(aiMessage),
	}, nil
}

// GetHistory reads the history side store and falls back to the session
// store when the side store has nothing for this owner.
func (c *chatService) GetHistory(ctx context.Context, ownerId string) ([]*dto.HistoryEntryResponse, error) {
	entries, err := c.history.GetHistory(ctx, ownerId, historyLimit)
	if err != nil {
		c.logger.Warn("ChatService", "History sync unavailable, reading store", map[string]interface{}{
			"owner_id": ownerId,
			"error":    err.Error(),
		})
	}

	if err == nil && len(entries) > 0 {
		res := make([]*dto.HistoryEntryResponse, len(entries))
		for i, e := range entries {
			res[i] = &dto.HistoryEntryResponse{SessionId: e.SessionId, Title: e.Title, UpdatedAt: e.UpdatedAt}
		}
		return res, nil
	}

	sessions, err := c.sessions.ListSessions(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	if len(sessions) > historyLimit {
		sessions = sessions[:historyLimit]
	}
	res := make([]*dto.HistoryEntryResponse, len(sessions))
	for i, s := range sessions {
		res[i] = &dto.HistoryEntryResponse{SessionId: s.Id, Title: s.Title, UpdatedAt: s.UpdatedAt}
	}
	return res, nil
}

// runTurn persists the user message, asks the assistant and persists its
// reply. The assistant never fails, so once the user message is stored the
// turn always gets an answer.
func (c *chatService) runTurn(ctx context.Context, session *entity.ChatSession, content string) (*entity.ChatMessage, *entity.ChatMessage, error) {
	content = strings.TrimSpace(content)
	userMessage, err := c.sessions.AppendMessage(ctx, session.Id, constant.ChatMessageRoleUser, content)
	if err != nil {
		return nil, nil, err
	}
	c.publish(ctx, events.MessageCreated(session.OwnerId, userMessage))

	reply := c.adapter.GenerateReply(ctx, assistant.ReplyRequest{
		SessionId:     session.Id,
		Content:       content,
		UserMessageId: userMessage.Id,
	})

	aiMessage, err := c.sessions.AppendMessage(ctx, session.Id, constant.ChatMessageRoleAssistant, reply)
	if err != nil {
		c.logger.Error("ChatService", "Failed to persist assistant reply", map[string]interface{}{
			"session_id": session.Id,
			"error":      err,
		})
		return nil, nil, err
	}
	c.publish(ctx, events.MessageCreated(session.OwnerId, aiMessage))

	touched := *session
	touched.UpdatedAt = aiMessage.CreatedAt
	c.publish(ctx, events.TurnCompleted(&touched, assistant.IsFallback(reply)))

	c.logger.Info("ChatService", "Turn completed", map[string]interface{}{
		"session_id": session.Id,
		"fallback":   assistant.IsFallback(reply),
	})
	return userMessage, aiMessage, nil
}

func (c *chatService) publish(ctx context.Context, event events.Event) {
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("ChatService", "Failed to publish event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

func requireContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperror.Validation("Message content is required", apperror.FieldError{
			Field:   "content",
			Message: "content must not be empty",
		})
	}
	return nil
}

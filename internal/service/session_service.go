package service

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"arthik-chat-be/internal/constant"
	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/pkg/apperror"
	"arthik-chat-be/internal/pkg/clock"
	"arthik-chat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

var sessionIdPattern = regexp.MustCompile(constant.SessionIdPattern)

// ISessionService is the session store: bookkeeping of sessions and their
// messages, independent of the storage backend.
type ISessionService interface {
	ListSessions(ctx context.Context, ownerId string) ([]*entity.ChatSession, error)
	CreateSession(ctx context.Context, title string, ownerId string) (*entity.ChatSession, error)
	// EnsureSession creates a session with a caller supplied id on first use
	// and returns the existing one afterwards.
	EnsureSession(ctx context.Context, id string, title string, ownerId string) (*entity.ChatSession, bool, error)
	GetSession(ctx context.Context, id string, ownerId string) (*entity.ChatSession, error)
	// ListMessages returns an empty list for unknown sessions and NotFound for
	// sessions that belong to another owner.
	ListMessages(ctx context.Context, sessionId string, ownerId string) ([]*entity.ChatMessage, error)
	AppendMessage(ctx context.Context, sessionId string, role string, content string) (*entity.ChatMessage, error)
	RecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	clock      clock.Clock
}

func NewSessionService(uowFactory unitofwork.RepositoryFactory, clk clock.Clock) ISessionService {
	if clk == nil {
		clk = clock.NewMonotonic()
	}
	return &sessionService{
		uowFactory: uowFactory,
		clock:      clk,
	}
}

func (s *sessionService) ListSessions(ctx context.Context, ownerId string) ([]*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAllByOwner(ctx, ownerId)
	if err != nil {
		return nil, apperror.Persistence("Failed to load chat sessions", err)
	}
	if sessions == nil {
		sessions = []*entity.ChatSession{}
	}
	return sessions, nil
}

func (s *sessionService) CreateSession(ctx context.Context, title string, ownerId string) (*entity.ChatSession, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &entity.ChatSession{
		Id:        uuid.NewString(),
		OwnerId:   ownerId,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, apperror.Persistence("Failed to create chat session", err)
	}
	return session, nil
}

func (s *sessionService) EnsureSession(ctx context.Context, id string, title string, ownerId string) (*entity.ChatSession, bool, error) {
	if !sessionIdPattern.MatchString(id) {
		return nil, false, apperror.Validation("Invalid session id", apperror.FieldError{
			Field:   "sessionId",
			Message: "sessionId may only contain letters, digits, '-' and '_' (max 128)",
		})
	}
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, false, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ChatSessionRepository()

	existing, err := repo.FindById(ctx, id)
	if err != nil {
		return nil, false, apperror.Persistence("Failed to load chat session", err)
	}
	if existing != nil {
		if existing.OwnerId != ownerId {
			return nil, false, apperror.NotFound("Chat session not found")
		}
		return existing, false, nil
	}

	now := s.clock.Now()
	session := &entity.ChatSession{
		Id:        id,
		OwnerId:   ownerId,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := repo.CreateIfNotExists(ctx, session)
	if err != nil {
		return nil, false, apperror.Persistence("Failed to create chat session", err)
	}
	if created {
		return session, true, nil
	}

	// Lost a race with a concurrent first message for the same id.
	existing, err = repo.FindById(ctx, id)
	if err != nil {
		return nil, false, apperror.Persistence("Failed to load chat session", err)
	}
	if existing == nil || existing.OwnerId != ownerId {
		return nil, false, apperror.NotFound("Chat session not found")
	}
	return existing, false, nil
}

func (s *sessionService) GetSession(ctx context.Context, id string, ownerId string) (*entity.ChatSession, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindById(ctx, id)
	if err != nil {
		return nil, apperror.Persistence("Failed to load chat session", err)
	}
	if session == nil || session.OwnerId != ownerId {
		return nil, apperror.NotFound("Chat session not found")
	}
	return session, nil
}

func (s *sessionService) ListMessages(ctx context.Context, sessionId string, ownerId string) ([]*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return nil, apperror.Persistence("Failed to load chat session", err)
	}
	if session == nil {
		return []*entity.ChatMessage{}, nil
	}
	if session.OwnerId != ownerId {
		return nil, apperror.NotFound("Chat session not found")
	}

	messages, err := uow.ChatMessageRepository().FindAllBySessionId(ctx, sessionId)
	if err != nil {
		return nil, apperror.Persistence("Failed to load chat messages", err)
	}
	if messages == nil {
		messages = []*entity.ChatMessage{}
	}
	return messages, nil
}

func (s *sessionService) AppendMessage(ctx context.Context, sessionId string, role string, content string) (*entity.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperror.Validation("Message content is required", apperror.FieldError{
			Field:   "content",
			Message: "content must not be empty",
		})
	}
	if !constant.IsValidRole(role) {
		return nil, apperror.Validation("Invalid message role", apperror.FieldError{
			Field:   "role",
			Message: "role must be one of user, assistant",
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence("Failed to save message", err)
	}
	defer uow.Rollback()

	session, err := uow.ChatSessionRepository().FindById(ctx, sessionId)
	if err != nil {
		return nil, apperror.Persistence("Failed to load chat session", err)
	}
	if session == nil {
		return nil, apperror.NotFound("Chat session not found")
	}

	message := &entity.ChatMessage{
		Id:        uuid.NewString(),
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		CreatedAt: s.clock.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return nil, apperror.Persistence("Failed to save message", err)
	}
	if err := uow.ChatSessionRepository().Touch(ctx, sessionId, message.CreatedAt); err != nil {
		return nil, apperror.Persistence("Failed to update chat session", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence("Failed to save message", err)
	}
	return message, nil
}

func (s *sessionService) RecentMessages(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.ChatMessageRepository().FindRecentBySessionId(ctx, sessionId, limit)
	if err != nil {
		return nil, apperror.Persistence("Failed to load chat messages", err)
	}
	return messages, nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.Validation("Title is required", apperror.FieldError{
			Field:   "title",
			Message: "title must not be empty",
		})
	}
	if utf8.RuneCountInString(title) > constant.MaxTitleLength {
		return "", apperror.Validation("Title is too long", apperror.FieldError{
			Field:   "title",
			Message: "title must be at most 200 characters",
		})
	}
	return title, nil
}

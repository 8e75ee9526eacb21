package contract

import (
	"context"

	"arthik-chat-be/internal/entity"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	// FindAllBySessionId returns messages oldest first.
	FindAllBySessionId(ctx context.Context, sessionId string) ([]*entity.ChatMessage, error)
	// FindRecentBySessionId returns at most limit of the newest messages, oldest first.
	FindRecentBySessionId(ctx context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error)
	CountBySessionId(ctx context.Context, sessionId string) (int64, error)
}

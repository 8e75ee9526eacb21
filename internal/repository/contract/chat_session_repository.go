package contract

import (
	"context"
	"time"

	"arthik-chat-be/internal/entity"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	// CreateIfNotExists inserts session unless its id is taken. created reports
	// whether this call inserted it; session is left untouched when it did not.
	CreateIfNotExists(ctx context.Context, session *entity.ChatSession) (created bool, err error)
	// FindById returns nil, nil when no session has this id.
	FindById(ctx context.Context, id string) (*entity.ChatSession, error)
	// FindAllByOwner returns the owner's sessions, most recently updated first.
	FindAllByOwner(ctx context.Context, ownerId string) ([]*entity.ChatSession, error)
	// Touch moves updated_at forward to at. Older timestamps are ignored.
	Touch(ctx context.Context, id string, at time.Time) error
}

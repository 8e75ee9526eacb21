package historysync

import (
	"context"
	"time"
)

// Entry is one row of a user's chat history sidebar.
type Entry struct {
	SessionId string    `json:"sessionId"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistorySync mirrors per-owner session history into a fast side store.
// The chat flow works the same with or without it.
type HistorySync interface {
	GetHistory(ctx context.Context, ownerId string, limit int) ([]Entry, error)
	AppendToHistory(ctx context.Context, ownerId string, entry Entry) error
}

// Noop is used when no side store is configured.
type Noop struct{}

func (Noop) GetHistory(ctx context.Context, ownerId string, limit int) ([]Entry, error) {
	return nil, nil
}

func (Noop) AppendToHistory(ctx context.Context, ownerId string, entry Entry) error {
	return nil
}

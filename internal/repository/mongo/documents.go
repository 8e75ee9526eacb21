package mongo

import (
	"time"

	"arthik-chat-be/internal/entity"
)

const (
	sessionsCollection = "chat_sessions"
	messagesCollection = "chat_messages"
)

// BSON dates only keep milliseconds, so timestamps are stored as unix
// microseconds to preserve ordering between messages of one turn.
type sessionDocument struct {
	Id        string `bson:"_id"`
	OwnerId   string `bson:"owner_id"`
	Title     string `bson:"title"`
	CreatedAt int64  `bson:"created_at"`
	UpdatedAt int64  `bson:"updated_at"`
}

type messageDocument struct {
	Id        string `bson:"_id"`
	SessionId string `bson:"session_id"`
	Role      string `bson:"role"`
	Content   string `bson:"content"`
	CreatedAt int64  `bson:"created_at"`
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}

func sessionToDocument(s *entity.ChatSession) sessionDocument {
	return sessionDocument{
		Id:        s.Id,
		OwnerId:   s.OwnerId,
		Title:     s.Title,
		CreatedAt: toMicros(s.CreatedAt),
		UpdatedAt: toMicros(s.UpdatedAt),
	}
}

func (d sessionDocument) toEntity() *entity.ChatSession {
	return &entity.ChatSession{
		Id:        d.Id,
		OwnerId:   d.OwnerId,
		Title:     d.Title,
		CreatedAt: fromMicros(d.CreatedAt),
		UpdatedAt: fromMicros(d.UpdatedAt),
	}
}

func messageToDocument(m *entity.ChatMessage) messageDocument {
	return messageDocument{
		Id:        m.Id,
		SessionId: m.SessionId,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: toMicros(m.CreatedAt),
	}
}

func (d messageDocument) toEntity() *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:        d.Id,
		SessionId: d.SessionId,
		Role:      d.Role,
		Content:   d.Content,
		CreatedAt: fromMicros(d.CreatedAt),
	}
}

package events

import (
	"time"

	"arthik-chat-be/internal/entity"
)

const (
	TypeSessionCreated = "chat.session.created"
	TypeMessageCreated = "chat.message.created"
	TypeTurnCompleted  = "chat.turn.completed"
)

func SessionCreated(s *entity.ChatSession) Event {
	return BaseEvent{
		Type: TypeSessionCreated,
		Data: map[string]interface{}{
			"sessionId": s.Id,
			"ownerId":   s.OwnerId,
			"title":     s.Title,
			"updatedAt": s.UpdatedAt.Format(time.RFC3339Nano),
		},
		OccurredAt: s.CreatedAt,
	}
}

func MessageCreated(ownerId string, m *entity.ChatMessage) Event {
	return BaseEvent{
		Type: TypeMessageCreated,
		Data: map[string]interface{}{
			"id":        m.Id,
			"sessionId": m.SessionId,
			"ownerId":   ownerId,
			"role":      m.Role,
			"content":   m.Content,
			"createdAt": m.CreatedAt.Format(time.RFC3339Nano),
		},
		OccurredAt: m.CreatedAt,
	}
}

// TurnCompleted carries what the history sidebar needs after a turn.
func TurnCompleted(s *entity.ChatSession, fallback bool) Event {
	return BaseEvent{
		Type: TypeTurnCompleted,
		Data: map[string]interface{}{
			"sessionId": s.Id,
			"ownerId":   s.OwnerId,
			"title":     s.Title,
			"updatedAt": s.UpdatedAt.Format(time.RFC3339Nano),
			"fallback":  fallback,
		},
		OccurredAt: s.UpdatedAt,
	}
}

// StringField reads a string payload value, "" when absent.
func StringField(e Event, key string) string {
	if v, ok := e.Payload()[key].(string); ok {
		return v
	}
	return ""
}

// TimeField parses an RFC3339 payload value, zero when absent or invalid.
func TimeField(e Event, key string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, StringField(e, key))
	if err != nil {
		return time.Time{}
	}
	return t
}

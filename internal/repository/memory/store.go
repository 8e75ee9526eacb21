package memory

import (
	"sync"

	"arthik-chat-be/internal/entity"
)

// Store holds chat sessions and messages in process memory. Both
// repositories built from one Store see the same data.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entity.ChatSession
	messages map[string][]*entity.ChatMessage

	// seq orders sessions that share an updated_at.
	seq     map[string]uint64
	nextSeq uint64
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*entity.ChatSession),
		messages: make(map[string][]*entity.ChatMessage),
		seq:      make(map[string]uint64),
	}
}

func copySession(s *entity.ChatSession) *entity.ChatSession {
	c := *s
	return &c
}

func copyMessage(m *entity.ChatMessage) *entity.ChatMessage {
	c := *m
	return &c
}

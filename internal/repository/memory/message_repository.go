package memory

import (
	"context"
	"sort"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/repository/contract"
)

type ChatMessageRepository struct {
	store *Store
}

func NewChatMessageRepository(store *Store) contract.ChatMessageRepository {
	return &ChatMessageRepository{store: store}
}

func (r *ChatMessageRepository) Create(_ context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	list := append(r.store.messages[message.SessionId], copyMessage(message))
	// Appends normally arrive in timestamp order; keep the slice sorted when they do not.
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	r.store.messages[message.SessionId] = list
	return nil
}

func (r *ChatMessageRepository) FindAllBySessionId(_ context.Context, sessionId string) ([]*entity.ChatMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	list := r.store.messages[sessionId]
	result := make([]*entity.ChatMessage, len(list))
	for i, m := range list {
		result[i] = copyMessage(m)
	}
	return result, nil
}

func (r *ChatMessageRepository) FindRecentBySessionId(_ context.Context, sessionId string, limit int) ([]*entity.ChatMessage, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	list := r.store.messages[sessionId]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	result := make([]*entity.ChatMessage, len(list))
	for i, m := range list {
		result[i] = copyMessage(m)
	}
	return result, nil
}

func (r *ChatMessageRepository) CountBySessionId(_ context.Context, sessionId string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.messages[sessionId])), nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/repository/contract"
)

type ChatSessionRepository struct {
	store *Store
}

func NewChatSessionRepository(store *Store) contract.ChatSessionRepository {
	return &ChatSessionRepository{store: store}
}

func (r *ChatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	created, err := r.CreateIfNotExists(ctx, session)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("chat session %s already exists", session.Id)
	}
	return nil
}

func (r *ChatSessionRepository) CreateIfNotExists(_ context.Context, session *entity.ChatSession) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.sessions[session.Id]; exists {
		return false, nil
	}
	r.store.sessions[session.Id] = copySession(session)
	r.store.nextSeq++
	r.store.seq[session.Id] = r.store.nextSeq
	return true, nil
}

func (r *ChatSessionRepository) FindById(_ context.Context, id string) (*entity.ChatSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	s, ok := r.store.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (r *ChatSessionRepository) FindAllByOwner(_ context.Context, ownerId string) ([]*entity.ChatSession, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*entity.ChatSession, 0)
	for _, s := range r.store.sessions {
		if s.OwnerId == ownerId {
			result = append(result, copySession(s))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return r.store.seq[result[i].Id] > r.store.seq[result[j].Id]
	})
	return result, nil
}

func (r *ChatSessionRepository) Touch(_ context.Context, id string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.sessions[id]
	if !ok {
		return nil
	}
	if at.After(s.UpdatedAt) {
		s.UpdatedAt = at
		r.store.nextSeq++
		r.store.seq[id] = r.store.nextSeq
	}
	return nil
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"arthik-chat-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newSession(id, owner string, at time.Time) *entity.ChatSession {
	return &entity.ChatSession{Id: id, OwnerId: owner, Title: "title " + id, CreatedAt: at, UpdatedAt: at}
}

func TestSessionRepository_FindAllByOwnerOrdersByUpdatedAtDesc(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository(NewStore())

	require.NoError(t, repo.Create(ctx, newSession("a", "", base)))
	require.NoError(t, repo.Create(ctx, newSession("b", "", base.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, newSession("c", "other", base.Add(2*time.Second))))

	require.NoError(t, repo.Touch(ctx, "a", base.Add(3*time.Second)))

	sessions, err := repo.FindAllByOwner(ctx, "")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "a", sessions[0].Id)
	assert.Equal(t, "b", sessions[1].Id)
}

func TestSessionRepository_TouchNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository(NewStore())
	require.NoError(t, repo.Create(ctx, newSession("a", "", base)))

	require.NoError(t, repo.Touch(ctx, "a", base.Add(5*time.Second)))
	require.NoError(t, repo.Touch(ctx, "a", base.Add(2*time.Second)))

	s, err := repo.FindById(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, base.Add(5*time.Second), s.UpdatedAt)
}

func TestSessionRepository_CreateIfNotExistsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository(NewStore())

	var wg sync.WaitGroup
	results := make([]bool, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created, err := repo.CreateIfNotExists(ctx, newSession("shared", "", base))
			assert.NoError(t, err)
			results[i] = created
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for _, created := range results {
		if created {
			createdCount++
		}
	}
	assert.Equal(t, 1, createdCount)

	err := repo.Create(ctx, newSession("shared", "", base))
	assert.Error(t, err)
}

func TestSessionRepository_FindByIdMissingReturnsNil(t *testing.T) {
	repo := NewChatSessionRepository(NewStore())
	s, err := repo.FindById(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSessionRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepository(NewStore())
	require.NoError(t, repo.Create(ctx, newSession("a", "", base)))

	s, _ := repo.FindById(ctx, "a")
	s.Title = "mutated"

	again, _ := repo.FindById(ctx, "a")
	assert.Equal(t, "title a", again.Title)
}

func TestMessageRepository_OrderingAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := NewChatMessageRepository(NewStore())

	// Inserted out of order on purpose.
	for _, offset := range []int{2, 0, 1, 3} {
		require.NoError(t, repo.Create(ctx, &entity.ChatMessage{
			Id:        fmt.Sprintf("m%d", offset),
			SessionId: "s1",
			Role:      "user",
			Content:   "hello",
			CreatedAt: base.Add(time.Duration(offset) * time.Second),
		}))
	}

	all, err := repo.FindAllBySessionId(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("m%d", i), m.Id)
	}

	recent, err := repo.FindRecentBySessionId(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "m2", recent[0].Id)
	assert.Equal(t, "m3", recent[1].Id)

	count, err := repo.CountBySessionId(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	empty, err := repo.FindAllBySessionId(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

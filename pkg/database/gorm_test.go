package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"arthik-chat-be/internal/entity"
	"arthik-chat-be/internal/repository/implementation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGormDB_UnsupportedDriver(t *testing.T) {
	_, err := NewGormDB("oracle", "x", false)
	assert.Error(t, err)

	_, err = NewGormDB("postgres", "", false)
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "chat.db?_busy_timeout=5000&_foreign_keys=on", sqliteDSN("chat.db"))
	assert.Equal(t, "chat.db?mode=ro", sqliteDSN("chat.db?mode=ro"))
}

func TestSqlite_SessionAndMessageRoundTrip(t *testing.T) {
	db, err := NewGormDB("sqlite", filepath.Join(t.TempDir(), "chat.db"), false)
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	ctx := context.Background()
	sessions := implementation.NewChatSessionRepository(db)
	messages := implementation.NewChatMessageRepository(db)
	at := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)

	created, err := sessions.CreateIfNotExists(ctx, &entity.ChatSession{Id: "s1", Title: "Bonds", CreatedAt: at, UpdatedAt: at})
	require.NoError(t, err)
	require.True(t, created)

	created, err = sessions.CreateIfNotExists(ctx, &entity.ChatSession{Id: "s1", Title: "Other", CreatedAt: at, UpdatedAt: at})
	require.NoError(t, err)
	require.False(t, created)

	for i, role := range []string{"user", "assistant", "user"} {
		require.NoError(t, messages.Create(ctx, &entity.ChatMessage{
			Id: string(rune('a' + i)), SessionId: "s1", Role: role, Content: "x",
			CreatedAt: at.Add(time.Duration(i) * time.Microsecond),
		}))
	}

	require.NoError(t, sessions.Touch(ctx, "s1", at.Add(time.Minute)))
	require.NoError(t, sessions.Touch(ctx, "s1", at))

	s, err := sessions.FindById(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Bonds", s.Title)
	assert.True(t, s.UpdatedAt.Equal(at.Add(time.Minute)))

	all, err := messages.FindAllBySessionId(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].Id)
	assert.Equal(t, "c", all[2].Id)

	recent, err := messages.FindRecentBySessionId(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].Id)

	count, err := messages.CountBySessionId(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

package mongo

import (
	"testing"
	"time"

	"arthik-chat-be/internal/entity"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestSessionDocument_RoundTripKeepsMicroseconds(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 678901000, time.UTC)
	s := &entity.ChatSession{Id: "s1", OwnerId: "u1", Title: "Dividends", CreatedAt: at, UpdatedAt: at.Add(time.Microsecond)}

	raw, err := bson.Marshal(sessionToDocument(s))
	require.NoError(t, err)

	var decoded sessionDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))
	require.Equal(t, s, decoded.toEntity())
}

func TestMessageDocument_UsesUnderscoreId(t *testing.T) {
	m := &entity.ChatMessage{Id: "m1", SessionId: "s1", Role: "user", Content: "hi", CreatedAt: time.Unix(0, 0).UTC()}

	raw, err := bson.Marshal(messageToDocument(m))
	require.NoError(t, err)

	var asMap bson.M
	require.NoError(t, bson.Unmarshal(raw, &asMap))
	require.Equal(t, "m1", asMap["_id"])
	require.Equal(t, "s1", asMap["session_id"])
}

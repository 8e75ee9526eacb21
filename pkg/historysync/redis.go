package historysync

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "chat:history:"

// RedisSync keeps a sorted set of session ids scored by updatedAt
// (microseconds) and a hash of session titles per owner.
type RedisSync struct {
	rdb *redis.Client
}

func NewRedisSync(rdb *redis.Client) *RedisSync {
	return &RedisSync{rdb: rdb}
}

func ownerKey(ownerId string) string {
	if ownerId == "" {
		ownerId = "_global"
	}
	return keyPrefix + ownerId
}

func titlesKey(ownerId string) string {
	return ownerKey(ownerId) + ":titles"
}

// AppendToHistory adds the session or moves it forward in time, never back.
// Titles are written once.
func (r *RedisSync) AppendToHistory(ctx context.Context, ownerId string, entry Entry) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddGT(ctx, ownerKey(ownerId), redis.Z{
			Score:  float64(entry.UpdatedAt.UnixMicro()),
			Member: entry.SessionId,
		})
		if entry.Title != "" {
			pipe.HSetNX(ctx, titlesKey(ownerId), entry.SessionId, entry.Title)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("historysync: append %s: %w", entry.SessionId, err)
	}
	return nil
}

// GetHistory returns the owner's sessions, most recent first.
func (r *RedisSync) GetHistory(ctx context.Context, ownerId string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	members, err := r.rdb.ZRevRangeWithScores(ctx, ownerKey(ownerId), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("historysync: range: %w", err)
	}
	if len(members) == 0 {
		return []Entry{}, nil
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = fmt.Sprint(m.Member)
	}
	titles, err := r.rdb.HMGet(ctx, titlesKey(ownerId), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("historysync: titles: %w", err)
	}

	entries := make([]Entry, len(members))
	for i, m := range members {
		title, _ := titles[i].(string)
		entries[i] = Entry{
			SessionId: ids[i],
			Title:     title,
			UpdatedAt: time.UnixMicro(int64(m.Score)).UTC(),
		}
	}
	return entries, nil
}

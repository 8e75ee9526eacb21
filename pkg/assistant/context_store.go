package assistant

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
)

type turn struct {
	User      string
	Assistant string
}

// sessionContext holds the recent turns of one conversation.
type sessionContext struct {
	mu       sync.Mutex
	loaded   bool
	turns    []turn
	lastUsed atomic.Int64
}

func (sc *sessionContext) touch(now time.Time) {
	sc.lastUsed.Store(now.UnixNano())
}

// snapshot copies the turns so callers can build a prompt without holding mu.
// Caller holds mu.
func (sc *sessionContext) snapshot() []turn {
	out := make([]turn, len(sc.turns))
	copy(out, sc.turns)
	return out
}

// record appends a turn, keeping at most maxTurns. Caller holds mu.
func (sc *sessionContext) record(t turn, maxTurns int) {
	sc.turns = append(sc.turns, t)
	if maxTurns > 0 && len(sc.turns) > maxTurns {
		sc.turns = append([]turn(nil), sc.turns[len(sc.turns)-maxTurns:]...)
	}
}

// contextStore keeps per-session context with a sliding TTL and an upper
// bound on sessions. When full, the least recently used session goes.
type contextStore struct {
	mu          sync.Mutex
	cache       *cache.Cache
	maxSessions int
	now         func() time.Time
}

func newContextStore(maxSessions int, ttl time.Duration) *contextStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := ttl / 2
	if ttl == cache.NoExpiration || cleanup < time.Second {
		cleanup = time.Minute
	}
	return &contextStore{
		cache:       cache.New(ttl, cleanup),
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// acquire returns the context for sessionId, creating it when absent.
// Every access renews its TTL.
func (s *contextStore) acquire(sessionId string) *sessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if x, found := s.cache.Get(sessionId); found {
		sc := x.(*sessionContext)
		sc.touch(now)
		s.cache.Set(sessionId, sc, cache.DefaultExpiration)
		return sc
	}

	if s.maxSessions > 0 {
		s.cache.DeleteExpired()
		for s.cache.ItemCount() >= s.maxSessions {
			if !s.evictOldest() {
				break
			}
		}
	}

	sc := &sessionContext{}
	sc.touch(now)
	s.cache.Set(sessionId, sc, cache.DefaultExpiration)
	return sc
}

// Caller holds s.mu.
func (s *contextStore) evictOldest() bool {
	var (
		oldestKey string
		oldestAt  int64
		found     bool
	)
	for key, item := range s.cache.Items() {
		at := item.Object.(*sessionContext).lastUsed.Load()
		if !found || at < oldestAt {
			oldestKey, oldestAt, found = key, at, true
		}
	}
	if found {
		s.cache.Delete(oldestKey)
	}
	return found
}

func (s *contextStore) has(sessionId string) bool {
	_, found := s.cache.Get(sessionId)
	return found
}

func (s *contextStore) size() int {
	return s.cache.ItemCount()
}

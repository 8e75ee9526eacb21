package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"arthik-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "chat_cluster_events"

type subscription struct {
	ownerId   string
	sessionId string
}

type clusterMessage struct {
	Origin    string          `json:"origin"`
	OwnerId   string          `json:"ownerId"`
	SessionId string          `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
}

// Hub tracks websocket clients per watched session and delivers chat events
// to them. With Redis configured, deliveries are mirrored to other instances.
type Hub struct {
	clients map[subscription]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	// done is closed once Run has returned.
	done     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[subscription]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		done:       make(chan struct{}),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// remaining client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for key, set := range h.clients {
				for client := range set {
					close(client.Send)
				}
				delete(h.clients, key)
			}
			h.mu.Unlock()
			h.stopOnce.Do(func() { close(h.done) })
			return

		case client := <-h.register:
			key := client.subscription()
			h.mu.Lock()
			if h.clients[key] == nil {
				h.clients[key] = make(map[*Client]struct{})
			}
			h.clients[key][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionId})

		case client := <-h.unregister:
			key := client.subscription()
			h.mu.Lock()
			if set, ok := h.clients[key]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.Send)
				}
				if len(set) == 0 {
					delete(h.clients, key)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds client to the hub. It returns false once the hub has
// stopped; the caller owns client.Send in that case.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client and closes its Send channel. It never blocks
// after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// DeliverToSession sends payload to every local client watching the session
// and publishes it for the other instances.
func (h *Hub) DeliverToSession(ownerId string, sessionId string, payload []byte) {
	h.deliverLocal(subscription{ownerId: ownerId, sessionId: sessionId}, payload)

	if h.rdb == nil {
		return
	}
	raw, err := json.Marshal(clusterMessage{
		Origin:    h.instance,
		OwnerId:   ownerId,
		SessionId: sessionId,
		Message:   payload,
	})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), clusterChannel, raw).Err(); err != nil {
		h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
	}
}

// ClientCount is the number of local clients watching a session.
func (h *Hub) ClientCount(ownerId string, sessionId string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[subscription{ownerId: ownerId, sessionId: sessionId}])
}

func (h *Hub) deliverLocal(key subscription, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[key] {
		select {
		case client.Send <- payload:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"session_id": key.sessionId})
			go h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	h.Unregister(client)
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.instance {
				continue
			}
			h.deliverLocal(subscription{ownerId: payload.OwnerId, sessionId: payload.SessionId}, payload.Message)
		}
	}
}

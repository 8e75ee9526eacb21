package chatclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrorReplyText is shown as the assistant's answer when a turn cannot reach
// the server.
const ErrorReplyText = "I'm sorry, something went wrong. Please try again later."

type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseSending  Phase = "sending"
	PhaseResolved Phase = "resolved"
	PhaseFailed   Phase = "failed"
)

// Snapshot is an immutable copy of the chat state.
type Snapshot struct {
	SessionId string
	Phase     Phase
	Loading   bool
	Typing    bool
	Messages  []Message
	History   []Session
	Err       error
}

// API is the subset of Client the state machine needs.
type API interface {
	ListSessions(ctx context.Context) ([]Session, error)
	ListMessages(ctx context.Context, sessionId string) ([]Message, error)
	SendMessage(ctx context.Context, sessionId, content string) (*Turn, error)
}

// ChatState keeps the local view of one conversation. Sends are optimistic:
// the user's message shows up before the server confirms it.
type ChatState struct {
	api API
	now func() time.Time

	mu        sync.Mutex
	sessionId string
	// turn identifies the pending send. NewChat and SelectSession bump it so
	// a reply for a conversation the user left is recognised as stale.
	turn      uint64
	phase     Phase
	messages  []Message
	history   []Session
	err       error
	observers []func(Snapshot)
}

func NewChatState(api API) *ChatState {
	return &ChatState{
		api:       api,
		now:       time.Now,
		sessionId: uuid.NewString(),
		phase:     PhaseIdle,
	}
}

// OnChange registers fn to be called after every transition.
func (s *ChatState) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *ChatState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Send runs one turn. Blank input is ignored. A second Send while a turn is
// pending returns ErrBusy.
func (s *ChatState) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.phase == PhaseSending {
		s.mu.Unlock()
		return ErrBusy
	}
	sessionId := s.sessionId
	s.messages = append(s.messages, Message{
		Id:        "local-" + uuid.NewString(),
		SessionId: sessionId,
		Role:      "user",
		Content:   text,
		CreatedAt: s.now().UTC(),
	})
	s.phase = PhaseSending
	s.err = nil
	s.turn++
	turnId := s.turn
	s.notifyLocked()

	reply, err := s.sendUnlocked(ctx, sessionId, text)

	defer s.mu.Unlock()
	// The user moved to another conversation while waiting. Its state,
	// including any turn pending there, is left alone.
	if s.turn != turnId {
		return err
	}

	if err != nil {
		s.phase = PhaseFailed
		s.err = err
		s.messages = append(s.messages, Message{
			Id:        "local-" + uuid.NewString(),
			SessionId: sessionId,
			Role:      "assistant",
			Content:   ErrorReplyText,
			CreatedAt: s.now().UTC(),
		})
		s.notifyLocked()
		return err
	}

	s.phase = PhaseResolved
	s.messages = append(s.messages, reply.AiMessage)
	s.notifyLocked()
	return nil
}

// sendUnlocked releases the lock around the network call. Caller holds the
// lock and gets it back held.
func (s *ChatState) sendUnlocked(ctx context.Context, sessionId, text string) (*Turn, error) {
	s.mu.Unlock()
	turn, err := s.api.SendMessage(ctx, sessionId, text)
	s.mu.Lock()
	return turn, err
}

// RefreshHistory reloads the session list, most recently active first.
func (s *ChatState) RefreshHistory(ctx context.Context) error {
	sessions, err := s.api.ListSessions(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = sessions
	s.notifyLocked()
	return nil
}

// SelectSession switches to an existing conversation and loads its messages.
func (s *ChatState) SelectSession(ctx context.Context, sessionId string) error {
	messages, err := s.api.ListMessages(ctx, sessionId)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	s.sessionId = sessionId
	s.messages = messages
	s.phase = PhaseIdle
	s.err = nil
	s.notifyLocked()
	return nil
}

// NewChat starts a fresh conversation under a new client side id. The server
// creates the session with the first message.
func (s *ChatState) NewChat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turn++
	s.sessionId = uuid.NewString()
	s.messages = nil
	s.phase = PhaseIdle
	s.err = nil
	s.notifyLocked()
	return s.sessionId
}

// Clear empties the local message list. Stored messages are untouched.
func (s *ChatState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.notifyLocked()
}

func (s *ChatState) snapshotLocked() Snapshot {
	sending := s.phase == PhaseSending
	return Snapshot{
		SessionId: s.sessionId,
		Phase:     s.phase,
		Loading:   sending,
		Typing:    sending,
		Messages:  append([]Message(nil), s.messages...),
		History:   append([]Session(nil), s.history...),
		Err:       s.err,
	}
}

// notifyLocked calls observers with the lock held; observers must not call
// back into the state.
func (s *ChatState) notifyLocked() {
	if len(s.observers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, fn := range s.observers {
		fn(snap)
	}
}

package chatclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sessions []Session
	messages map[string][]Message

	// gates, keyed by content, block SendMessage until closed. errs fail it.
	gates   map[string]chan struct{}
	errs    map[string]error
	started chan string

	mu   sync.Mutex
	sent []string
}

func (f *fakeAPI) ListSessions(ctx context.Context) ([]Session, error) {
	return f.sessions, nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, sessionId string) ([]Message, error) {
	return f.messages[sessionId], nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, sessionId, content string) (*Turn, error) {
	f.mu.Lock()
	f.sent = append(f.sent, content)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- content
	}
	if gate, ok := f.gates[content]; ok {
		<-gate
	}
	if err := f.errs[content]; err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Turn{
		UserMessage: Message{Id: "u-" + content, SessionId: sessionId, Role: "user", Content: content, CreatedAt: now},
		AiMessage:   Message{Id: "a-" + content, SessionId: sessionId, Role: "assistant", Content: "answer to " + content, CreatedAt: now},
	}, nil
}

func (f *fakeAPI) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func sendAsync(state *ChatState, text string) <-chan error {
	done := make(chan error, 1)
	go func() { done <- state.Send(context.Background(), text) }()
	return done
}

func TestChatState_SendResolved(t *testing.T) {
	state := NewChatState(&fakeAPI{})

	var phases []Phase
	var loading []bool
	state.OnChange(func(s Snapshot) {
		phases = append(phases, s.Phase)
		loading = append(loading, s.Loading)
	})

	require.NoError(t, state.Send(context.Background(), "  what is a bond?  "))

	snap := state.Snapshot()
	assert.Equal(t, []Phase{PhaseSending, PhaseResolved}, phases)
	assert.Equal(t, []bool{true, false}, loading)
	assert.False(t, snap.Typing)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "user", snap.Messages[0].Role)
	assert.Equal(t, "what is a bond?", snap.Messages[0].Content)
	assert.Equal(t, "answer to what is a bond?", snap.Messages[1].Content)
}

func TestChatState_BlankInputIgnored(t *testing.T) {
	api := &fakeAPI{}
	state := NewChatState(api)

	require.NoError(t, state.Send(context.Background(), " \n\t"))

	assert.Zero(t, api.sentCount())
	assert.Empty(t, state.Snapshot().Messages)
	assert.Equal(t, PhaseIdle, state.Snapshot().Phase)
}

func TestChatState_NetworkFailureShowsErrorReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	state := NewChatState(New(url))
	err := state.Send(context.Background(), "hello")
	require.Error(t, err)

	snap := state.Snapshot()
	assert.Equal(t, PhaseFailed, snap.Phase)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Typing)
	assert.Error(t, snap.Err)
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "hello", snap.Messages[0].Content)
	assert.Equal(t, "assistant", snap.Messages[1].Role)
	assert.Equal(t, ErrorReplyText, snap.Messages[1].Content)
}

func TestChatState_BusyWhileSending(t *testing.T) {
	api := &fakeAPI{
		gates:   map[string]chan struct{}{"first": make(chan struct{})},
		started: make(chan string, 4),
	}
	state := NewChatState(api)

	done := sendAsync(state, "first")
	<-api.started

	assert.ErrorIs(t, state.Send(context.Background(), "second"), ErrBusy)
	assert.True(t, state.Snapshot().Loading)

	close(api.gates["first"])
	require.NoError(t, <-done)

	snap := state.Snapshot()
	assert.Equal(t, PhaseResolved, snap.Phase)
	assert.Len(t, snap.Messages, 2)
	assert.Equal(t, 1, api.sentCount())
}

func TestChatState_LateReplyLeavesNewConversationPending(t *testing.T) {
	for _, failFirst := range []bool{false, true} {
		api := &fakeAPI{
			gates: map[string]chan struct{}{
				"in A": make(chan struct{}),
				"in B": make(chan struct{}),
			},
			errs:    map[string]error{},
			started: make(chan string, 4),
		}
		if failFirst {
			api.errs["in A"] = errors.New("boom")
		}
		state := NewChatState(api)
		first := state.Snapshot().SessionId

		doneA := sendAsync(state, "in A")
		<-api.started

		second := state.NewChat()
		assert.NotEqual(t, first, second)

		doneB := sendAsync(state, "in B")
		<-api.started

		close(api.gates["in A"])
		<-doneA

		snap := state.Snapshot()
		assert.Equal(t, second, snap.SessionId)
		assert.Equal(t, PhaseSending, snap.Phase)
		assert.True(t, snap.Loading)
		assert.True(t, snap.Typing)
		assert.NoError(t, snap.Err)
		require.Len(t, snap.Messages, 1)
		assert.Equal(t, "in B", snap.Messages[0].Content)
		assert.ErrorIs(t, state.Send(context.Background(), "third"), ErrBusy)

		close(api.gates["in B"])
		require.NoError(t, <-doneB)

		snap = state.Snapshot()
		assert.Equal(t, PhaseResolved, snap.Phase)
		assert.False(t, snap.Loading)
		require.Len(t, snap.Messages, 2)
		assert.Equal(t, "answer to in B", snap.Messages[1].Content)
		assert.Equal(t, 2, api.sentCount())
	}
}

func TestChatState_SelectSessionDropsLateFailure(t *testing.T) {
	api := &fakeAPI{
		gates:    map[string]chan struct{}{"first": make(chan struct{})},
		errs:     map[string]error{"first": errors.New("boom")},
		started:  make(chan string, 1),
		messages: map[string][]Message{"older": {{Id: "m1", SessionId: "older", Role: "user", Content: "P/E?"}}},
	}
	state := NewChatState(api)

	done := sendAsync(state, "first")
	<-api.started
	require.NoError(t, state.SelectSession(context.Background(), "older"))

	close(api.gates["first"])
	require.Error(t, <-done)

	snap := state.Snapshot()
	assert.Equal(t, "older", snap.SessionId)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.NoError(t, snap.Err)
	require.Len(t, snap.Messages, 1)
}

func TestChatState_NewChatAndClear(t *testing.T) {
	state := NewChatState(&fakeAPI{})
	before := state.Snapshot().SessionId

	require.NoError(t, state.Send(context.Background(), "hi"))
	state.Clear()
	assert.Empty(t, state.Snapshot().Messages)
	assert.Equal(t, before, state.Snapshot().SessionId)

	after := state.NewChat()
	assert.NotEqual(t, before, after)
	assert.Empty(t, state.Snapshot().Messages)
	assert.Equal(t, PhaseIdle, state.Snapshot().Phase)
}

func TestChatState_HistoryAndSelect(t *testing.T) {
	now := time.Now().UTC()
	api := &fakeAPI{
		sessions: []Session{
			{Id: "newer", Title: "Bonds", UpdatedAt: now},
			{Id: "older", Title: "Stocks", UpdatedAt: now.Add(-time.Hour)},
		},
		messages: map[string][]Message{
			"older": {{Id: "m1", SessionId: "older", Role: "user", Content: "P/E?"}},
		},
	}
	state := NewChatState(api)

	require.NoError(t, state.RefreshHistory(context.Background()))
	snap := state.Snapshot()
	require.Len(t, snap.History, 2)
	assert.Equal(t, "newer", snap.History[0].Id)

	require.NoError(t, state.SelectSession(context.Background(), "older"))
	snap = state.Snapshot()
	assert.Equal(t, "older", snap.SessionId)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "P/E?", snap.Messages[0].Content)
}

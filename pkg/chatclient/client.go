package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Session struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Message struct {
	Id        string    `json:"id"`
	SessionId string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type Turn struct {
	UserMessage Message `json:"userMessage"`
	AiMessage   Message `json:"aiMessage"`
}

type QuickTurn struct {
	Session     Session `json:"session"`
	UserMessage Message `json:"userMessage"`
	AiMessage   Message `json:"aiMessage"`
}

type HistoryEntry struct {
	SessionId string    `json:"sessionId"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// Client talks to the chat HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Turns can take as long as the server's provider timeout plus retries.
		http: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out []Session
	err := c.do(ctx, http.MethodGet, "/api/chat/sessions", nil, &out)
	return out, err
}

func (c *Client) CreateSession(ctx context.Context, title string) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/api/chat/sessions", map[string]string{"title": title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMessages(ctx context.Context, sessionId string) ([]Message, error) {
	var out []Message
	err := c.do(ctx, http.MethodGet, "/api/chat/sessions/"+url.PathEscape(sessionId)+"/messages", nil, &out)
	return out, err
}

func (c *Client) SendMessage(ctx context.Context, sessionId, content string) (*Turn, error) {
	var out Turn
	body := map[string]string{"sessionId": sessionId, "content": content}
	if err := c.do(ctx, http.MethodPost, "/api/chat/message", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuickMessage(ctx context.Context, content string) (*QuickTurn, error) {
	var out QuickTurn
	if err := c.do(ctx, http.MethodPost, "/api/chat/quick-message", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context) ([]HistoryEntry, error) {
	var out []HistoryEntry
	err := c.do(ctx, http.MethodGet, "/api/chat/history", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var payload struct {
			Message string       `json:"message"`
			Errors  []FieldError `json:"errors"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

package dto

import (
	"time"

	"arthik-chat-be/internal/entity"
)

type ChatSessionResponse struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ChatMessageResponse struct {
	Id        string    `json:"id"`
	SessionId string    `json:"sessionId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateSessionRequest struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
}

type SendMessageRequest struct {
	SessionId string `json:"sessionId" validate:"required,notblank,max=128"`
	Content   string `json:"content" validate:"required,notblank"`
}

type SendMessageResponse struct {
	UserMessage ChatMessageResponse `json:"userMessage"`
	AiMessage   ChatMessageResponse `json:"aiMessage"`
}

type QuickMessageRequest struct {
	Content string `json:"content" validate:"required,notblank"`
}

type QuickMessageResponse struct {
	Session     ChatSessionResponse `json:"session"`
	UserMessage ChatMessageResponse `json:"userMessage"`
	AiMessage   ChatMessageResponse `json:"aiMessage"`
}

type HistoryEntryResponse struct {
	SessionId string    `json:"sessionId"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

func NewChatSessionResponse(s *entity.ChatSession) ChatSessionResponse {
	return ChatSessionResponse{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func NewChatMessageResponse(m *entity.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		Id:        m.Id,
		SessionId: m.SessionId,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

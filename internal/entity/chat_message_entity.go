package entity

import "time"

type ChatMessage struct {
	Id        string
	SessionId string
	Role      string
	Content   string
	CreatedAt time.Time
}

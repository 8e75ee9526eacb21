package model

import "time"

type ChatMessage struct {
	Id        string    `gorm:"type:varchar(64);primaryKey"`
	SessionId string    `gorm:"type:varchar(128);not null;index:idx_chat_messages_session_created,priority:1"`
	Role      string    `gorm:"type:varchar(16);not null"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index:idx_chat_messages_session_created,priority:2"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

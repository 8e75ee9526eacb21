package model

import "time"

type ChatSession struct {
	Id        string    `gorm:"type:varchar(128);primaryKey"`
	OwnerId   string    `gorm:"type:varchar(128);not null;default:'';index:idx_chat_sessions_owner_updated,priority:1"`
	Title     string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false;index:idx_chat_sessions_owner_updated,priority:2"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

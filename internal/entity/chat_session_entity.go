package entity

import "time"

type ChatSession struct {
	Id        string
	OwnerId   string // empty when sessions are global
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

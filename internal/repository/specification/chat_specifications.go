package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID string
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.ChatSessionID)
}

type OwnedBy struct {
	OwnerID string
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("owner_id = ?", s.OwnerID)
}

// UpdatedBefore matches rows whose updated_at is strictly older than At.
type UpdatedBefore struct {
	At time.Time
}

func (s UpdatedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.At)
}

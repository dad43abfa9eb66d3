package models

import (
	"time"
)

// CodeSnapshot holds the latest shared code text for a room.
// One row per room, overwritten on every update.
type CodeSnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;unique" json:"room_id"`
	Code      string    `gorm:"type:text" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

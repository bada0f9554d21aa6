package models

import "time"

// Terminal is a POS/KDS/admin device on the LAN. Role is resolved from
// this record at WebSocket connect time and is never client-supplied.
type Terminal struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name       string    `json:"name"`
	Role       string    `gorm:"type:varchar(16);not null;default:'pos'" json:"role"` // pos, kds, admin
	Status     string    `gorm:"type:varchar(16);not null;default:'OFFLINE'" json:"status"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

func (Terminal) TableName() string { return "terminals" }

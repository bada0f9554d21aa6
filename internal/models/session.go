package models

import "time"

// Session is minted on a successful PIN match and validated on every
// protected terminal request via the x-session-id header.
type Session struct {
	SessionID  string     `gorm:"primaryKey;type:varchar(64)" json:"sessionId"`
	TerminalID *string    `gorm:"type:varchar(64);index" json:"terminalId,omitempty"`
	UserID     string     `gorm:"type:varchar(64);not null;index" json:"userId"`
	IsActive   bool       `gorm:"not null;default:true;index" json:"isActive"`
	StartedAt  time.Time  `gorm:"not null" json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

func (Session) TableName() string { return "sessions" }

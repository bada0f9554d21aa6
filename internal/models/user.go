package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is hub staff: a PIN-authenticated operator, not a terminal.
// Standardized convention: Go (PascalCase) -> DB (snake_case) -> JSON
// (camelCase).
type User struct {
	ID          string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID    string         `gorm:"type:varchar(64);not null;index" json:"tenantId"`
	Name        string         `gorm:"not null" json:"name"`
	Role        string         `gorm:"type:varchar(32);not null;default:'cashier'" json:"role"`
	PasswordHash string        `gorm:"column:password_hash" json:"-"`
	Permissions datatypes.JSON `json:"permissions"`
	MaxDiscount float64        `gorm:"not null;default:0" json:"maxDiscount"`
	IsActive    bool           `gorm:"not null;default:true;index" json:"isActive"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// Profile is the subset of User returned to a terminal on login.
type Profile struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	MaxDiscount float64  `json:"maxDiscount"`
}

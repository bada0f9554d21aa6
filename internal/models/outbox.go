package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxStatus is the lifecycle state of an OutboxItem.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "PENDING"
	OutboxProcessing OutboxStatus = "PROCESSING"
	OutboxSynced     OutboxStatus = "SYNCED"
	OutboxDeadLetter OutboxStatus = "DEAD_LETTER"
)

// Priority conventions from the push engine's dispatch policy.
const (
	PrioritySaleOrRefund = 10
	PriorityShiftOrCash  = 5
	PriorityDefault      = 0
)

// OutboxItem is a durable, FIFO-by-priority record of a write the hub
// owes to the cloud. The table name is standardized on "outbox_queue";
// a sibling route in the source repo read from a singular "outbox"
// table, which the spec treats as a naming bug to not repeat.
type OutboxItem struct {
	ID            uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityType    string         `gorm:"type:varchar(64);not null;index:idx_outbox_pickup" json:"entityType"`
	EntityID      string         `gorm:"type:varchar(64);not null" json:"entityId"`
	Action        string         `gorm:"type:varchar(32);not null" json:"action"`
	Payload       datatypes.JSON `gorm:"not null" json:"payload"`
	CorrelationID *string        `gorm:"type:varchar(64)" json:"correlationId,omitempty"`
	Priority      int            `gorm:"not null;default:0;index:idx_outbox_pickup" json:"priority"`
	Status        OutboxStatus   `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_outbox_pickup" json:"status"`
	Attempts      int            `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts   int            `gorm:"not null;default:5" json:"maxAttempts"`
	Error         *string        `gorm:"type:text" json:"error,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;index:idx_outbox_pickup" json:"createdAt"`
	ProcessedAt   *time.Time     `json:"processedAt,omitempty"`
}

func (OutboxItem) TableName() string { return "outbox_queue" }

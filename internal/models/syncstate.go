package models

import "time"

// SyncStatus describes the outcome of the most recent pull attempt
// for one entity type.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "IDLE"
	SyncSyncing SyncStatus = "SYNCING"
	SyncSuccess SyncStatus = "SUCCESS"
	SyncError   SyncStatus = "ERROR"
)

// SyncState is the per-entity-type bookkeeping row the pull engine
// reads and writes. It collapses the source repo's SyncMetadata, which
// keyed on (instance_id, entity_type) for a multi-node mesh, down to a
// single row per entity type — this hub talks to exactly one cloud.
type SyncState struct {
	EntityType   string     `gorm:"primaryKey;type:varchar(64)" json:"entityType"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	Cursor       *string    `gorm:"type:text" json:"cursor,omitempty"`
	RecordCount  int        `gorm:"not null;default:0" json:"recordCount"`
	Status       SyncStatus `gorm:"type:varchar(16);not null;default:'IDLE'" json:"status"`
	LastError    *string    `gorm:"type:text" json:"lastError,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (SyncState) TableName() string { return "sync_states" }

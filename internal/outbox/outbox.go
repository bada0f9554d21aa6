// Package outbox implements queue semantics on top of the store: a
// durable, FIFO-by-priority record of writes the hub owes to the
// cloud. Every operation here either runs inside the caller's business
// transaction (Enqueue) or opens its own short transaction.
package outbox

import (
	"errors"
	"fmt"
	"time"

	"github.com/possync/edgehub/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyTerminal is returned when an administrative action targets
// a row that is already SYNCED or DEAD_LETTER and thus immutable.
var ErrAlreadyTerminal = errors.New("outbox: item is already terminal")

// Enqueue inserts one outbox row. Callers must invoke this inside the
// same transaction as the business write it describes — the combined
// insert guarantees no business fact exists without a corresponding
// push record and no orphan push record exists.
func Enqueue(tx *gorm.DB, item *models.OutboxItem) error {
	if item.MaxAttempts == 0 {
		item.MaxAttempts = 5
	}
	if item.Status == "" {
		item.Status = models.OutboxPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if err := tx.Create(item).Error; err != nil {
		return fmt.Errorf("outbox: enqueue failed: %w", err)
	}
	return nil
}

// ClaimBatch selects up to limit PENDING, retry-eligible items ordered
// by (priority DESC, createdAt ASC), and transitions each to
// PROCESSING with attempts incremented, all inside one transaction so
// two concurrent workers can never double-pick the same row.
func ClaimBatch(db *gorm.DB, limit int) ([]models.OutboxItem, error) {
	var claimed []models.OutboxItem

	err := db.Transaction(func(tx *gorm.DB) error {
		var items []models.OutboxItem
		if err := tx.
			Where("status = ? AND attempts < max_attempts", models.OutboxPending).
			Order("priority DESC, created_at ASC").
			Limit(limit).
			Find(&items).Error; err != nil {
			return fmt.Errorf("select pending: %w", err)
		}

		for _, item := range items {
			res := tx.Model(&models.OutboxItem{}).
				Where("id = ? AND status = ?", item.ID, models.OutboxPending).
				Updates(map[string]any{
					"status":   models.OutboxProcessing,
					"attempts": item.Attempts + 1,
				})
			if res.Error != nil {
				return fmt.Errorf("claim item %d: %w", item.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				// Lost the race to another claimer; skip.
				continue
			}
			item.Status = models.OutboxProcessing
			item.Attempts++
			claimed = append(claimed, item)
		}
		return nil
	})

	return claimed, err
}

// MarkSynced marks an item SYNCED, recording an optional note (e.g.
// "duplicate" when the cloud returned 409).
func MarkSynced(db *gorm.DB, id uint64, note string) error {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":       models.OutboxSynced,
		"processed_at": &now,
	}
	if note != "" {
		updates["error"] = note
	}
	return updateTerminalOr(db, id, models.OutboxSynced, updates)
}

// MarkDeadLetter marks an item DEAD_LETTER with a non-retriable
// failure reason.
func MarkDeadLetter(db *gorm.DB, id uint64, reason string) error {
	now := time.Now().UTC()
	return updateTerminalOr(db, id, models.OutboxDeadLetter, map[string]any{
		"status":       models.OutboxDeadLetter,
		"error":        reason,
		"processed_at": &now,
	})
}

// MarkPendingAgain resets a PROCESSING item back to PENDING after a
// retriable failure, recording the error. Callers are responsible for
// checking attempts against maxAttempts before calling this — when
// they are equal, the caller should call MarkDeadLetter instead.
func MarkPendingAgain(db *gorm.DB, id uint64, errMsg string) error {
	res := db.Model(&models.OutboxItem{}).
		Where("id = ? AND status = ?", id, models.OutboxProcessing).
		Updates(map[string]any{
			"status": models.OutboxPending,
			"error":  errMsg,
		})
	if res.Error != nil {
		return fmt.Errorf("outbox: mark pending again failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyTerminal
	}
	return nil
}

func updateTerminalOr(db *gorm.DB, id uint64, _ models.OutboxStatus, updates map[string]any) error {
	res := db.Model(&models.OutboxItem{}).
		Where("id = ? AND status NOT IN ?", id, []models.OutboxStatus{models.OutboxSynced, models.OutboxDeadLetter}).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("outbox: update failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyTerminal
	}
	return nil
}

// Stats groups outbox rows by status for observability.
func Stats(db *gorm.DB) (map[string]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	if err := db.Model(&models.OutboxItem{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("outbox: stats failed: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

// OldestPendingAge returns how long the oldest PENDING item has been
// waiting, or zero if none are pending.
func OldestPendingAge(db *gorm.DB) (time.Duration, error) {
	var item models.OutboxItem
	err := db.Where("status = ?", models.OutboxPending).
		Order("created_at ASC").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("outbox: oldest pending failed: %w", err)
	}
	return time.Since(item.CreatedAt), nil
}

// RetryDeadLetters resets matching DEAD_LETTER rows back to PENDING
// with attempts=0. When entityType is empty, all dead letters match.
func RetryDeadLetters(db *gorm.DB, entityType string) (int64, error) {
	query := db.Model(&models.OutboxItem{}).Where("status = ?", models.OutboxDeadLetter)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	res := query.Updates(map[string]any{
		"status":   models.OutboxPending,
		"attempts": 0,
		"error":    nil,
	})
	if res.Error != nil {
		return 0, fmt.Errorf("outbox: retry dead letters failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

package pull

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/possync/edgehub/internal/cloud"
	"github.com/possync/edgehub/internal/models"
	"gorm.io/gorm"
)

// response is the shape a pull endpoint returns: either an envelope
// with items/cursor/deletedIds, or (for simpler endpoints) a bare
// array, handled in decodeItems.
type response struct {
	Items      []map[string]any `json:"items"`
	HasMore    bool             `json:"hasMore"`
	NextCursor *string          `json:"nextCursor"`
	DeletedIDs []string         `json:"deletedIds"`
}

// Engine periodically walks the dependency-ordered plan, pulling each
// entity's deltas from the cloud and applying them locally.
type Engine struct {
	db       *gorm.DB
	client   *cloud.Client
	interval func() time.Duration
	plan     []EntityHandler

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New builds a pull Engine over the default entity plan.
func New(db *gorm.DB, client *cloud.Client, interval func() time.Duration) *Engine {
	return &Engine{
		db:       db,
		client:   client,
		interval: interval,
		plan:     Plan,
	}
}

// Start launches the ticker loop in a background goroutine.
func (e *Engine) Start(ctx context.Context) {
	if e.stopCh != nil {
		return
	}
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	log.Println("🔄 Pull engine starting...")
	go e.loop(ctx)
}

// Stop signals the loop to exit and waits for the in-flight cycle, if
// any, to finish.
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
	log.Println("🛑 Pull engine stopped")
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tick(ctx)
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	if !e.client.IsConfigured() {
		return
	}
	e.RunCycle(ctx)
}

// RunCycle walks the plan once, in order, pulling and applying each
// entity's deltas. It is exported so an administrative "manual pull"
// HTTP route can trigger a cycle synchronously without waiting for
// the ticker. It shares the single-flight guard with the ticker: if a
// cycle is already running, it returns at once.
func (e *Engine) RunCycle(ctx context.Context) {
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	defer e.running.Store(false)

	total := 0
	for _, handler := range e.plan {
		n, err := e.runEntity(ctx, handler)
		if err != nil {
			log.Printf("⚠️ pull: %s failed: %v", handler.EntityType, err)
			continue
		}
		total += n
	}
	log.Printf("✅ pull: cycle complete, %d rows applied", total)
}

func (e *Engine) runEntity(ctx context.Context, handler EntityHandler) (int, error) {
	state, err := e.loadSyncState(handler.EntityType)
	if err != nil {
		return 0, fmt.Errorf("load sync state: %w", err)
	}

	query := url.Values{}
	if state.LastSyncedAt != nil {
		query.Set("sinceVersion", state.LastSyncedAt.UTC().Format(time.RFC3339))
	}

	env, err := e.client.Get(ctx, handler.Endpoint, query)
	if err != nil {
		e.markSyncError(handler.EntityType, err.Error())
		return 0, err
	}

	if env.Status == 404 {
		// Endpoint not deployed yet on the cloud side; not an error.
		e.markSyncSuccess(handler.EntityType, 0)
		return 0, nil
	}
	if !env.OK {
		e.markSyncError(handler.EntityType, env.Error)
		return 0, fmt.Errorf("cloud returned status %d: %s", env.Status, env.Error)
	}

	items, deletedIDs, err := decodeItems(env.Data)
	if err != nil {
		e.markSyncError(handler.EntityType, err.Error())
		return 0, fmt.Errorf("decode response: %w", err)
	}

	transformed := transformRows(handler.EntityType, items)

	var applied int
	txErr := e.db.Transaction(func(tx *gorm.DB) error {
		n, err := handler.Upsert(tx, transformed)
		applied = n
		if err != nil {
			// Per-row failures do not abort the batch; the first one
			// is logged here and the entity is still marked SUCCESS
			// with the count of rows that were applied.
			log.Printf("⚠️ pull: %s: %v", handler.EntityType, err)
		}
		if tableForDeletes, ok := deletableTable(handler.EntityType); ok {
			if derr := deleteByIDs(tx, tableForDeletes, deletedIDs); derr != nil {
				return derr
			}
		}
		return nil
	})
	if txErr != nil {
		e.markSyncError(handler.EntityType, txErr.Error())
		return applied, txErr
	}

	e.markSyncSuccess(handler.EntityType, applied)
	return applied, nil
}

// deletableTable maps an entity type pulled with a deletedIds list to
// the table those ids apply to. Only products and deals are mapped;
// deletedIds for any other entity type are ignored.
func deletableTable(entityType string) (string, bool) {
	switch entityType {
	case "product":
		return "products", true
	case "deal":
		return "deals", true
	default:
		return "", false
	}
}

func decodeItems(data json.RawMessage) ([]map[string]any, []string, error) {
	if len(data) == 0 {
		return nil, nil, nil
	}

	// Bare array form.
	var asArray []map[string]any
	if err := json.Unmarshal(data, &asArray); err == nil {
		return asArray, nil, nil
	}

	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, nil, fmt.Errorf("unrecognized pull response shape: %w", err)
	}
	return r.Items, r.DeletedIDs, nil
}

func (e *Engine) loadSyncState(entityType string) (*models.SyncState, error) {
	var state models.SyncState
	err := e.db.FirstOrCreate(&state, models.SyncState{EntityType: entityType}).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (e *Engine) markSyncSuccess(entityType string, count int) {
	now := time.Now().UTC()
	err := e.db.Model(&models.SyncState{}).
		Where("entity_type = ?", entityType).
		Updates(map[string]any{
			"last_synced_at": &now,
			"record_count":   count,
			"status":         models.SyncSuccess,
			"last_error":     nil,
			"updated_at":     now,
		}).Error
	if err != nil {
		log.Printf("⚠️ pull: failed to update sync state for %s: %v", entityType, err)
	}
}

func (e *Engine) markSyncError(entityType, message string) {
	now := time.Now().UTC()
	err := e.db.Model(&models.SyncState{}).
		Where("entity_type = ?", entityType).
		Updates(map[string]any{
			"status":     models.SyncError,
			"last_error": message,
			"updated_at": now,
		}).Error
	if err != nil {
		log.Printf("⚠️ pull: failed to record sync error for %s: %v", entityType, err)
	}
}

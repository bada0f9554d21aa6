// Package push drains the outbox to the cloud on a ticker, one batch
// per tick, with the retry/dead-letter policy from the outbox's
// contract. Grounded on the teacher's sync.SyncEngine ticker/stopChan
// shape, narrowed to a single-flight atomic.Bool guard that both the
// tick loop and RunOnce check.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/possync/edgehub/internal/cloud"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
	"gorm.io/gorm"
)

// ErrNoEndpoint names the case of an outbox item whose entityType has
// no registered push endpoint. processItem dead-letters such an item
// with its own reason text; nothing returns or records this value.
var ErrNoEndpoint = errors.New("push: unknown entity type")

// endpoints maps an outbox entityType to the cloud push route. Kept as
// a static table per spec.md §4.4 step 2.
var endpoints = map[string]string{
	"sales":                    "/api/hub/push/sales",
	"kitchen_orders":           "/api/hub/push/kitchen-orders",
	"cash_drawers":             "/api/hub/push/cash-drawers",
	"cash_drawer_transactions": "/api/hub/push/cash-drawer-transactions",
	"shift_logs":               "/api/hub/push/shift-logs",
	"shift_breaks":             "/api/hub/push/shift-breaks",
	"refunds":                  "/api/hub/push/refunds",
	"guest_checks":             "/api/hub/push/guest-checks",
	"store_credit_entries":     "/api/hub/push/store-credit-entries",
	"table_sessions":           "/api/hub/push/table-sessions",
}

// envelope is the wire shape POSTed to the cloud for each item.
type envelope struct {
	EntityType    string          `json:"entityType"`
	EntityID      string          `json:"entityId"`
	Action        string          `json:"action"`
	Payload       json.RawMessage `json:"payload"`
	CorrelationID *string         `json:"correlationId,omitempty"`
}

// Engine periodically claims outbox batches and pushes each item to
// the cloud, applying the 2xx/409/4xx/5xx outcome policy.
type Engine struct {
	db        *gorm.DB
	client    *cloud.Client
	interval  func() time.Duration
	batchSize func() int

	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New builds a push Engine. interval and batchSize are resolved on
// every tick rather than captured once, so a config change (re-paired
// hub, operator tuning) takes effect without a restart.
func New(db *gorm.DB, client *cloud.Client, interval func() time.Duration, batchSize func() int) *Engine {
	return &Engine{
		db:        db,
		client:    client,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Start launches the ticker loop in a background goroutine. Calling
// Start twice is a no-op for the second call.
func (e *Engine) Start(ctx context.Context) {
	if e.stopCh != nil {
		return
	}
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	log.Println("🔄 Push engine starting...")
	go e.loop(ctx)
}

// Stop signals the loop to exit and waits for it to finish its
// current tick, if any.
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
	log.Println("🛑 Push engine stopped")
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

// tick runs one drain pass, skipping it entirely if a previous tick is
// still draining or the hub is not paired with a cloud.
func (e *Engine) tick(ctx context.Context) {
	if !e.client.IsConfigured() {
		return
	}
	if !e.running.CompareAndSwap(false, true) {
		return
	}
	defer e.running.Store(false)

	if err := e.drainBatch(ctx); err != nil {
		log.Printf("⚠️ push: drain batch failed: %v", err)
	}
}

// RunOnce drains a single batch immediately, for the manual
// /sync/push route. It honors the same single-flight guard as the
// ticker, so a manual trigger during an in-flight tick is a no-op.
func (e *Engine) RunOnce(ctx context.Context) error {
	if !e.client.IsConfigured() {
		return errors.New("push: hub is not paired with a cloud")
	}
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("push: a drain is already in progress")
	}
	defer e.running.Store(false)

	return e.drainBatch(ctx)
}

// drainBatch claims up to batchSize items and pushes each in turn. A
// failure on one item never aborts the rest of the batch.
func (e *Engine) drainBatch(ctx context.Context) error {
	items, err := outbox.ClaimBatch(e.db, e.batchSize())
	if err != nil {
		return fmt.Errorf("claim batch: %w", err)
	}

	for _, item := range items {
		e.processItem(ctx, item)
	}
	return nil
}

func (e *Engine) processItem(ctx context.Context, item models.OutboxItem) {
	endpoint, ok := endpoints[item.EntityType]
	if !ok {
		e.deadLetter(item.ID, "unknown entity type")
		return
	}

	if !json.Valid(item.Payload) {
		e.deadLetter(item.ID, "invalid payload")
		return
	}

	body := envelope{
		EntityType:    item.EntityType,
		EntityID:      item.EntityID,
		Action:        item.Action,
		Payload:       json.RawMessage(item.Payload),
		CorrelationID: item.CorrelationID,
	}

	env, err := e.client.Post(ctx, endpoint, body)
	if err != nil {
		log.Printf("⚠️ push: post failed for outbox item %d: %v", item.ID, err)
		e.retryOrDeadLetter(item, err.Error())
		return
	}

	switch {
	case env.OK:
		if markErr := outbox.MarkSynced(e.db, item.ID, ""); markErr != nil {
			log.Printf("⚠️ push: mark synced failed for item %d: %v", item.ID, markErr)
		}
	case env.Status == 409:
		if markErr := outbox.MarkSynced(e.db, item.ID, "duplicate"); markErr != nil {
			log.Printf("⚠️ push: mark synced (duplicate) failed for item %d: %v", item.ID, markErr)
		}
	case env.Status >= 400 && env.Status < 500:
		e.deadLetter(item.ID, envelopeError(env.Error))
	default:
		e.retryOrDeadLetter(item, envelopeError(env.Error))
	}
}

func envelopeError(msg string) string {
	if msg == "" {
		return "cloud rejected push"
	}
	return msg
}

func (e *Engine) retryOrDeadLetter(item models.OutboxItem, errMsg string) {
	if item.Attempts >= item.MaxAttempts {
		e.deadLetter(item.ID, "max attempts")
		return
	}
	if err := outbox.MarkPendingAgain(e.db, item.ID, errMsg); err != nil {
		log.Printf("⚠️ push: mark pending again failed for item %d: %v", item.ID, err)
	}
}

func (e *Engine) deadLetter(id uint64, reason string) {
	if err := outbox.MarkDeadLetter(e.db, id, reason); err != nil {
		log.Printf("⚠️ push: mark dead letter failed for item %d: %v", id, err)
	}
}

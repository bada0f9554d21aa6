// Package store wraps the embedded relational database that backs the
// hub: a single SQLite file per deployment, WAL journaling so readers
// never block writers, foreign keys enforced, and a busy timeout that
// absorbs brief write contention rather than surfacing it to callers.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/possync/edgehub/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound names a lookup by id that finds no row. No function in
// this package returns it; lookups surface gorm.ErrRecordNotFound.
var ErrNotFound = errors.New("store: not found")

// Store wraps *gorm.DB and owns the WAL checkpoint on shutdown.
type Store struct {
	*gorm.DB
	path string
}

// Open opens (creating if necessary) the SQLite file at path, applies
// the journaling/foreign-key/busy-timeout pragmas exactly once, and
// auto-migrates every model the hub owns.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("store: failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{DB: db, path: path}
	if err := s.autoMigrate(); err != nil {
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}

	log.Printf("✅ Store opened at %s (WAL, foreign_keys=on, busy_timeout=5s)", path)
	return s, nil
}

func (s *Store) autoMigrate() error {
	return s.DB.AutoMigrate(
		&models.OutboxItem{},
		&models.SyncState{},
		&models.OrderSequence{},
		&models.Session{},
		&models.User{},
		&models.Terminal{},

		&models.Category{},
		&models.Tax{},
		&models.Customer{},
		&models.Product{},
		&models.ProductOrderTypePrice{},
		&models.ProductPizzaConfig{},
		&models.Deal{},
		&models.DealItem{},
		&models.Modifier{},
		&models.PizzaBaseConfig{},
		&models.PizzaSizePricing{},
		&models.Floor{},
		&models.DiningTable{},

		&models.Sale{},
		&models.SaleItem{},
		&models.Payment{},
		&models.KitchenOrder{},
		&models.KitchenOrderItem{},
		&models.CashDrawer{},
		&models.CashDrawerTransaction{},
		&models.ShiftLog{},
		&models.ShiftBreak{},
		&models.Refund{},
		&models.GuestCheck{},
		&models.StoreCreditEntry{},
		&models.TableSession{},
	)
}

// Transaction runs fn inside a single atomic unit, rolling back on any
// returned error. Every write that produces a cloud-observable effect
// must go through this alongside its outbox insert, in the same call.
func (s *Store) Transaction(fn func(tx *gorm.DB) error) error {
	return s.DB.Transaction(fn)
}

// Checkpoint truncates the WAL back into the main database file. Call
// on graceful shutdown.
func (s *Store) Checkpoint() error {
	return s.DB.Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error
}

// Close releases the underlying *sql.DB connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a short opaque identifier — timestamp-base36 and
// random-base36 joined by a hyphen — unique within this process.
func (s *Store) NewID() string {
	ts := toBase36(uint64(time.Now().UnixNano()))
	return ts + "-" + randomBase36(8)
}

func toBase36(n uint64) string {
	if n == 0 {
		return "0"
	}
	var b strings.Builder
	base := uint64(len(idAlphabet))
	digits := make([]byte, 0, 16)
	for n > 0 {
		digits = append(digits, idAlphabet[n%base])
		n /= base
	}
	for i := len(digits) - 1; i >= 0; i-- {
		b.WriteByte(digits[i])
	}
	return b.String()
}

func randomBase36(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failures are effectively impossible on a
			// supported platform; fall back to a fixed char rather
			// than panic in a hot path.
			b[i] = idAlphabet[0]
			continue
		}
		b[i] = idAlphabet[idx.Int64()]
	}
	return string(b)
}

// NextReceiptNumber atomically increments the per-day OrderSequence
// counter and returns it formatted YYYYMMDD-NNNN.
func (s *Store) NextReceiptNumber(day time.Time) (string, error) {
	dateKey := day.UTC().Format("20060102")

	var seq models.OrderSequence
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// INSERT ... ON CONFLICT DO UPDATE SET current_value = current_value + 1
		if err := tx.Exec(
			`INSERT INTO order_sequences (date_key, current_value) VALUES (?, 1)
			 ON CONFLICT(date_key) DO UPDATE SET current_value = current_value + 1`,
			dateKey,
		).Error; err != nil {
			return err
		}
		return tx.First(&seq, "date_key = ?", dateKey).Error
	})
	if err != nil {
		return "", fmt.Errorf("store: next receipt number: %w", err)
	}

	return fmt.Sprintf("%s-%04d", dateKey, seq.CurrentValue), nil
}

// DiagnosticsInfo is the raw material behind the /api/diagnostics
// response: SQLite's page count and page size, whose product is the
// approximate file size.
type DiagnosticsInfo struct {
	PageCount int64
	PageSize  int64
}

// PageStats reads SQLite's own bookkeeping pragmas to approximate the
// on-disk size of the store without shelling out to `du`.
func (s *Store) PageStats() (DiagnosticsInfo, error) {
	var info DiagnosticsInfo
	if err := s.DB.Raw("PRAGMA page_count").Scan(&info.PageCount).Error; err != nil {
		return info, err
	}
	if err := s.DB.Raw("PRAGMA page_size").Scan(&info.PageSize).Error; err != nil {
		return info, err
	}
	return info, nil
}

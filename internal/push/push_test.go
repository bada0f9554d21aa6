package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/possync/edgehub/internal/cloud"
	"github.com/possync/edgehub/internal/config"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.OutboxItem{}))
	return db
}

func testClient(t *testing.T, baseURL string) *cloud.Client {
	t.Helper()
	return cloud.New(func() (*config.Config, error) {
		return &config.Config{
			CloudBaseURL: baseURL,
			CloudAPIKey:  "test-key",
			TenantID:     "tenant-1",
			LocationID:   "loc-1",
		}, nil
	})
}

// TestProcessItemSyncsOnSuccess covers S1: a straightforward 2xx push
// terminates the row as SYNCED.
func TestProcessItemSyncsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	item := &models.OutboxItem{EntityType: "sales", EntityID: "s1", Action: "create", Payload: []byte(`{}`)}
	require.NoError(t, outbox.Enqueue(db, item))

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour }, func() int { return 10 })
	e.processItem(context.Background(), *item)

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxSynced, reloaded.Status)
}

// TestProcessItemDuplicateIsSynced covers S2: a 409 from the cloud is
// treated as already-applied and still terminates the row as SYNCED.
func TestProcessItemDuplicateIsSynced(t *testing.T) {
	db := openTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	item := &models.OutboxItem{EntityType: "sales", EntityID: "s1", Action: "create", Payload: []byte(`{}`)}
	require.NoError(t, outbox.Enqueue(db, item))

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour }, func() int { return 10 })
	e.processItem(context.Background(), *item)

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxSynced, reloaded.Status)
	require.NotNil(t, reloaded.Error)
	require.Equal(t, "duplicate", *reloaded.Error)
}

func TestProcessItemPermanentRejectionDeadLetters(t *testing.T) {
	db := openTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	item := &models.OutboxItem{EntityType: "sales", EntityID: "s1", Action: "create", Payload: []byte(`{}`)}
	require.NoError(t, outbox.Enqueue(db, item))

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour }, func() int { return 10 })
	e.processItem(context.Background(), *item)

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxDeadLetter, reloaded.Status)
}

func TestProcessItemUnknownEntityTypeDeadLetters(t *testing.T) {
	db := openTestDB(t)
	item := &models.OutboxItem{EntityType: "mystery_widget", EntityID: "w1", Action: "create", Payload: []byte(`{}`)}
	require.NoError(t, outbox.Enqueue(db, item))

	e := New(db, testClient(t, "http://unused"), func() time.Duration { return time.Hour }, func() int { return 10 })
	e.processItem(context.Background(), *item)

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxDeadLetter, reloaded.Status)
	require.NotNil(t, reloaded.Error)
	require.Equal(t, "unknown entity type", *reloaded.Error)
}

func TestProcessItemInvalidPayloadDeadLetters(t *testing.T) {
	db := openTestDB(t)
	item := &models.OutboxItem{EntityType: "sales", EntityID: "s1", Action: "create", Payload: []byte(`not json`)}
	require.NoError(t, outbox.Enqueue(db, item))

	e := New(db, testClient(t, "http://unused"), func() time.Duration { return time.Hour }, func() int { return 10 })
	e.processItem(context.Background(), *item)

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxDeadLetter, reloaded.Status)
	require.NotNil(t, reloaded.Error)
	require.Equal(t, "invalid payload", *reloaded.Error)
}

// TestDrainBatchReachesDeadLetterAfterMaxAttempts covers S6: a row
// whose endpoint always 500s reaches DEAD_LETTER after exactly
// maxAttempts push cycles, then retry-dead-letters flips it back.
func TestDrainBatchReachesDeadLetterAfterMaxAttempts(t *testing.T) {
	db := openTestDB(t)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	item := &models.OutboxItem{EntityType: "sales", EntityID: "s1", Action: "create", Payload: []byte(`{}`), MaxAttempts: 3}
	require.NoError(t, outbox.Enqueue(db, item))

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour }, func() int { return 10 })

	for i := 0; i < 3; i++ {
		require.NoError(t, e.drainBatch(context.Background()))
	}

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxDeadLetter, reloaded.Status)
	require.Equal(t, 3, reloaded.Attempts)
	require.EqualValues(t, 3, hits)

	n, err := outbox.RetryDeadLetters(db, "")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var retried models.OutboxItem
	require.NoError(t, db.First(&retried, item.ID).Error)
	require.Equal(t, models.OutboxPending, retried.Status)
	require.Equal(t, 0, retried.Attempts)
}

// TestTickSkipsWhenAlreadyRunning exercises the single-flight guard
// directly, without depending on ticker timing.
func TestTickSkipsWhenAlreadyRunning(t *testing.T) {
	db := openTestDB(t)
	e := New(db, testClient(t, "http://unused"), func() time.Duration { return time.Hour }, func() int { return 10 })
	e.running.Store(true)
	e.tick(context.Background())
	require.True(t, e.running.Load(), "tick must not clear a guard it did not set")
}

func TestTickSkipsWhenNotConfigured(t *testing.T) {
	db := openTestDB(t)
	item := &models.OutboxItem{EntityType: "sales", EntityID: "s1", Action: "create", Payload: []byte(`{}`)}
	require.NoError(t, outbox.Enqueue(db, item))

	unconfigured := cloud.New(func() (*config.Config, error) { return &config.Config{}, nil })
	e := New(db, unconfigured, func() time.Duration { return time.Hour }, func() int { return 10 })
	e.tick(context.Background())

	var reloaded models.OutboxItem
	require.NoError(t, db.First(&reloaded, item.ID).Error)
	require.Equal(t, models.OutboxPending, reloaded.Status, "unconfigured hub must not claim items")
}

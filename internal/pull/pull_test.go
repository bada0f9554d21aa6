package pull

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/possync/edgehub/internal/cloud"
	"github.com/possync/edgehub/internal/config"
	"github.com/possync/edgehub/internal/models"
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
	require.NoError(t, db.AutoMigrate(
		&models.SyncState{},
		&models.Category{},
		&models.Product{},
		&models.ProductOrderTypePrice{},
		&models.ProductPizzaConfig{},
		&models.PizzaSizePricing{},
	))
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

func TestToSnakeCase(t *testing.T) {
	require.Equal(t, "base_price", toSnakeCase("basePrice"))
	require.Equal(t, "id", toSnakeCase("id"))
	require.Equal(t, "sku", toSnakeCase("sku"))
}

func TestTransformRowAppliesOverridesThenMechanicalRule(t *testing.T) {
	row := map[string]any{"pizzaSizeId": "sz1", "configId": "cfg1", "basePrice": 9.5}
	out := transformRow("pizza_size_pricing", row)
	require.Equal(t, "sz1", out["size_id"])
	require.Equal(t, "cfg1", out["config_id"])
	require.Equal(t, 9.5, out["base_price"])
}

func TestTransformRowCoercesBooleans(t *testing.T) {
	row := map[string]any{"isActive": true, "isDeleted": false}
	out := transformRow("category", row)
	require.Equal(t, 1, out["is_active"])
	require.Equal(t, 0, out["is_deleted"])
}

func TestRunEntityUpsertsBareArray(t *testing.T) {
	db := openTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"cat1","tenantId":"t1","name":"Pizza","sortOrder":1}]`))
	}))
	defer srv.Close()

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour })
	n, err := e.runEntity(context.Background(), Plan[0])
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var cat models.Category
	require.NoError(t, db.First(&cat, "id = ?", "cat1").Error)
	require.Equal(t, "Pizza", cat.Name)

	var state models.SyncState
	require.NoError(t, db.First(&state, "entity_type = ?", "category").Error)
	require.Equal(t, models.SyncSuccess, state.Status)
	require.Equal(t, 1, state.RecordCount)
	require.NotNil(t, state.LastSyncedAt)
}

func TestRunEntity404IsNotAnError(t *testing.T) {
	db := openTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour })
	n, err := e.runEntity(context.Background(), Plan[0])
	require.NoError(t, err)
	require.Equal(t, 0, n)

	var state models.SyncState
	require.NoError(t, db.First(&state, "entity_type = ?", "category").Error)
	require.Equal(t, models.SyncSuccess, state.Status)
}

func TestRunEntityFaultIsolationContinuesCycle(t *testing.T) {
	db := openTestDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour })
	_, err := e.runEntity(context.Background(), Plan[0])
	require.Error(t, err)

	var state models.SyncState
	require.NoError(t, db.First(&state, "entity_type = ?", "category").Error)
	require.Equal(t, models.SyncError, state.Status)
	require.NotNil(t, state.LastError)

	// RunCycle must not panic or stop at the first failing entity.
	require.NotPanics(t, func() { e.RunCycle(context.Background()) })
}

func TestRunEntityEmbedsOrderTypePrices(t *testing.T) {
	db := openTestDB(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/hub/sync/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"p1","tenantId":"t1","name":"Large Pizza","basePrice":12.0,"orderTypePrices":[{"id":"otp1","orderType":"DELIVERY","price":14.0}]}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour })

	var productHandler EntityHandler
	for _, h := range Plan {
		if h.EntityType == "product" {
			productHandler = h
		}
	}
	require.NotEmpty(t, productHandler.EntityType)

	_, err := e.runEntity(context.Background(), productHandler)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", "p1").Error)

	var companion models.ProductOrderTypePrice
	require.NoError(t, db.First(&companion, "id = ?", "otp1").Error)
	require.Equal(t, "p1", companion.ProductID)
	require.Equal(t, "DELIVERY", companion.OrderType)
}

func TestRunEntityEmbedsPizzaProductConfig(t *testing.T) {
	db := openTestDB(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/hub/sync/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"p1","tenantId":"t1","name":"Large Pizza","basePrice":12.0,"pizzaProductConfig":{"baseConfigId":"base1","defaultSizeId":"sz1"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour })

	var productHandler EntityHandler
	for _, h := range Plan {
		if h.EntityType == "product" {
			productHandler = h
		}
	}
	require.NotEmpty(t, productHandler.EntityType)

	_, err := e.runEntity(context.Background(), productHandler)
	require.NoError(t, err)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", "p1").Error)

	var companion models.ProductPizzaConfig
	require.NoError(t, db.First(&companion, "product_id = ?", "p1").Error)
	require.Equal(t, "base1", companion.BaseConfigID)
	require.Equal(t, "sz1", companion.DefaultSizeID)
}

func TestRunEntityFullReplaceDeletesThenInserts(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&models.PizzaSizePricing{ID: 999, SizeID: "stale", ConfigID: "stale", Price: 1}).Error)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"pizzaSizeId":"sz1","configId":"cfg1","price":9.5}]`))
	}))
	defer srv.Close()

	var handler EntityHandler
	for _, h := range Plan {
		if h.EntityType == "pizza_size_pricing" {
			handler = h
		}
	}
	require.True(t, handler.FullReplace)

	e := New(db, testClient(t, srv.URL), func() time.Duration { return time.Hour })
	n, err := e.runEntity(context.Background(), handler)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var rows []models.PizzaSizePricing
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, "sz1", rows[0].SizeID)
}

func TestTickSkipsWhenNotConfigured(t *testing.T) {
	db := openTestDB(t)
	unconfigured := cloud.New(func() (*config.Config, error) { return &config.Config{}, nil })
	e := New(db, unconfigured, func() time.Duration { return time.Hour })
	e.tick(context.Background())

	var count int64
	db.Model(&models.SyncState{}).Count(&count)
	require.Zero(t, count, "unconfigured hub must not run a pull cycle")
}

func TestTickSkipsWhenAlreadyRunning(t *testing.T) {
	db := openTestDB(t)
	e := New(db, testClient(t, "http://unused"), func() time.Duration { return time.Hour })
	e.running.Store(true)
	e.tick(context.Background())
	require.True(t, e.running.Load())
}

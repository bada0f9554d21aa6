// Package httpapi is the terminal-facing JSON HTTP surface: sales,
// kitchen orders, cash drawer control, session login, sync controls,
// diagnostics, and the WebSocket upgrade endpoint. Grounded on the
// teacher's internal/handlers.Router (a struct embedding *mux.Router,
// one method per route, a shared respondJSON helper).
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/possync/edgehub/internal/cloud"
	"github.com/possync/edgehub/internal/config"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
	"github.com/possync/edgehub/internal/pull"
	"github.com/possync/edgehub/internal/push"
	"github.com/possync/edgehub/internal/realtime"
	"github.com/possync/edgehub/internal/session"
	"github.com/possync/edgehub/internal/store"
	"gorm.io/gorm"
)

// Server wires every component the HTTP surface depends on and owns
// the mux.Router built from them.
type Server struct {
	*mux.Router

	store    *store.Store
	cloud    *cloud.Client
	sessions *session.Service
	hub      *realtime.Hub
	push     *push.Engine
	pull     *pull.Engine
	cfg      func() (*config.Config, error)
	pairing  *pairingState
}

// New builds a Server and registers every route.
func New(st *store.Store, cloudClient *cloud.Client, sessions *session.Service, hub *realtime.Hub, pushEngine *push.Engine, pullEngine *pull.Engine, loadConfig func() (*config.Config, error)) *Server {
	s := &Server{
		Router:   mux.NewRouter(),
		store:    st,
		cloud:    cloudClient,
		sessions: sessions,
		hub:      hub,
		push:     pushEngine,
		pull:     pullEngine,
		cfg:      loadConfig,
		pairing:  newPairingState(),
	}

	s.Use(recoverMiddleware)
	s.Use(corsMiddleware)

	s.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.HandleFunc("/api/diagnostics", s.diagnostics).Methods(http.MethodGet)

	s.HandleFunc("/api/sessions/login", s.login).Methods(http.MethodPost)
	s.HandleFunc("/api/sessions/logout", s.logout).Methods(http.MethodPost)

	protected := s.PathPrefix("/api").Subrouter()
	protected.Use(s.sessionMiddleware)

	protected.HandleFunc("/sales", s.createSale).Methods(http.MethodPost)
	protected.HandleFunc("/kitchen-orders", s.createKitchenOrder).Methods(http.MethodPost)
	protected.HandleFunc("/kitchen-orders/{id}/bump", s.bumpKitchenOrder).Methods(http.MethodPost)
	protected.HandleFunc("/cash-drawers/{id}/open", s.openCashDrawer).Methods(http.MethodPost)
	protected.HandleFunc("/cash-drawers/{id}/close", s.closeCashDrawer).Methods(http.MethodPost)

	protected.HandleFunc("/sync/status", s.syncStatus).Methods(http.MethodGet)
	protected.HandleFunc("/sync/pull", s.triggerPull).Methods(http.MethodPost)
	protected.HandleFunc("/sync/push", s.triggerPush).Methods(http.MethodPost)
	protected.HandleFunc("/sync/retry-dead-letters", s.retryDeadLetters).Methods(http.MethodPost)
	protected.HandleFunc("/sync/reset-cursor", s.resetCursor).Methods(http.MethodPost)

	s.HandleFunc("/api/hub/pair/init", s.pairInit).Methods(http.MethodPost)
	s.HandleFunc("/api/hub/pair/status", s.pairStatus).Methods(http.MethodGet)

	s.HandleFunc("/ws", s.serveWS).Methods(http.MethodGet)

	return s
}

func (s *Server) db() *gorm.DB {
	return s.store.DB
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) diagnostics(w http.ResponseWriter, r *http.Request) {
	stats, err := outbox.Stats(s.db())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	oldestPending, err := outbox.OldestPendingAge(s.db())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pageStats, err := s.store.PageStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"outbox": map[string]any{
			"byStatus":          stats,
			"oldestPendingSecs": oldestPending.Seconds(),
			"deadLetterCount":   stats[string(models.OutboxDeadLetter)],
		},
		"connectedRealtimeClients": s.hub.ConnectedCount(),
		"dbSizeBytes":              pageStats.PageCount * pageStats.PageSize,
	})
}

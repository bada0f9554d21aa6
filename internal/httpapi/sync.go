package httpapi

import (
	"net/http"

	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
)

// syncStatus reports per-entity pull cursor state plus outbox health,
// the terminal's view into how far behind the hub is from the cloud.
func (s *Server) syncStatus(w http.ResponseWriter, r *http.Request) {
	var states []models.SyncState
	if err := s.db().Order("entity_type").Find(&states).Error; err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

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

	respondJSON(w, http.StatusOK, map[string]any{
		"pull": states,
		"push": map[string]any{
			"byStatus":          stats,
			"oldestPendingSecs": oldestPending.Seconds(),
		},
		"cloudConfigured": s.cloud.IsConfigured(),
	})
}

// triggerPull runs one pull cycle across every entity synchronously
// and reports when it's done. If a cycle is already running it returns
// at once without starting another. Intended for an operator "sync
// now" button, not routine polling.
func (s *Server) triggerPull(w http.ResponseWriter, r *http.Request) {
	s.pull.RunCycle(r.Context())
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// triggerPush drains a single outbox batch immediately.
func (s *Server) triggerPush(w http.ResponseWriter, r *http.Request) {
	if err := s.push.RunOnce(r.Context()); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type retryDeadLettersRequest struct {
	EntityType string `json:"entityType"`
}

// retryDeadLetters resets every DEAD_LETTER outbox row for the given
// entityType (or every entityType, if omitted) back to PENDING with
// its attempt counter cleared.
func (s *Server) retryDeadLetters(w http.ResponseWriter, r *http.Request) {
	var req retryDeadLettersRequest
	_ = decodeJSON(r, &req)

	count, err := outbox.RetryDeadLetters(s.db(), req.EntityType)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"retried": count})
}

type resetCursorRequest struct {
	EntityType string `json:"entityType"`
}

// resetCursor clears a pull entity's LastSyncedAt, forcing the next
// pull cycle to re-fetch its full history. An operator escape hatch
// for a cursor that's drifted out of sync with the cloud's data.
func (s *Server) resetCursor(w http.ResponseWriter, r *http.Request) {
	var req resetCursorRequest
	if err := decodeJSON(r, &req); err != nil || req.EntityType == "" {
		respondError(w, http.StatusBadRequest, "entityType is required")
		return
	}

	err := s.db().Model(&models.SyncState{}).
		Where("entity_type = ?", req.EntityType).
		Updates(map[string]any{"last_synced_at": nil, "cursor": nil}).Error
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

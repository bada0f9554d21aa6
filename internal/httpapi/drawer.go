package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
	"gorm.io/gorm"
)

// errDrawerAlreadyClosed marks the conflict spec.md §7 lists for
// "closing a non-open drawer" — mapped to 400, never a silent 200.
var errDrawerAlreadyClosed = errors.New("cash drawer is already closed")

type openDrawerRequest struct {
	TerminalID string  `json:"terminalId"`
	OpenedWith float64 `json:"openedWith"`
}

// openCashDrawer creates a new CashDrawer for a terminal and records
// its opening float as the first CashDrawerTransaction.
func (s *Server) openCashDrawer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req openDrawerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.TerminalID == "" {
		respondError(w, http.StatusBadRequest, "terminalId is required")
		return
	}

	drawer := &models.CashDrawer{
		ID:         id,
		TerminalID: req.TerminalID,
		Status:     "OPEN",
		OpenedAt:   time.Now().UTC(),
		SyncStatus: "PENDING",
	}

	err := s.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(drawer).Error; err != nil {
			return fmt.Errorf("create cash drawer: %w", err)
		}
		if err := tx.Create(&models.CashDrawerTransaction{
			CashDrawerID: drawer.ID,
			Kind:         "OPEN",
			Amount:       req.OpenedWith,
			CreatedAt:    time.Now().UTC(),
		}).Error; err != nil {
			return fmt.Errorf("create open transaction: %w", err)
		}

		payload, err := json.Marshal(drawer)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		correlationID := drawer.ID
		return outbox.Enqueue(tx, &models.OutboxItem{
			EntityType:    "cash_drawers",
			EntityID:      drawer.ID,
			Action:        "create",
			Payload:       payload,
			CorrelationID: &correlationID,
			Priority:      models.PriorityShiftOrCash,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast("drawer:opened", drawer, nil)

	respondJSON(w, http.StatusCreated, drawer)
}

// closeCashDrawer marks a drawer CLOSED and records the closing count
// as a CashDrawerTransaction.
func (s *Server) closeCashDrawer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req struct {
		ClosingCount float64 `json:"closingCount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	var drawer models.CashDrawer
	err := s.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&drawer, "id = ?", id).Error; err != nil {
			return err
		}
		if drawer.Status == "CLOSED" {
			return errDrawerAlreadyClosed
		}

		now := time.Now().UTC()
		drawer.Status = "CLOSED"
		drawer.ClosedAt = &now

		if err := tx.Save(&drawer).Error; err != nil {
			return fmt.Errorf("update cash drawer: %w", err)
		}
		if err := tx.Create(&models.CashDrawerTransaction{
			CashDrawerID: drawer.ID,
			Kind:         "CLOSE",
			Amount:       req.ClosingCount,
			CreatedAt:    now,
		}).Error; err != nil {
			return fmt.Errorf("create close transaction: %w", err)
		}

		payload, err := json.Marshal(drawer)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		correlationID := drawer.ID
		return outbox.Enqueue(tx, &models.OutboxItem{
			EntityType:    "cash_drawers",
			EntityID:      drawer.ID,
			Action:        "update",
			Payload:       payload,
			CorrelationID: &correlationID,
			Priority:      models.PriorityShiftOrCash,
		})
	})
	if err == gorm.ErrRecordNotFound {
		respondError(w, http.StatusNotFound, "cash drawer not found")
		return
	}
	if err == errDrawerAlreadyClosed {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast("drawer:closed", drawer, nil)

	respondJSON(w, http.StatusOK, drawer)
}

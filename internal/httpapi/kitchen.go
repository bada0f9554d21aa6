package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
	"github.com/possync/edgehub/internal/realtime"
	"gorm.io/gorm"
)

type kitchenItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type createKitchenOrderRequest struct {
	SaleID  *string              `json:"saleId,omitempty"`
	TableID *string              `json:"tableId,omitempty"`
	Items   []kitchenItemRequest `json:"items"`
}

func (s *Server) createKitchenOrder(w http.ResponseWriter, r *http.Request) {
	var req createKitchenOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "kitchen order must have at least one item")
		return
	}

	order := &models.KitchenOrder{
		ID:         s.store.NewID(),
		SaleID:     req.SaleID,
		TableID:    req.TableID,
		Status:     models.KitchenStatusPending,
		SyncStatus: "PENDING",
		CreatedAt:  time.Now().UTC(),
	}

	err := s.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("create kitchen order: %w", err)
		}
		for _, item := range req.Items {
			if err := tx.Create(&models.KitchenOrderItem{
				KitchenOrderID: order.ID,
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				Notes:          item.Notes,
			}).Error; err != nil {
				return fmt.Errorf("create kitchen order item: %w", err)
			}
		}

		payload, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		correlationID := order.ID
		return outbox.Enqueue(tx, &models.OutboxItem{
			EntityType:    "kitchen_orders",
			EntityID:      order.ID,
			Action:        "create",
			Payload:       payload,
			CorrelationID: &correlationID,
			Priority:      models.PriorityDefault,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast("order:created", order, &realtime.Filter{Role: "kds"})

	respondJSON(w, http.StatusCreated, order)
}

// bumpKitchenOrder advances a kitchen order's status lifecycle:
// PENDING -> PREPARING -> READY -> COMPLETED. A bump on an
// already-COMPLETED order is not a transition: it writes nothing,
// enqueues no outbox row, broadcasts nothing, and reports
// {success:false} (spec.md §8 S5).
func (s *Server) bumpKitchenOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var order models.KitchenOrder
	var transitioned bool
	err := s.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", id).Error; err != nil {
			return err
		}

		if order.Status == models.KitchenStatusCompleted {
			return nil
		}
		transitioned = true

		next, done := nextKitchenStatus(order.Status)
		order.Status = next
		now := time.Now().UTC()
		if done {
			order.CompletedAt = &now
		} else if order.FiredAt == nil {
			order.FiredAt = &now
		}

		if err := tx.Save(&order).Error; err != nil {
			return fmt.Errorf("update kitchen order: %w", err)
		}

		payload, err := json.Marshal(order)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		correlationID := order.ID
		return outbox.Enqueue(tx, &models.OutboxItem{
			EntityType:    "kitchen_orders",
			EntityID:      order.ID,
			Action:        "update",
			Payload:       payload,
			CorrelationID: &correlationID,
			Priority:      models.PriorityDefault,
		})
	})
	if err == gorm.ErrRecordNotFound {
		respondError(w, http.StatusNotFound, "kitchen order not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !transitioned {
		respondJSON(w, http.StatusOK, map[string]any{"success": false, "order": order})
		return
	}

	s.hub.Broadcast("order:status", order, nil)

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func nextKitchenStatus(current string) (next string, completed bool) {
	switch current {
	case models.KitchenStatusPending:
		return models.KitchenStatusPreparing, false
	case models.KitchenStatusPreparing:
		return models.KitchenStatusReady, false
	case models.KitchenStatusReady:
		return models.KitchenStatusCompleted, true
	default:
		return current, current == models.KitchenStatusCompleted
	}
}

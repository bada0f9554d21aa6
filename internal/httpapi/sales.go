package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/possync/edgehub/internal/models"
	"github.com/possync/edgehub/internal/outbox"
	"gorm.io/gorm"
)

type saleItemRequest struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type paymentRequest struct {
	Method string  `json:"method"`
	Amount float64 `json:"amount"`
}

type createSaleRequest struct {
	CustomerID *string           `json:"customerId,omitempty"`
	Items      []saleItemRequest `json:"items"`
	Payments   []paymentRequest  `json:"payments"`
}

// createSale implements the five-step mutating-route contract
// (spec.md §4.8): validate, open a transaction, write the business
// rows, enqueue one outbox row, commit, then broadcast.
func (s *Server) createSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "sale must have at least one item")
		return
	}

	sess, _ := sessionFromContext(r.Context())
	terminalID := r.Header.Get("x-terminal-id")

	var total float64
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			respondError(w, http.StatusBadRequest, "item quantity must be positive")
			return
		}
		total += item.UnitPrice * float64(item.Quantity)
	}

	receiptNumber, err := s.store.NextReceiptNumber(time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sale := &models.Sale{
		ID:            s.store.NewID(),
		ReceiptNumber: receiptNumber,
		CustomerID:    req.CustomerID,
		Total:         total,
		Status:        "COMPLETED",
		SyncStatus:    "PENDING",
		CreatedAt:     time.Now().UTC(),
	}
	if terminalID != "" {
		sale.TerminalID = &terminalID
	}
	if sess != nil {
		sale.UserID = &sess.UserID
	}

	err = s.db().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sale).Error; err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		for _, item := range req.Items {
			if err := tx.Create(&models.SaleItem{
				SaleID:    sale.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			}).Error; err != nil {
				return fmt.Errorf("create sale item: %w", err)
			}
		}
		for _, p := range req.Payments {
			if err := tx.Create(&models.Payment{
				SaleID: sale.ID,
				Method: p.Method,
				Amount: p.Amount,
			}).Error; err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
		}

		payload, err := json.Marshal(sale)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		correlationID := sale.ID
		return outbox.Enqueue(tx, &models.OutboxItem{
			EntityType:    "sales",
			EntityID:      sale.ID,
			Action:        "create",
			Payload:       payload,
			CorrelationID: &correlationID,
			Priority:      models.PrioritySaleOrRefund,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast("sale:created", sale, nil)

	respondJSON(w, http.StatusCreated, sale)
}

package models

import "time"

// Transactional entities originate at the hub. They reach the cloud
// only via the outbox. SyncStatus is set to PENDING when a row is
// created; nothing updates it afterwards, so it does not follow the
// OutboxItem's later SYNCED or DEAD_LETTER state. It is never read
// back to drive control flow.

type Sale struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ReceiptNumber string     `gorm:"type:varchar(16);uniqueIndex" json:"receiptNumber"`
	TerminalID    *string    `gorm:"type:varchar(64)" json:"terminalId,omitempty"`
	UserID        *string    `gorm:"type:varchar(64)" json:"userId,omitempty"`
	CustomerID    *string    `gorm:"type:varchar(64)" json:"customerId,omitempty"`
	Total         float64    `json:"total"`
	Status        string     `gorm:"type:varchar(16);not null;default:'COMPLETED'" json:"status"`
	SyncStatus    string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
	VoidedAt      *time.Time `json:"voidedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`

	Items    []SaleItem `gorm:"foreignKey:SaleID" json:"items,omitempty"`
	Payments []Payment  `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
}

func (Sale) TableName() string { return "sales" }

type SaleItem struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID    string  `gorm:"type:varchar(64);not null;index" json:"saleId"`
	ProductID string  `gorm:"type:varchar(64);not null" json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

func (SaleItem) TableName() string { return "sale_items" }

type Payment struct {
	ID     uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SaleID string  `gorm:"type:varchar(64);not null;index" json:"saleId"`
	Method string  `gorm:"type:varchar(16);not null" json:"method"`
	Amount float64 `json:"amount"`
}

func (Payment) TableName() string { return "payments" }

// Kitchen order status lifecycle driven by repeated bumps.
const (
	KitchenStatusPending   = "PENDING"
	KitchenStatusPreparing = "PREPARING"
	KitchenStatusReady     = "READY"
	KitchenStatusCompleted = "COMPLETED"
)

type KitchenOrder struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SaleID      *string    `gorm:"type:varchar(64)" json:"saleId,omitempty"`
	TableID     *string    `gorm:"type:varchar(64)" json:"tableId,omitempty"`
	Status      string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	SyncStatus  string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
	FiredAt     *time.Time `json:"firedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`

	Items []KitchenOrderItem `gorm:"foreignKey:KitchenOrderID" json:"items,omitempty"`
}

func (KitchenOrder) TableName() string { return "kitchen_orders" }

type KitchenOrderItem struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	KitchenOrderID string `gorm:"type:varchar(64);not null;index" json:"kitchenOrderId"`
	ProductID      string `gorm:"type:varchar(64);not null" json:"productId"`
	Quantity       int    `json:"quantity"`
	Notes          string `json:"notes"`
}

func (KitchenOrderItem) TableName() string { return "kitchen_order_items" }

type CashDrawer struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TerminalID string     `gorm:"type:varchar(64);not null" json:"terminalId"`
	Status     string     `gorm:"type:varchar(16);not null;default:'OPEN'" json:"status"` // OPEN, CLOSED
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	SyncStatus string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
}

func (CashDrawer) TableName() string { return "cash_drawers" }

type CashDrawerTransaction struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CashDrawerID string    `gorm:"type:varchar(64);not null;index" json:"cashDrawerId"`
	Kind         string    `gorm:"type:varchar(16);not null" json:"kind"` // OPEN, SALE, PAID_IN, PAID_OUT, CLOSE
	Amount       float64   `json:"amount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (CashDrawerTransaction) TableName() string { return "cash_drawer_transactions" }

type ShiftLog struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID     string     `gorm:"type:varchar(64);not null" json:"userId"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	SyncStatus string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
}

func (ShiftLog) TableName() string { return "shift_logs" }

type ShiftBreak struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ShiftLogID string     `gorm:"type:varchar(64);not null;index" json:"shiftLogId"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
}

func (ShiftBreak) TableName() string { return "shift_breaks" }

type Refund struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SaleID     string    `gorm:"type:varchar(64);not null;index" json:"saleId"`
	Amount     float64   `json:"amount"`
	Reason     string    `json:"reason"`
	SyncStatus string    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Refund) TableName() string { return "refunds" }

type GuestCheck struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TableID    *string   `gorm:"type:varchar(64)" json:"tableId,omitempty"`
	GuestCount int       `json:"guestCount"`
	Status     string    `gorm:"type:varchar(16);not null;default:'OPEN'" json:"status"`
	SyncStatus string    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (GuestCheck) TableName() string { return "guest_checks" }

type StoreCreditEntry struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID string    `gorm:"type:varchar(64);not null;index" json:"customerId"`
	Amount     float64   `json:"amount"` // positive = credit issued, negative = redeemed
	Reason     string    `json:"reason"`
	SyncStatus string    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (StoreCreditEntry) TableName() string { return "store_credit_entries" }

type TableSession struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TableID    string     `gorm:"type:varchar(64);not null;index" json:"tableId"`
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	SyncStatus string     `gorm:"type:varchar(16);not null;default:'PENDING'" json:"syncStatus"`
}

func (TableSession) TableName() string { return "table_sessions" }

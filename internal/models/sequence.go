package models

// OrderSequence mints per-day monotonic receipt numbers via atomic
// increment (see store.Store.NextReceiptNumber).
type OrderSequence struct {
	DateKey      string `gorm:"primaryKey;type:varchar(8)" json:"dateKey"`
	CurrentValue int64  `gorm:"not null;default:0" json:"currentValue"`
}

func (OrderSequence) TableName() string { return "order_sequences" }

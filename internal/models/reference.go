package models

import "time"

// Reference entities mirror cloud-owned data. The hub only ever reads
// and upserts them; local edits are not supported. Every column but
// the primary key is overwritten wholesale by the pull engine on
// upsert, so these structs carry no BeforeUpdate hooks or computed
// fields.

type Category struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);index" json:"tenantId"`
	Name      string    `json:"name"`
	ParentID  *string   `gorm:"type:varchar(64);index" json:"parentId,omitempty"`
	SortOrder int       `json:"sortOrder"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Category) TableName() string { return "categories" }

type Tax struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);index" json:"tenantId"`
	Name      string    `json:"name"`
	Rate      float64   `json:"rate"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Tax) TableName() string { return "taxes" }

type Customer struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID    string    `gorm:"type:varchar(64);index" json:"tenantId"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	LoyaltyPts  int       `json:"loyaltyPoints"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Customer) TableName() string { return "customers" }

type Product struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID   string    `gorm:"type:varchar(64);index" json:"tenantId"`
	LocationID string    `gorm:"type:varchar(64);index" json:"locationId"`
	CategoryID *string   `gorm:"type:varchar(64);index" json:"categoryId,omitempty"`
	TaxID      *string   `gorm:"type:varchar(64);index" json:"taxId,omitempty"`
	Name       string    `json:"name"`
	SKU        string    `json:"sku"`
	BasePrice  float64   `json:"basePrice"`
	IsActive   bool      `json:"isActive"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Product) TableName() string { return "products" }

// ProductOrderTypePrice is an embedded object in the cloud's product
// payload (orderTypePrices), stored in its own companion table.
type ProductOrderTypePrice struct {
	ID        string  `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProductID string  `gorm:"type:varchar(64);not null;index" json:"productId"`
	OrderType string  `gorm:"type:varchar(32);not null" json:"orderType"` // dine_in, takeout, delivery
	Price     float64 `json:"price"`
}

func (ProductOrderTypePrice) TableName() string { return "product_order_type_prices" }

// ProductPizzaConfig is an embedded object in the cloud's product
// payload (pizzaProductConfig), carried only by products that are
// pizzas; it links a product to its base/size pricing config.
type ProductPizzaConfig struct {
	ProductID     string `gorm:"primaryKey;type:varchar(64)" json:"productId"`
	BaseConfigID  string `gorm:"type:varchar(64);not null;index" json:"baseConfigId"`
	DefaultSizeID string `gorm:"type:varchar(64)" json:"defaultSizeId"`
}

func (ProductPizzaConfig) TableName() string { return "product_pizza_configs" }

type Deal struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);index" json:"tenantId"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	IsActive  bool      `json:"isActive"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Deal) TableName() string { return "deals" }

type DealItem struct {
	ID        string `gorm:"primaryKey;type:varchar(64)" json:"id"`
	DealID    string `gorm:"type:varchar(64);not null;index" json:"dealId"`
	ProductID string `gorm:"type:varchar(64);not null;index" json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (DealItem) TableName() string { return "deal_items" }

type Modifier struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);index" json:"tenantId"`
	ProductID *string   `gorm:"type:varchar(64);index" json:"productId,omitempty"`
	Name      string    `json:"name"`
	PriceDiff float64   `json:"priceDiff"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Modifier) TableName() string { return "modifiers" }

// PizzaBaseConfig is upserted by id, like the other reference tables.
type PizzaBaseConfig struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID   string    `gorm:"type:varchar(64);index" json:"tenantId"`
	Name       string    `json:"name"`
	SizeCount  int       `json:"sizeCount"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (PizzaBaseConfig) TableName() string { return "pizza_base_configs" }

// PizzaSizePricing is full-replaced on every pull (spec.md §9 Open
// Questions: cloud ids for this table may be recycled across syncs).
type PizzaSizePricing struct {
	ID      uint64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SizeID  string  `gorm:"type:varchar(64);not null;index" json:"sizeId"`
	ConfigID string `gorm:"type:varchar(64);not null;index" json:"configId"`
	Price   float64 `json:"price"`
}

func (PizzaSizePricing) TableName() string { return "pizza_size_pricing" }

type Floor struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TenantID  string    `gorm:"type:varchar(64);index" json:"tenantId"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Floor) TableName() string { return "floors" }

// DiningTable is a physical table on a floor. Named to avoid colliding
// with the SQL keyword and the gorm TableName() method convention.
type DiningTable struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	FloorID   string    `gorm:"type:varchar(64);not null;index" json:"floorId"`
	Name      string    `json:"name"`
	Seats     int       `json:"seats"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DiningTable) TableName() string { return "dining_tables" }

package pull

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntityHandler describes one step of the pull plan: where to fetch
// an entity's deltas from and how to apply them locally. The plan is
// a flat, hand-enumerated list rather than a generic metaprogramming
// layer — spec.md §9's explicit guidance, matching the teacher's
// one-function-per-entity odoo sync style.
type EntityHandler struct {
	EntityType  string
	Endpoint    string
	FullReplace bool
	Upsert      func(tx *gorm.DB, rows []map[string]any) (int, error)
}

// Plan is the dependency-ordered sequence of entity handlers: a
// referenced table is always pulled before a referencing one
// (categories before products, deals before deal items, pizza base
// configs before pizza pricing).
var Plan = []EntityHandler{
	{
		EntityType: "category",
		Endpoint:   "/api/hub/sync/categories",
		Upsert:     simpleUpsert("categories"),
	},
	{
		EntityType: "tax",
		Endpoint:   "/api/hub/sync/taxes",
		Upsert:     simpleUpsert("taxes"),
	},
	{
		EntityType: "product",
		Endpoint:   "/api/hub/sync/products",
		Upsert:     upsertProducts,
	},
	{
		EntityType: "product_order_type_price",
		Endpoint:   "/api/hub/sync/product-order-type-prices",
		Upsert:     simpleUpsert("product_order_type_prices"),
	},
	{
		EntityType: "customer",
		Endpoint:   "/api/hub/sync/customers",
		Upsert:     simpleUpsert("customers"),
	},
	{
		EntityType: "deal",
		Endpoint:   "/api/hub/sync/deals",
		Upsert:     simpleUpsert("deals"),
	},
	{
		EntityType: "deal_item",
		Endpoint:   "/api/hub/sync/deal-items",
		Upsert:     simpleUpsert("deal_items"),
	},
	{
		EntityType: "modifier",
		Endpoint:   "/api/hub/sync/modifiers",
		Upsert:     simpleUpsert("modifiers"),
	},
	{
		EntityType: "pizza_base_config",
		Endpoint:   "/api/hub/sync/pizza-base-configs",
		Upsert:     simpleUpsert("pizza_base_configs"),
	},
	{
		EntityType:  "pizza_size_pricing",
		Endpoint:    "/api/hub/sync/pizza-size-pricing",
		FullReplace: true,
		Upsert:      fullReplaceUpsert("pizza_size_pricing"),
	},
	{
		EntityType: "user",
		Endpoint:   "/api/hub/sync/users",
		Upsert:     simpleUpsert("users"),
	},
	{
		EntityType: "floor",
		Endpoint:   "/api/hub/sync/floors",
		Upsert:     simpleUpsert("floors"),
	},
	{
		EntityType: "table",
		Endpoint:   "/api/hub/sync/tables",
		Upsert:     simpleUpsert("dining_tables"),
	},
}

// simpleUpsert builds an Upsert func for entities with no companion
// objects: a plain ON CONFLICT DO UPDATE into table.
func simpleUpsert(table string) func(tx *gorm.DB, rows []map[string]any) (int, error) {
	return func(tx *gorm.DB, rows []map[string]any) (int, error) {
		return upsertRows(tx, table, rows)
	}
}

// fullReplaceUpsert builds an Upsert func for entities whose cloud ids
// may be recycled (spec.md §4.5): delete-then-insert in one
// transaction rather than ON CONFLICT DO UPDATE.
func fullReplaceUpsert(table string) func(tx *gorm.DB, rows []map[string]any) (int, error) {
	return func(tx *gorm.DB, rows []map[string]any) (int, error) {
		return fullReplaceRows(tx, table, rows)
	}
}

// upsertProducts upserts the product row itself, then extracts and
// upserts the embedded orderTypePrices companion array and the
// optional pizzaProductConfig companion object a product pull
// response carries (spec.md §4.5: "some pull responses carry an
// embedded object the local store stores in companion tables").
func upsertProducts(tx *gorm.DB, rows []map[string]any) (int, error) {
	var companionRows []map[string]any
	var pizzaConfigRows []map[string]any

	for _, row := range rows {
		if raw, ok := row["order_type_prices"]; ok {
			delete(row, "order_type_prices")
			if nested, ok := raw.([]any); ok {
				for _, item := range nested {
					if m, ok := item.(map[string]any); ok {
						transformed := transformRow("product_order_type_price", m)
						transformed["product_id"] = row["id"]
						companionRows = append(companionRows, transformed)
					}
				}
			}
		}
		if raw, ok := row["pizza_product_config"]; ok {
			delete(row, "pizza_product_config")
			if m, ok := raw.(map[string]any); ok {
				transformed := transformRow("product_pizza_config", m)
				transformed["product_id"] = row["id"]
				pizzaConfigRows = append(pizzaConfigRows, transformed)
			}
		}
	}

	count, err := upsertRows(tx, "products", rows)
	if err != nil {
		return count, err
	}

	if len(companionRows) > 0 {
		if _, cerr := upsertRows(tx, "product_order_type_prices", companionRows); cerr != nil {
			return count, cerr
		}
	}

	// product_pizza_configs is keyed by product_id, not id.
	for _, cfg := range pizzaConfigRows {
		if cerr := tx.Table("product_pizza_configs").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"base_config_id", "default_size_id"}),
		}).Create(cfg).Error; cerr != nil {
			return count, fmt.Errorf("product_pizza_configs: upsert row %v failed: %w", cfg["product_id"], cerr)
		}
	}

	return count, nil
}

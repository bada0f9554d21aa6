// Package pull implements the dependency-ordered replication engine
// that keeps the local store current with the cloud system of record.
package pull

import (
	"strings"
	"unicode"
)

// overrides holds per-entity field renames the default camelCase to
// snake_case rule gets wrong, enumerated by hand rather than inferred
// — see the entity plan in plan.go for why this is a flat table
// instead of a generic metaprogramming layer.
var overrides = map[string]map[string]string{
	"pizza_size_pricing": {
		"pizzaSizeId": "size_id",
		"sizeId":      "size_id",
		"configId":    "config_id",
	},
	"product_order_type_price": {
		"orderType": "order_type",
	},
}

// toSnakeCase converts a camelCase (or PascalCase) identifier to
// snake_case, e.g. "basePrice" -> "base_price".
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// transformRow renames entityType's fields from cloud camelCase to
// store snake_case, applying entityType's override map first and the
// mechanical rule to whatever fields remain. Booleans are coerced to
// 0/1 and nested objects/arrays are left as-is; upsertRows marshals
// them to JSON text for a TEXT/JSON column, matching spec.md §4.5's "coerce
// booleans to 0/1; stringify arrays/objects for TEXT columns".
func transformRow(entityType string, row map[string]any) map[string]any {
	entityOverrides := overrides[entityType]
	out := make(map[string]any, len(row))

	for k, v := range row {
		col, ok := entityOverrides[k]
		if !ok {
			col = toSnakeCase(k)
		}
		out[col] = coerceValue(v)
	}
	return out
}

func coerceValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	default:
		return v
	}
}

// transformRows applies transformRow to every row in a batch.
func transformRows(entityType string, rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = transformRow(entityType, row)
	}
	return out
}

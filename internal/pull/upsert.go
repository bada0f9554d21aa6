package pull

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertRows inserts rows into table, updating every other column on
// a primary-key conflict — the mechanical ON CONFLICT DO UPDATE shape
// from spec.md §4.5, expressed with clause.OnConflict the way the
// teacher's odoo sync functions use it, generalized from one struct
// per call site to a table name plus a row of columns.
//
// Nested slice and map values are marshalled to JSON text before the
// insert. Per-row failures do not abort the batch; this function
// returns the first error it hits, and the caller logs it. Rows are
// inserted one at a time so a
// single malformed row cannot poison the rest of the batch inside one
// transaction.
func upsertRows(tx *gorm.DB, table string, rows []map[string]any) (int, error) {
	count := 0
	var firstErr error
	for _, row := range rows {
		if _, ok := row["id"]; !ok {
			firstErr = recordErr(firstErr, fmt.Errorf("%s: row missing id column", table))
			continue
		}
		cols := make([]string, 0, len(row))
		for k, v := range row {
			switch v.(type) {
			case []any, map[string]any:
				if b, err := json.Marshal(v); err == nil {
					row[k] = string(b)
				}
			}
			if k != "id" {
				cols = append(cols, k)
			}
		}
		onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}}
		if len(cols) > 0 {
			onConflict.DoUpdates = clause.AssignmentColumns(cols)
		} else {
			onConflict.DoNothing = true
		}
		if err := tx.Table(table).Clauses(onConflict).Create(row).Error; err != nil {
			firstErr = recordErr(firstErr, fmt.Errorf("%s: upsert row %v failed: %w", table, row["id"], err))
			continue
		}
		count++
	}
	return count, firstErr
}

// fullReplaceRows implements the full-replace strategy for tables
// whose cloud ids may be recycled (pizza pricing per spec.md §4.5):
// delete every row, then insert the fresh set, all in the caller's
// transaction.
func fullReplaceRows(tx *gorm.DB, table string, rows []map[string]any) (int, error) {
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
		return 0, fmt.Errorf("%s: full replace delete failed: %w", table, err)
	}
	count := 0
	for _, row := range rows {
		if err := tx.Table(table).Create(row).Error; err != nil {
			return count, fmt.Errorf("%s: full replace insert failed: %w", table, err)
		}
		count++
	}
	return count, nil
}

// deleteByIDs removes rows named in a pull response's deletedIds list,
// for transactional mirror tables the hub reads back from the cloud.
func deleteByIDs(tx *gorm.DB, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IN ?", table), ids).Error; err != nil {
		return fmt.Errorf("%s: delete by id failed: %w", table, err)
	}
	return nil
}

func recordErr(existing, next error) error {
	if existing != nil {
		return existing
	}
	return next
}

// Package ledger owns the singleton inventory row. Every sale-path mutation
// goes through a version-checked conditional update so stock can never go
// negative, no matter how many terminals are selling at once.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trayledger/internal/model"
)

type Ledger struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Read returns the current inventory, creating a zeroed row if none exists.
// The row is never allowed to stay missing: if it was deleted externally the
// next read recreates it at zero rather than failing.
func (l *Ledger) Read(ctx context.Context) (model.Inventory, error) {
	return ReadTx(l.db.WithContext(ctx))
}

// SetAbsolute is the administrative stock override. Last-write-wins by design:
// it bypasses the check-and-decrement discipline, but still bumps the version
// so in-flight sale transactions notice and retry.
func (l *Ledger) SetAbsolute(ctx context.Context, stock int64) (model.Inventory, error) {
	var out model.Inventory
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := ReadTx(tx)
		if err != nil {
			return err
		}
		res := tx.Model(&model.Inventory{}).
			Where("id = ?", inv.ID).
			Updates(map[string]any{
				"stock":        stock,
				"version":      gorm.Expr("version + 1"),
				"last_updated": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		return tx.First(&out, "id = ?", inv.ID).Error
	})
	if err != nil {
		return model.Inventory{}, err
	}
	return out, nil
}

// ReadTx reads the inventory row inside tx, lazily creating it at zero.
func ReadTx(tx *gorm.DB) (model.Inventory, error) {
	var inv model.Inventory
	err := tx.First(&inv, "id = ?", model.InventoryID).Error
	if err == nil {
		return inv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Inventory{}, err
	}

	inv = model.Inventory{
		ID:           model.InventoryID,
		TotalRevenue: decimal.Zero,
		LastUpdated:  time.Now(),
	}
	if err := tx.Create(&inv).Error; err != nil {
		// Lost the creation race; the row exists now.
		if errorsLikeUnique(err) {
			err = tx.First(&inv, "id = ?", model.InventoryID).Error
		}
		if err != nil {
			return model.Inventory{}, err
		}
	}
	return inv, nil
}

// ApplySale performs the linchpin operation: decrement stock and bump the
// cumulative counters as one conditional write against the version read
// earlier in the same transaction.
//
// Returns InsufficientStockError when quantity exceeds inv.Stock, ErrConflict
// when a concurrent writer got there first.
func ApplySale(tx *gorm.DB, inv model.Inventory, quantity int64, revenue decimal.Decimal, now time.Time) (model.Inventory, error) {
	if inv.Stock < quantity {
		return model.Inventory{}, &InsufficientStockError{Available: inv.Stock}
	}

	updated := model.Inventory{
		ID:                 inv.ID,
		Stock:              inv.Stock - quantity,
		TotalSalesQuantity: inv.TotalSalesQuantity + quantity,
		TotalRevenue:       inv.TotalRevenue.Add(revenue),
		Version:            inv.Version + 1,
		LastUpdated:        now,
	}
	res := tx.Model(&model.Inventory{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]any{
			"stock":                updated.Stock,
			"total_sales_quantity": updated.TotalSalesQuantity,
			"total_revenue":        updated.TotalRevenue,
			"version":              updated.Version,
			"last_updated":         updated.LastUpdated,
		})
	if res.Error != nil {
		return model.Inventory{}, res.Error
	}
	if res.RowsAffected == 0 {
		return model.Inventory{}, ErrConflict
	}
	return updated, nil
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryID is the fixed key of the single inventory row. The whole system
// manages exactly one stock counter.
const InventoryID = "current"

// Inventory is the singleton stock record plus cumulative sale counters.
// Stock must never go negative; all sale-path mutations go through the ledger's
// version-checked update, never a plain overwrite.
type Inventory struct {
	ID                 string          `gorm:"primarykey;size:32" json:"id"`
	Stock              int64           `gorm:"not null;default:0" json:"stock"`
	TotalSalesQuantity int64           `gorm:"not null;default:0" json:"total_sales_quantity"`
	TotalRevenue       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_revenue"`
	// Version backs optimistic concurrency: every write bumps it, and the
	// sale path only commits if the version it read is still current.
	Version     int64     `gorm:"not null;default:0" json:"-"`
	LastUpdated time.Time `json:"last_updated"`
}

func (Inventory) TableName() string { return "inventory" }

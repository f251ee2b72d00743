package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyReport is one per-day aggregate row maintained by the reporting
// consumer from committed sale events.
type DailyReport struct {
	// Date is the sale day in YYYY-MM-DD form.
	Date      string    `gorm:"primarykey;size:10" json:"date"`
	UpdatedAt time.Time `json:"updated_at"`

	TotalTrays   int64           `gorm:"not null;default:0" json:"total_trays"`
	TotalRevenue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_revenue"`
}

func (DailyReport) TableName() string { return "daily_reports" }

// ReportedSale marks a sale event as already folded into a daily report, so
// redelivered events stay idempotent.
type ReportedSale struct {
	SaleID    string    `gorm:"primarykey;size:64" json:"sale_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReportedSale) TableName() string { return "reported_sales" }

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StandardPriceID keys the single standard-price settings row.
const StandardPriceID = "standard_price"

// PriceSetting holds an administratively configured price value. Only the
// standard tray price lives here today.
type PriceSetting struct {
	ID        string          `gorm:"primarykey;size:32" json:"id"`
	Value     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (PriceSetting) TableName() string { return "price_settings" }

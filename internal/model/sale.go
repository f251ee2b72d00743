package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price tier labels recorded on each sale.
const (
	TierStandard = "standard"
	TierSpecial  = "special"
	TierBulk     = "bulk"
)

// Sale is one immutable, append-only receipt. Price and staff identity are
// snapshotted at commit time so later price or staff changes never rewrite
// history.
type Sale struct {
	ID        string    `gorm:"primarykey;size:64" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total"`

	// PriceTier is one of TierStandard, TierSpecial, TierBulk.
	// PromotionName is set only for TierSpecial.
	PriceTier     string `gorm:"size:16;not null" json:"price_tier"`
	PromotionName string `gorm:"size:128" json:"promotion_name,omitempty"`

	StaffID    string `gorm:"size:64;not null;index" json:"staff_id"`
	StaffName  string `gorm:"size:128" json:"staff_name"`
	StaffColor string `gorm:"size:16" json:"staff_color"`

	// SoldAt is the server-assigned commit timestamp.
	SoldAt time.Time `gorm:"not null;index" json:"sold_at"`
}

func (Sale) TableName() string { return "sales" }

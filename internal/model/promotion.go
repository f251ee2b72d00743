package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion is a time-windowed override of the standard tray price.
// Admin-created; the Active flag is a kill switch, the window decides the rest.
// Promotions never auto-expire their flag.
type Promotion struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name      string          `gorm:"size:128;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	StartDate time.Time       `gorm:"not null" json:"start_date"`
	EndDate   time.Time       `gorm:"not null" json:"end_date"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
}

func (Promotion) TableName() string { return "promotions" }

// Covers reports whether the promotion window contains t, inclusive on both
// ends.
func (p Promotion) Covers(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

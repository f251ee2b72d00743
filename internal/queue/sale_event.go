package queue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trayledger/internal/model"
)

// SaleEvent is the wire form of one committed sale, flowing from the redis
// stream outbox through the relay to Kafka. Money travels as decimal strings.
type SaleEvent struct {
	SaleID        string `json:"sale_id"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	Total         string `json:"total"`
	PriceTier     string `json:"price_tier"`
	PromotionName string `json:"promotion_name,omitempty"`
	StaffID       string `json:"staff_id"`
	SoldAt        string `json:"sold_at"` // RFC3339Nano
}

// EventFromSale snapshots a committed sale into its wire form.
func EventFromSale(s model.Sale) SaleEvent {
	return SaleEvent{
		SaleID:        s.ID,
		Quantity:      s.Quantity,
		UnitPrice:     s.UnitPrice.String(),
		Total:         s.Total.String(),
		PriceTier:     s.PriceTier,
		PromotionName: s.PromotionName,
		StaffID:       s.StaffID,
		SoldAt:        s.SoldAt.Format(time.RFC3339Nano),
	}
}

// Validate does minimal field checks so consumers never process dirty events.
func (e SaleEvent) Validate() error {
	if e.SaleID == "" {
		return fmt.Errorf("sale_id is required")
	}
	if e.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	if _, err := decimal.NewFromString(e.Total); err != nil {
		return fmt.Errorf("invalid total %q", e.Total)
	}
	if _, err := time.Parse(time.RFC3339Nano, e.SoldAt); err != nil {
		return fmt.Errorf("invalid sold_at %q", e.SoldAt)
	}
	return nil
}

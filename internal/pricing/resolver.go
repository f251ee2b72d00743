package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"trayledger/internal/model"
)

// DefaultStandardPrice is charged when no standard price has ever been
// configured. A missing price must never block a sale; callers log the
// condition instead.
var DefaultStandardPrice = decimal.NewFromInt(60)

// BasePrice is the resolved per-tray price before any bulk override.
type BasePrice struct {
	UnitPrice decimal.Decimal
	Name      string
	IsSpecial bool
	// ConfigMissing is set when the system fell back to DefaultStandardPrice
	// because no standard price row exists.
	ConfigMissing bool
}

// ResolveBasePrice picks the price in effect at now: an active promotion whose
// window contains now, else the configured standard price, else the hardcoded
// default. standard is nil when no standard price has been configured.
//
// Overlapping promotion windows are resolved deterministically: the most
// recently created match wins (highest CreatedAt, then highest ID). The result
// is a pure function of its inputs; no blending, no side effects.
func ResolveBasePrice(standard *decimal.Decimal, promotions []model.Promotion, now time.Time) BasePrice {
	var match *model.Promotion
	for i := range promotions {
		p := &promotions[i]
		if !p.Active || !p.Covers(now) {
			continue
		}
		if match == nil || p.CreatedAt.After(match.CreatedAt) ||
			(p.CreatedAt.Equal(match.CreatedAt) && p.ID > match.ID) {
			match = p
		}
	}
	if match != nil {
		return BasePrice{UnitPrice: match.Price, Name: match.Name, IsSpecial: true}
	}

	if standard != nil {
		return BasePrice{UnitPrice: *standard, Name: "Standard Price"}
	}
	return BasePrice{UnitPrice: DefaultStandardPrice, Name: "Standard Price", ConfigMissing: true}
}

package pricing

import (
	"github.com/shopspring/decimal"

	"trayledger/internal/model"
)

// BulkThreshold is the tray count at or above which bulk pricing applies,
// unconditionally overriding any promotion.
const BulkThreshold = 20

// BulkPrice is the fixed per-tray bulk rate.
var BulkPrice = decimal.New(5500, -2)

// Quote is the final per-unit price decision for one sale.
type Quote struct {
	UnitPrice     decimal.Decimal
	Tier          string
	PromotionName string
	ConfigMissing bool
}

// SelectPrice applies the tier rule: bulk threshold first, then whatever the
// resolver produced. Pure function.
func SelectPrice(quantity int64, base BasePrice) Quote {
	if quantity >= BulkThreshold {
		return Quote{UnitPrice: BulkPrice, Tier: model.TierBulk}
	}
	q := Quote{UnitPrice: base.UnitPrice, Tier: model.TierStandard, ConfigMissing: base.ConfigMissing}
	if base.IsSpecial {
		q.Tier = model.TierSpecial
		q.PromotionName = base.Name
	}
	return q
}

// Total returns quantity x unit price.
func (q Quote) Total(quantity int64) decimal.Decimal {
	return q.UnitPrice.Mul(decimal.NewFromInt(quantity))
}

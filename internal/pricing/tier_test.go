package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trayledger/internal/model"
)

func TestSelectPriceBulkOverridesEverything(t *testing.T) {
	// Even a cheaper promotion loses to the bulk rate once the threshold hits.
	base := BasePrice{UnitPrice: dec("50.00"), Name: "Easter", IsSpecial: true}

	got := SelectPrice(BulkThreshold, base)
	assert.Equal(t, model.TierBulk, got.Tier)
	assert.True(t, got.UnitPrice.Equal(dec("55.00")))
	assert.Empty(t, got.PromotionName)

	got = SelectPrice(BulkThreshold+30, base)
	assert.Equal(t, model.TierBulk, got.Tier)
}

func TestSelectPriceBelowThreshold(t *testing.T) {
	std := BasePrice{UnitPrice: dec("60.00"), Name: "Standard Price"}
	got := SelectPrice(BulkThreshold-1, std)
	assert.Equal(t, model.TierStandard, got.Tier)
	assert.True(t, got.UnitPrice.Equal(dec("60.00")))

	special := BasePrice{UnitPrice: dec("50.00"), Name: "Easter", IsSpecial: true}
	got = SelectPrice(5, special)
	assert.Equal(t, model.TierSpecial, got.Tier)
	assert.Equal(t, "Easter", got.PromotionName)
	assert.True(t, got.UnitPrice.Equal(dec("50.00")))
}

func TestQuoteTotal(t *testing.T) {
	q := SelectPrice(20, BasePrice{UnitPrice: dec("60.00"), Name: "Standard Price"})
	assert.True(t, q.Total(20).Equal(dec("1100.00")))

	q = SelectPrice(5, BasePrice{UnitPrice: dec("60.00"), Name: "Standard Price"})
	assert.True(t, q.Total(5).Equal(dec("300.00")))
}

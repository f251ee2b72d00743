package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"trayledger/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func promo(id uint, name, price string, start, end time.Time, active bool, created time.Time) model.Promotion {
	return model.Promotion{
		ID:        id,
		CreatedAt: created,
		Name:      name,
		Price:     dec(price),
		StartDate: start,
		EndDate:   end,
		Active:    active,
	}
}

func TestResolveBasePriceStandard(t *testing.T) {
	std := dec("60.00")
	got := ResolveBasePrice(&std, nil, time.Now())

	assert.True(t, got.UnitPrice.Equal(dec("60.00")))
	assert.False(t, got.IsSpecial)
	assert.False(t, got.ConfigMissing)
	assert.Equal(t, "Standard Price", got.Name)
}

func TestResolveBasePriceActivePromotion(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	std := dec("60.00")
	promos := []model.Promotion{
		promo(1, "Easter", "50.00", now.Add(-24*time.Hour), now.Add(24*time.Hour), true, now.Add(-48*time.Hour)),
	}

	got := ResolveBasePrice(&std, promos, now)
	assert.True(t, got.IsSpecial)
	assert.Equal(t, "Easter", got.Name)
	assert.True(t, got.UnitPrice.Equal(dec("50.00")))
}

func TestResolveBasePriceWindowInclusive(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	std := dec("60.00")
	promos := []model.Promotion{promo(1, "Easter", "50.00", start, end, true, start)}

	for _, now := range []time.Time{start, end} {
		got := ResolveBasePrice(&std, promos, now)
		assert.True(t, got.IsSpecial, "boundary instant %v must be covered", now)
	}

	got := ResolveBasePrice(&std, promos, end.Add(time.Nanosecond))
	assert.False(t, got.IsSpecial)
}

func TestResolveBasePriceIgnoresInactiveAndExpired(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	std := dec("60.00")
	promos := []model.Promotion{
		// date-valid but switched off
		promo(1, "Killed", "40.00", now.Add(-time.Hour), now.Add(time.Hour), false, now),
		// active flag on but window passed
		promo(2, "Old", "45.00", now.Add(-72*time.Hour), now.Add(-48*time.Hour), true, now),
	}

	got := ResolveBasePrice(&std, promos, now)
	assert.False(t, got.IsSpecial)
	assert.True(t, got.UnitPrice.Equal(dec("60.00")))
}

func TestResolveBasePriceOverlapPicksMostRecentlyCreated(t *testing.T) {
	now := time.Date(2026, 4, 5, 12, 0, 0, 0, time.UTC)
	std := dec("60.00")
	promos := []model.Promotion{
		promo(1, "First", "50.00", now.Add(-time.Hour), now.Add(time.Hour), true, now.Add(-2*time.Hour)),
		promo(2, "Second", "52.00", now.Add(-time.Hour), now.Add(time.Hour), true, now.Add(-time.Hour)),
	}

	// Same answer regardless of slice order.
	got := ResolveBasePrice(&std, promos, now)
	assert.Equal(t, "Second", got.Name)

	got = ResolveBasePrice(&std, []model.Promotion{promos[1], promos[0]}, now)
	assert.Equal(t, "Second", got.Name)
	assert.True(t, got.UnitPrice.Equal(dec("52.00")))
}

func TestResolveBasePriceMissingStandardFallsBack(t *testing.T) {
	got := ResolveBasePrice(nil, nil, time.Now())

	assert.True(t, got.ConfigMissing)
	assert.False(t, got.IsSpecial)
	assert.True(t, got.UnitPrice.Equal(DefaultStandardPrice))
}

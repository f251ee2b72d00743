package queue

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trayledger/internal/model"
)

func newReportDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.DailyReport{}, &model.ReportedSale{}))
	return db
}

func event(saleID string, quantity int64, total string, soldAt time.Time) SaleEvent {
	return SaleEvent{
		SaleID:    saleID,
		Quantity:  quantity,
		UnitPrice: "60",
		Total:     total,
		PriceTier: model.TierStandard,
		StaffID:   "staff-x",
		SoldAt:    soldAt.Format(time.RFC3339Nano),
	}
}

func TestFoldAggregatesByDay(t *testing.T) {
	db := newReportDB(t)
	c := &Consumer{db: db, log: zap.NewNop()}

	day := time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, c.fold(context.Background(), event("s1", 5, "300", day)))
	require.NoError(t, c.fold(context.Background(), event("s2", 20, "1100", day.Add(2*time.Hour))))
	require.NoError(t, c.fold(context.Background(), event("s3", 1, "60", day.Add(24*time.Hour))))

	var report model.DailyReport
	require.NoError(t, db.First(&report, "date = ?", "2026-04-05").Error)
	assert.Equal(t, int64(25), report.TotalTrays)
	assert.True(t, report.TotalRevenue.Equal(decimal.RequireFromString("1400")))

	report = model.DailyReport{}
	require.NoError(t, db.First(&report, "date = ?", "2026-04-06").Error)
	assert.Equal(t, int64(1), report.TotalTrays)
}

func TestFoldIsIdempotentPerSale(t *testing.T) {
	db := newReportDB(t)
	c := &Consumer{db: db, log: zap.NewNop()}

	day := time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)
	ev := event("s1", 5, "300", day)

	// Redelivery happens; the totals must not double-count.
	require.NoError(t, c.fold(context.Background(), ev))
	require.NoError(t, c.fold(context.Background(), ev))

	var report model.DailyReport
	require.NoError(t, db.First(&report, "date = ?", "2026-04-05").Error)
	assert.Equal(t, int64(5), report.TotalTrays)
	assert.True(t, report.TotalRevenue.Equal(decimal.RequireFromString("300")))
}

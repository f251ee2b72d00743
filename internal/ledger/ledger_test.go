package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trayledger/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	// One connection: every session sees the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Inventory{}))
	return db
}

func TestReadCreatesZeroedRow(t *testing.T) {
	led := New(newTestDB(t))

	inv, err := led.Read(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.InventoryID, inv.ID)
	assert.Equal(t, int64(0), inv.Stock)
	assert.Equal(t, int64(0), inv.TotalSalesQuantity)
	assert.True(t, inv.TotalRevenue.IsZero())
}

func TestReadRecreatesAfterExternalDelete(t *testing.T) {
	db := newTestDB(t)
	led := New(db)

	_, err := led.SetAbsolute(context.Background(), 40)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&model.Inventory{}, "id = ?", model.InventoryID).Error)

	inv, err := led.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), inv.Stock)
}

func TestSetAbsoluteLastWriteWins(t *testing.T) {
	led := New(newTestDB(t))

	inv, err := led.SetAbsolute(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), inv.Stock)
	firstVersion := inv.Version

	inv, err = led.SetAbsolute(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inv.Stock)
	assert.Greater(t, inv.Version, firstVersion, "admin overwrite must still bump the version")
}

func TestApplySaleDecrementsAndAccumulates(t *testing.T) {
	db := newTestDB(t)
	led := New(db)

	_, err := led.SetAbsolute(context.Background(), 100)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		inv, err := ReadTx(tx)
		require.NoError(t, err)

		updated, err := ApplySale(tx, inv, 5, decimal.RequireFromString("300.00"), time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(95), updated.Stock)
		assert.Equal(t, int64(5), updated.TotalSalesQuantity)
		assert.True(t, updated.TotalRevenue.Equal(decimal.RequireFromString("300.00")))
		assert.Equal(t, inv.Version+1, updated.Version)
		return nil
	})
	require.NoError(t, err)

	inv, err := led.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(95), inv.Stock)
}

func TestApplySaleInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	led := New(db)

	_, err := led.SetAbsolute(context.Background(), 3)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		inv, err := ReadTx(tx)
		require.NoError(t, err)

		_, err = ApplySale(tx, inv, 5, decimal.RequireFromString("300.00"), time.Now())
		var insufficient *InsufficientStockError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(3), insufficient.Available)
		return nil
	})
	require.NoError(t, err)

	// Nothing changed.
	inv, err := led.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), inv.Stock)
	assert.Equal(t, int64(0), inv.TotalSalesQuantity)
}

func TestApplySaleStaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	led := New(db)

	_, err := led.SetAbsolute(context.Background(), 100)
	require.NoError(t, err)

	stale, err := led.Read(context.Background())
	require.NoError(t, err)

	// Another writer sneaks in after our read.
	_, err = led.SetAbsolute(context.Background(), 90)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := ApplySale(tx, stale, 5, decimal.RequireFromString("300.00"), time.Now())
		return err
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, IsRetryable(err))

	inv, err := led.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(90), inv.Stock, "conflicted write must not apply")
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(&InsufficientStockError{Available: 1}))
	assert.True(t, IsRetryable(ErrConflict))
}

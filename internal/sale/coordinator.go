// Package sale orchestrates the sell flow: resolve the price, check and
// decrement stock, and append the receipt, all inside a single transaction.
package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trayledger/internal/ledger"
	"trayledger/internal/model"
	"trayledger/internal/pricing"
)

// Staff identifies the seller. Supplied by the identity boundary, already
// authenticated; the coordinator only snapshots it into the receipt.
type Staff struct {
	ID    string
	Name  string
	Color string
}

// Receipt carries the committed sale facts so callers can display price,
// total and remaining stock without a second read.
type Receipt struct {
	Sale           model.Sale
	RemainingStock int64
}

// Publisher receives committed sales for downstream reporting. Delivery is
// best-effort; the database stays the source of truth.
type Publisher interface {
	PublishSale(ctx context.Context, s model.Sale) error
}

const (
	defaultMaxAttempts = 5
	retryBackoff       = 5 * time.Millisecond
)

type Coordinator struct {
	db          *gorm.DB
	log         *zap.Logger
	publisher   Publisher
	maxAttempts int
	now         func() time.Time
}

// NewCoordinator wires the sell flow. publisher may be nil when no event feed
// is configured. maxAttempts <= 0 selects the default retry bound.
func NewCoordinator(db *gorm.DB, log *zap.Logger, publisher Publisher, maxAttempts int) *Coordinator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &Coordinator{
		db:          db,
		log:         log,
		publisher:   publisher,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Sell commits one sale atomically: either the stock decrement, the counter
// bumps and the receipt all land together, or nothing does.
//
// Version conflicts from concurrent sellers retry the whole transaction with
// a fresh read, bounded by maxAttempts; exhaustion surfaces ledger.ErrConflict.
// InsufficientStock and InvalidQuantity are never retried.
func (c *Coordinator) Sell(ctx context.Context, quantity int64, staff Staff) (Receipt, error) {
	if quantity < 1 {
		return Receipt{}, ErrInvalidQuantity
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		rec, err := c.sellOnce(ctx, quantity, staff)
		if err == nil {
			c.publishCommitted(ctx, rec.Sale)
			return rec, nil
		}
		if !ledger.IsRetryable(err) {
			return Receipt{}, err
		}
		lastErr = err
		c.log.Debug("sale hit write conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Int64("quantity", quantity))

		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return Receipt{}, fmt.Errorf("%w: retries exhausted after %d attempts: %v",
		ledger.ErrConflict, c.maxAttempts, lastErr)
}

func (c *Coordinator) sellOnce(ctx context.Context, quantity int64, staff Staff) (Receipt, error) {
	var rec Receipt
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := c.now()

		standard, err := standardPriceTx(tx)
		if err != nil {
			return err
		}
		var promos []model.Promotion
		if err := tx.Where("active = ?", true).Find(&promos).Error; err != nil {
			return err
		}

		base := pricing.ResolveBasePrice(standard, promos, now)
		quote := pricing.SelectPrice(quantity, base)
		if quote.ConfigMissing {
			c.log.Warn("no standard price configured, falling back to default",
				zap.String("default_price", pricing.DefaultStandardPrice.String()))
		}
		total := quote.Total(quantity)

		inv, err := ledger.ReadTx(tx)
		if err != nil {
			return err
		}
		updated, err := ledger.ApplySale(tx, inv, quantity, total, now)
		if err != nil {
			return err
		}

		s := model.Sale{
			ID:            uuid.New().String(),
			Quantity:      quantity,
			UnitPrice:     quote.UnitPrice,
			Total:         total,
			PriceTier:     quote.Tier,
			PromotionName: quote.PromotionName,
			StaffID:       staff.ID,
			StaffName:     staff.Name,
			StaffColor:    staff.Color,
			SoldAt:        now,
		}
		if err := tx.Create(&s).Error; err != nil {
			return err
		}

		rec = Receipt{Sale: s, RemainingStock: updated.Stock}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return rec, nil
}

func (c *Coordinator) publishCommitted(ctx context.Context, s model.Sale) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishSale(ctx, s); err != nil {
		// The sale is already committed; the feed is a mirror, not a ledger.
		c.log.Warn("failed to publish committed sale event",
			zap.String("sale_id", s.ID), zap.Error(err))
	}
}

func standardPriceTx(tx *gorm.DB) (*decimal.Decimal, error) {
	var setting model.PriceSetting
	err := tx.First(&setting, "id = ?", model.StandardPriceID).Error
	if err == nil {
		return &setting.Value, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

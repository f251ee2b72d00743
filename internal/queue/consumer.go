package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trayledger/internal/model"
)

// Consumer is the reporting consumer: it reads committed sale events from
// Kafka and folds them into per-day aggregate rows. It only ever writes
// reporting tables, never the inventory or the sales ledger.
type Consumer struct {
	r   *kafka.Reader
	db  *gorm.DB
	log *zap.Logger
}

func NewConsumer(brokers []string, topic, groupID string, db *gorm.DB, log *zap.Logger) *Consumer {
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 1e3,
			MaxBytes: 1e6,
		}),
		db:  db,
		log: log,
	}
}

func (c *Consumer) Close() error { return c.r.Close() }

func (c *Consumer) Run(ctx context.Context) {
	for {
		m, err := c.r.ReadMessage(ctx)
		if err != nil {
			return // ctx cancelled or connection gone
		}

		var ev SaleEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			c.log.Warn("report consumer unmarshal", zap.Error(err))
			continue
		}
		if err := ev.Validate(); err != nil {
			c.log.Warn("report consumer dropped invalid event", zap.Error(err))
			continue
		}

		if err := c.fold(ctx, ev); err != nil {
			c.log.Error("report consumer fold", zap.String("sale_id", ev.SaleID), zap.Error(err))
		}
	}
}

// fold applies one sale event to its daily report row, exactly once per sale
// id: the marker insert and the aggregate update commit together, and a
// redelivered event hits the marker's unique constraint and is skipped.
func (c *Consumer) fold(ctx context.Context, ev SaleEvent) error {
	total, err := decimal.NewFromString(ev.Total)
	if err != nil {
		return err
	}
	soldAt, err := time.Parse(time.RFC3339Nano, ev.SoldAt)
	if err != nil {
		return err
	}
	day := soldAt.Format("2006-01-02")

	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.ReportedSale{SaleID: ev.SaleID}).Error; err != nil {
			if errorsLikeUnique(err) {
				return nil // already folded
			}
			return err
		}

		var report model.DailyReport
		err := tx.First(&report, "date = ?", day).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&model.DailyReport{
				Date:         day,
				TotalTrays:   ev.Quantity,
				TotalRevenue: total,
			}).Error
		case err != nil:
			return err
		}

		return tx.Model(&model.DailyReport{}).
			Where("date = ?", day).
			Updates(map[string]any{
				"total_trays":   report.TotalTrays + ev.Quantity,
				"total_revenue": report.TotalRevenue.Add(total),
			}).Error
	})
}

func errorsLikeUnique(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "UNIQUE") || strings.Contains(s, "unique")
}

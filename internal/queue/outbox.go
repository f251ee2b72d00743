package queue

import (
	"context"

	rd "github.com/redis/go-redis/v9"

	"trayledger/internal/model"
)

// Outbox appends committed sales to a redis stream right after commit. The
// relay drains the stream into Kafka, so a Kafka outage never slows a sale.
type Outbox struct {
	rdb    *rd.Client
	stream string
}

func NewOutbox(rdb *rd.Client, stream string) *Outbox {
	return &Outbox{rdb: rdb, stream: stream}
}

// PublishSale implements sale.Publisher.
func (o *Outbox) PublishSale(ctx context.Context, s model.Sale) error {
	ev := EventFromSale(s)
	return o.rdb.XAdd(ctx, &rd.XAddArgs{
		Stream: o.stream,
		Values: map[string]any{
			"sale_id":        ev.SaleID,
			"quantity":       ev.Quantity,
			"unit_price":     ev.UnitPrice,
			"total":          ev.Total,
			"price_tier":     ev.PriceTier,
			"promotion_name": ev.PromotionName,
			"staff_id":       ev.StaffID,
			"sold_at":        ev.SoldAt,
		},
	}).Err()
}

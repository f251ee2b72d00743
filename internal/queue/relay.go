package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Relay forwards sale events from the redis stream outbox to Kafka.
// Semantics: ACK the stream entry only after the Kafka publish succeeds;
// failures leave the entry pending for retry.
type Relay struct {
	rdb      *rd.Client
	producer *Producer
	log      *zap.Logger

	stream   string
	group    string
	consumer string
}

func NewRelay(rdb *rd.Client, producer *Producer, log *zap.Logger, stream, group, consumer string) *Relay {
	return &Relay{
		rdb:      rdb,
		producer: producer,
		log:      log,
		stream:   stream,
		group:    group,
		consumer: consumer,
	}
}

func (r *Relay) Run(ctx context.Context) {
	if err := r.ensureGroup(ctx); err != nil {
		r.log.Error("relay ensure group", zap.Error(err))
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}

		// Drain this consumer's pending entries first so leftovers from a
		// previous crash do not pile up behind new traffic.
		msgs, err := r.readGroup(ctx, "0", 0)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return
			}
			r.log.Warn("relay read pending", zap.Error(err))
			time.Sleep(300 * time.Millisecond)
			continue
		}
		if len(msgs) == 0 {
			msgs, err = r.readGroup(ctx, ">", 2*time.Second)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				r.log.Warn("relay read new", zap.Error(err))
				time.Sleep(300 * time.Millisecond)
				continue
			}
		}

		for _, xm := range msgs {
			if err := r.processOne(ctx, xm); err != nil {
				// No ACK on publish failure; the entry stays for retry.
				r.log.Warn("relay process message", zap.String("id", xm.ID), zap.Error(err))
				time.Sleep(200 * time.Millisecond)
				break
			}
		}
	}
}

func (r *Relay) ensureGroup(ctx context.Context) error {
	err := r.rdb.XGroupCreateMkStream(ctx, r.stream, r.group, "0").Err()
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (r *Relay) readGroup(ctx context.Context, streamID string, block time.Duration) ([]rd.XMessage, error) {
	streams, err := r.rdb.XReadGroup(ctx, &rd.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, streamID},
		Count:    16,
		Block:    block,
		NoAck:    false,
	}).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]rd.XMessage, 0, 16)
	for _, s := range streams {
		out = append(out, s.Messages...)
	}
	return out, nil
}

func (r *Relay) processOne(ctx context.Context, xm rd.XMessage) error {
	ev, err := parseSaleEvent(xm.Values)
	if err != nil {
		// Dirty entries are ACKed away so they cannot wedge the stream.
		if ackErr := r.ackAndDelete(ctx, xm.ID); ackErr != nil {
			return fmt.Errorf("parse failed: %v, ack failed: %w", err, ackErr)
		}
		r.log.Warn("relay dropped malformed event", zap.String("id", xm.ID), zap.Error(err))
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.producer.Publish(pubCtx, ev); err != nil {
		return err
	}
	return r.ackAndDelete(ctx, xm.ID)
}

func (r *Relay) ackAndDelete(ctx context.Context, id string) error {
	pipe := r.rdb.TxPipeline()
	pipe.XAck(ctx, r.stream, r.group, id)
	pipe.XDel(ctx, r.stream, id)
	_, err := pipe.Exec(ctx)
	return err
}

func parseSaleEvent(values map[string]interface{}) (SaleEvent, error) {
	saleID, err := getStreamString(values, "sale_id")
	if err != nil {
		return SaleEvent{}, err
	}
	quantityStr, err := getStreamString(values, "quantity")
	if err != nil {
		return SaleEvent{}, err
	}
	unitPrice, err := getStreamString(values, "unit_price")
	if err != nil {
		return SaleEvent{}, err
	}
	total, err := getStreamString(values, "total")
	if err != nil {
		return SaleEvent{}, err
	}
	tier, err := getStreamString(values, "price_tier")
	if err != nil {
		return SaleEvent{}, err
	}
	staffID, err := getStreamString(values, "staff_id")
	if err != nil {
		return SaleEvent{}, err
	}
	soldAt, err := getStreamString(values, "sold_at")
	if err != nil {
		return SaleEvent{}, err
	}

	quantity, err := strconv.ParseInt(quantityStr, 10, 64)
	if err != nil {
		return SaleEvent{}, fmt.Errorf("invalid quantity %q", quantityStr)
	}

	ev := SaleEvent{
		SaleID:    saleID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     total,
		PriceTier: tier,
		StaffID:   staffID,
		SoldAt:    soldAt,
	}
	// Optional field; absent for standard and bulk sales.
	if promo, perr := getStreamString(values, "promotion_name"); perr == nil {
		ev.PromotionName = promo
	}
	if err := ev.Validate(); err != nil {
		return SaleEvent{}, err
	}
	return ev, nil
}

func getStreamString(values map[string]interface{}, key string) (string, error) {
	v, ok := values[key]
	if !ok {
		return "", fmt.Errorf("missing field %s", key)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		return strconv.FormatInt(int64(x), 10), nil
	default:
		return "", fmt.Errorf("unsupported field type %s: %T", key, v)
	}
}

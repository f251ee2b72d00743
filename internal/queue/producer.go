package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer wraps the Kafka writer for the sale-event topic.
type Producer struct {
	w *kafka.Writer
}

// NewProducer configures the writer for reliability:
// - Hash + key: events for the same sale land on the same partition.
// - RequireAll: wait for ISR acks to reduce loss risk.
// - MaxAttempts/timeouts bound retries.
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Close releases the writer.
func (p *Producer) Close() error { return p.w.Close() }

// Publish writes one sale event synchronously, keyed by sale id so the event
// carries its own idempotency handle.
func (p *Producer) Publish(ctx context.Context, ev SaleEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.SaleID),
		Value: b,
	})
}

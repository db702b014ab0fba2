package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
	TypeProductDeleted = "product.deleted"
	TypeSaleRecorded   = "sale.recorded"
	TypeSaleReturned   = "sale.returned"
)

// Publisher ships domain events to kafka. A Publisher constructed with an
// empty address is disabled and every Publish is a no-op.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(address, topic string) *Publisher {
	if address == "" {
		return &Publisher{}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(address),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			WriteTimeout: 5 * time.Second,
		},
	}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.writer != nil
}

func (p *Publisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	if !p.Enabled() {
		return nil
	}

	value, err := json.Marshal(map[string]any{
		"type": eventType,
		"at":   time.Now().UTC(),
		"data": payload,
	})
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		return fmt.Errorf("kafka: write event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}

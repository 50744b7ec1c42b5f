// Package events publishes order lifecycle facts for downstream consumers
// (fulfilment boards, accounting exports).
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"farm_store/internal/models"

	"github.com/segmentio/kafka-go"
)

type Type string

const (
	OrderPlaced         Type = "order.placed"
	OrderStatusChanged  Type = "order.status_changed"
	OrderPaymentChanged Type = "order.payment_changed"
	OrderArchived       Type = "order.archived"
	OrderRestored       Type = "order.restored"
	OrderDeleted        Type = "order.deleted"
)

var ErrClosed = errors.New("events: publisher closed")

type Event struct {
	Type          Type                 `json:"type"`
	OrderID       uint                 `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	Status        models.OrderStatus   `json:"status,omitempty"`
	PaymentStatus models.PaymentStatus `json:"payment_status,omitempty"`
	Total         string               `json:"total,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// FromOrder snapshots the fields consumers key on.
func FromOrder(t Type, o *models.Order) Event {
	return Event{
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	closed atomic.Bool
}

func NewKafkaPublisher(brokers []string, topic string) Publisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            3,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer)
}

func newKafkaPublisher(w messageWriter) *kafkaPublisher {
	return &kafkaPublisher{writer: w}
}

// Publish keys messages by order number so one order's events stay ordered
// within a partition.
func (p *kafkaPublisher) Publish(ctx context.Context, evt Event) error {
	if p.closed.Load() {
		return ErrClosed
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderNumber),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
		Time: evt.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

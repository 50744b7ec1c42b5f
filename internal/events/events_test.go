package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"farm_store/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed int
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed++
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w)

	order := &models.Order{ID: 42, OrderNumber: "BF-X", Status: models.OrderPending, Total: decimal.RequireFromString("35")}
	require.NoError(t, p.Publish(context.Background(), FromOrder(OrderPlaced, order)))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "BF-X", string(w.msgs[0].Key))
	assert.Equal(t, "order.placed", string(w.msgs[0].Headers[0].Value))

	var evt Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &evt))
	assert.Equal(t, "BF-X", evt.OrderNumber)
	assert.Equal(t, "35.00", evt.Total)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), evt), ErrClosed)
}

func TestKafkaPublisherWriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w)
	err := p.Publish(context.Background(), Event{Type: OrderDeleted, OrderID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

package broker

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/domain/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDispatcher_PublishOrderCreated(t *testing.T) {
	w := &fakeWriter{}
	d := NewDispatcher(w)

	err := d.PublishOrderCreated(context.Background(), model.NewOrderCreatedEvent(model.Order{ID: 42, UserID: 7}))
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	m := w.msgs[0]
	assert.Equal(t, "42", string(m.Key))
	assert.JSONEq(t, `{"orderId":42,"userId":7,"event":"order_created"}`, string(m.Value))
	assert.Equal(t, model.EventOrderCreated, header(m, HeaderEventType))
	_, err = uuid.Parse(header(m, HeaderMessageID))
	assert.NoError(t, err)
}

func TestDispatcher_PublishError(t *testing.T) {
	cause := errors.New("broker unreachable")
	d := NewDispatcher(&fakeWriter{err: cause})

	err := d.PublishOrderCreated(context.Background(), model.OrderCreatedEvent{OrderID: 1, Event: model.EventOrderCreated})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestDispatcher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewDispatcher(w).Close())
	assert.True(t, w.closed)
}

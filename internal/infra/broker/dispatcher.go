package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"storefront/internal/domain/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType = "event_type"
	HeaderMessageID = "message_id"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Dispatcher は注文作成イベントを order_processing へ送る。
// ブローカーが受け取った（acks=all）時点で返る
type Dispatcher struct {
	w messageWriter
}

func NewDispatcher(w messageWriter) *Dispatcher {
	return &Dispatcher{w: w}
}

func (d *Dispatcher) PublishOrderCreated(ctx context.Context, evt model.OrderCreatedEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// key を注文IDにして同じ注文は同じパーティションへ
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.OrderID, 10)),
		Value: body,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(evt.Event)},
			{Key: HeaderMessageID, Value: []byte(uuid.NewString())},
		},
	}
	if err := d.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish order %d: %w", evt.OrderID, err)
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return d.w.Close()
}

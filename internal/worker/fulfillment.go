package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/mail"
	repo "storefront/internal/repository"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DLQ に付けるヘッダ
const (
	HeaderError        = "x-error"
	HeaderAttempts     = "x-attempts"
	HeaderSourceTopic  = "x-source-topic"
	HeaderSourceOffset = "x-source-offset"
)

type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type EmailSender interface {
	Send(ctx context.Context, to string, templateName string, data any) error
}

type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// 1回の送信の上限
	SendTimeout time.Duration
}

// 再送しても結果が変わらないので ack して終わるもの
var errSkip = errors.New("skip message")

// Fulfillment は order_processing を1件ずつ読み、確認メールを送る。
// offset の commit は ack か DLQ 書き込みの後だけ
type Fulfillment struct {
	reader        MessageReader
	deadLetter    MessageWriter
	orders        repo.OrderRepository
	notifications repo.NotificationRepository
	mailer        EmailSender
	cfg           Config
	log           *zap.Logger
	now           func() time.Time
}

func NewFulfillment(
	reader MessageReader,
	deadLetter MessageWriter,
	orders repo.OrderRepository,
	notifications repo.NotificationRepository,
	mailer EmailSender,
	cfg Config,
	log *zap.Logger,
) *Fulfillment {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	return &Fulfillment{
		reader:        reader,
		deadLetter:    deadLetter,
		orders:        orders,
		notifications: notifications,
		mailer:        mailer,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

// Run は ctx が終わるまで読み続ける。ctx 終了なら nil、
// commit できない状態（DLQ 書き込み失敗など）ならエラーで止まる
func (f *Fulfillment) Run(ctx context.Context) error {
	for {
		msg, err := f.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := f.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := f.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// process が nil を返したら commit してよい
func (f *Fulfillment) process(ctx context.Context, msg kafka.Message) error {
	log := f.log.With(
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	)

	var evt model.OrderCreatedEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		log.Warn("invalid payload", zap.Error(err))
		return f.sendToDeadLetter(ctx, log, msg, "invalid payload: "+err.Error(), 0)
	}
	if evt.OrderID <= 0 {
		log.Warn("invalid payload: missing orderId")
		return f.sendToDeadLetter(ctx, log, msg, "invalid payload: missing orderId", 0)
	}
	log = log.With(zap.Int64("order_id", evt.OrderID))

	attempts := 0
	err := backoff.RetryNotify(
		func() error {
			attempts++
			return f.deliver(ctx, log, evt.OrderID)
		},
		f.retryPolicy(ctx),
		func(err error, wait time.Duration) {
			log.Warn("confirmation attempt failed",
				zap.Int("attempt", attempts),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
		},
	)
	switch {
	case err == nil, errors.Is(err, errSkip):
		return nil
	case ctx.Err() != nil:
		// 停止中は DLQ に送らず、未 commit のまま再配信に任せる
		return ctx.Err()
	}

	log.Error("confirmation retries exhausted", zap.Int("attempts", attempts), zap.Error(err))
	if err := f.sendToDeadLetter(ctx, log, msg, err.Error(), attempts); err != nil {
		return err
	}
	// reconcile が同じ注文を拾い直さないように結果を残す
	f.record(ctx, log, model.OrderNotification{
		OrderID: evt.OrderID,
		Outcome: model.NotificationDeadLettered,
		Reason:  err.Error(),
	})
	return nil
}

// deliver は1回分の試行。ack すべきものは Permanent(errSkip)
func (f *Fulfillment) deliver(ctx context.Context, log *zap.Logger, orderID int64) error {
	sent, err := f.notifications.IsSent(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check notification: %w", err)
	}
	if sent {
		log.Info("confirmation already sent")
		return backoff.Permanent(errSkip)
	}

	o, err := f.orders.FindWithDetails(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn("order not found")
		return backoff.Permanent(errSkip)
	}
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	if o.Customer == nil || strings.TrimSpace(o.Customer.Email) == "" {
		log.Warn("order has no customer email")
		f.record(ctx, log, model.OrderNotification{
			OrderID: o.ID,
			Outcome: model.NotificationSkipped,
			Reason:  "no customer email",
		})
		return backoff.Permanent(errSkip)
	}
	to := strings.TrimSpace(o.Customer.Email)

	sendCtx, cancel := context.WithTimeout(ctx, f.cfg.SendTimeout)
	defer cancel()
	if err := f.mailer.Send(sendCtx, to, mail.TemplateOrderConfirmation, newOrderConfirmation(o)); err != nil {
		return err
	}

	// 送信済みなので記録に失敗しても ack する（再配信時に重複送信になりうる）
	f.record(ctx, log, model.OrderNotification{
		OrderID:   o.ID,
		Outcome:   model.NotificationSent,
		Recipient: to,
	})
	log.Info("order confirmation sent", zap.String("recipient", to))
	return nil
}

// record の失敗は ack を止めない
func (f *Fulfillment) record(ctx context.Context, log *zap.Logger, rec model.OrderNotification) {
	rec.RecordedAt = f.now()
	if err := f.notifications.Record(ctx, rec); err != nil {
		log.Error("record notification failed", zap.String("outcome", string(rec.Outcome)), zap.Error(err))
	}
}

func (f *Fulfillment) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if f.cfg.InitialBackoff > 0 {
		b.InitialInterval = f.cfg.InitialBackoff
	}
	if f.cfg.MaxBackoff > 0 {
		b.MaxInterval = f.cfg.MaxBackoff
	}
	// 打ち切りは回数だけで決める
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.cfg.MaxAttempts-1)), ctx)
}

// 元メッセージの key/value/headers をそのまま DLQ へ
func (f *Fulfillment) sendToDeadLetter(ctx context.Context, log *zap.Logger, msg kafka.Message, reason string, attempts int) error {
	headers := make([]kafka.Header, 0, len(msg.Headers)+4)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: HeaderError, Value: []byte(reason)},
		kafka.Header{Key: HeaderAttempts, Value: []byte(strconv.Itoa(attempts))},
		kafka.Header{Key: HeaderSourceTopic, Value: []byte(msg.Topic)},
		kafka.Header{Key: HeaderSourceOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
	)

	dl := kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := f.deadLetter.WriteMessages(ctx, dl); err != nil {
		log.Error("dead-letter write failed", zap.Error(err))
		return fmt.Errorf("dead-letter offset %d: %w", msg.Offset, err)
	}
	log.Warn("message dead-lettered", zap.String("reason", reason), zap.Int("attempts", attempts))
	return nil
}

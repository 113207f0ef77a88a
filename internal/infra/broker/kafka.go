package broker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"storefront/internal/config"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EnsureTopics は注文トピックとDLQを作る。既にあれば何もしない。
// APIとworkerのどちらから呼んでもよい
func EnsureTopics(ctx context.Context, cfg config.KafkaConfig) error {
	conn, err := dialController(ctx, cfg.Brokers)
	if err != nil {
		return err
	}
	defer conn.Close()

	topics := []kafka.TopicConfig{
		{Topic: cfg.Topic, NumPartitions: cfg.Partitions, ReplicationFactor: cfg.Replication},
		{Topic: cfg.DeadLetter, NumPartitions: 1, ReplicationFactor: cfg.Replication},
	}
	for _, t := range topics {
		if err := conn.CreateTopics(t); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", t.Topic, err)
		}
	}
	return nil
}

// controller に繋ぎ直した接続を返す
func dialController(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}

	var lastErr error
	for _, b := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", b)
		if err != nil {
			lastErr = err
			continue
		}
		controller, err := conn.Controller()
		conn.Close()
		if err != nil {
			lastErr = err
			continue
		}
		addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
		cconn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		return cconn, nil
	}
	return nil, fmt.Errorf("connect kafka controller: %w", lastErr)
}

// NewWriter は acks=all の同期 writer
func NewWriter(brokers []string, topic string, log *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
		Async:        false,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Sugar().Errorf("kafka writer: "+msg, args...)
		}),
	}
}

// NewReader はコンシューマグループで読む reader。commit は手動
func NewReader(cfg config.KafkaConfig, log *zap.Logger) *kafka.Reader {
	return kafka.NewReader(readerConfig(cfg, log))
}

// 先読みは1件だけ。処理中の1件以外を抱え込まない
func readerConfig(cfg config.KafkaConfig, log *zap.Logger) kafka.ReaderConfig {
	return kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		QueueCapacity:  1,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Sugar().Errorf("kafka reader: "+msg, args...)
		}),
	}
}

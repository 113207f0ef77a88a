package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier は新規注文を管理画面向けチャンネルへ流す。購読者がいなくても成功扱い
type RedisNotifier struct {
	rdb     redis.Cmdable
	channel string
}

func NewRedisNotifier(rdb redis.Cmdable, channel string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, channel: channel}
}

func (n *RedisNotifier) OrderCreated(ctx context.Context, notice model.OrderCreatedNotice) error {
	b, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, b).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}

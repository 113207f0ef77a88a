package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"storefront/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// CartRedisStore はカートを cart:{userID} のハッシュで持つ。
// field = productID, value = CartEntry の JSON
type CartRedisStore struct {
	rdb redis.Cmdable
}

func NewCartRedisStore(rdb redis.Cmdable) *CartRedisStore {
	return &CartRedisStore{rdb: rdb}
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

func (s *CartRedisStore) Get(ctx context.Context, userID int64) (map[int64]model.CartEntry, error) {
	raw, err := s.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", cartKey(userID), err)
	}

	entries := make(map[int64]model.CartEntry, len(raw))
	for field, val := range raw {
		productID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cart field %q: %w", field, model.ErrInvalidCartEntry)
		}
		var e model.CartEntry
		if err := json.Unmarshal([]byte(val), &e); err != nil {
			return nil, fmt.Errorf("cart entry %d: %w", productID, model.ErrInvalidCartEntry)
		}
		// キーと値の productID は一致させる
		e.ProductID = productID
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("cart entry %d: %w", productID, err)
		}
		entries[productID] = e
	}
	return entries, nil
}

// Set は同じ商品があれば上書きする
func (s *CartRedisStore) Set(ctx context.Context, userID int64, entry model.CartEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cart entry: %w", err)
	}
	if err := s.rdb.HSet(ctx, cartKey(userID), strconv.FormatInt(entry.ProductID, 10), b).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", cartKey(userID), err)
	}
	return nil
}

func (s *CartRedisStore) Remove(ctx context.Context, userID int64, productID int64) (bool, error) {
	n, err := s.rdb.HDel(ctx, cartKey(userID), strconv.FormatInt(productID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("hdel %s: %w", cartKey(userID), err)
	}
	return n > 0, nil
}

func (s *CartRedisStore) Clear(ctx context.Context, userID int64) error {
	if err := s.rdb.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("del %s: %w", cartKey(userID), err)
	}
	return nil
}

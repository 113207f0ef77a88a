package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーごとのカート（productID -> CartEntry）。有効期限なし
type CartStore interface {
	Get(ctx context.Context, userID int64) (map[int64]model.CartEntry, error)
	Set(ctx context.Context, userID int64, entry model.CartEntry) error
	// 削除できたら true
	Remove(ctx context.Context, userID int64, productID int64) (bool, error)
	Clear(ctx context.Context, userID int64) error
}

package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 注文トランザクションで使う在庫操作
type ProductStockRepository interface {
	// id昇順で SELECT ... FOR UPDATE する。見つからないidは結果に含まれない
	LockByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	// 数量とステータスを書き戻す
	SaveStock(ctx context.Context, p model.Product) error
}

// 商品の永続化（保存・取得）を約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 見つからないidは結果に含まれない
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	// 物理削除。注文明細の product_id は NULL にする
	Delete(ctx context.Context, id int64) error

	// カテゴリ込みで全件を batchSize 件ずつ fn に渡す
	FindInBatches(ctx context.Context, batchSize int, fn func(batch []model.Product) error) error
}

type CategoryRepository interface {
	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Category, error)
}

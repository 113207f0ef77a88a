package usecase

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 検索インデックス（elasticsearch）
type SearchIndex interface {
	Upsert(ctx context.Context, doc model.SearchDocument) error
	Delete(ctx context.Context, productID int64) error
	BulkUpsert(ctx context.Context, docs []model.SearchDocument) error
}

// SearchSyncer は商品の書き込み後に検索インデックスを追従させる。
// 同期失敗は商品の書き込みを失敗させない
type SearchSyncer struct {
	index      SearchIndex
	products   repo.ProductRepository
	categories repo.CategoryRepository
	log        *zap.Logger
	batchSize  int
}

func NewSearchSyncer(index SearchIndex, products repo.ProductRepository, categories repo.CategoryRepository, log *zap.Logger, batchSize int) *SearchSyncer {
	if batchSize < 1 {
		batchSize = 500
	}
	return &SearchSyncer{
		index:      index,
		products:   products,
		categories: categories,
		log:        log,
		batchSize:  batchSize,
	}
}

// AfterSave は作成・更新後に呼ぶ。カテゴリが未ロードなら1回だけ引く
func (s *SearchSyncer) AfterSave(ctx context.Context, p model.Product) {
	log := s.log.With(zap.Int64("product_id", p.ID))

	if p.Category == nil && p.CategoryID != nil {
		c, err := s.categories.FindByID(ctx, *p.CategoryID)
		if err != nil {
			log.Warn("category lookup for search document failed", zap.Error(err))
		} else {
			p.Category = &c
		}
	}

	if err := s.index.Upsert(ctx, model.NewSearchDocument(p)); err != nil {
		log.Error("search upsert failed", zap.Error(err))
		return
	}
	log.Debug("search document upserted")
}

// AfterDelete は削除後に呼ぶ
func (s *SearchSyncer) AfterDelete(ctx context.Context, productID int64) {
	if err := s.index.Delete(ctx, productID); err != nil {
		s.log.Error("search delete failed", zap.Int64("product_id", productID), zap.Error(err))
	}
}

// Reindex は全商品を batchSize 件ずつ入れ直す。入れた件数を返す
func (s *SearchSyncer) Reindex(ctx context.Context) (int, error) {
	total := 0
	err := s.products.FindInBatches(ctx, s.batchSize, func(batch []model.Product) error {
		docs := make([]model.SearchDocument, 0, len(batch))
		for _, p := range batch {
			docs = append(docs, model.NewSearchDocument(p))
		}
		if err := s.index.BulkUpsert(ctx, docs); err != nil {
			return fmt.Errorf("bulk upsert after %d documents: %w", total, err)
		}
		total += len(docs)
		s.log.Info("reindex batch done", zap.Int("batch", len(docs)), zap.Int("total", total))
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, nil
}

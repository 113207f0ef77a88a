package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/search"
	"storefront/internal/logger"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

// 全商品を検索インデックスに入れ直す
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.Must(cfg.GoEnv)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := reindex(ctx, cfg, log)
	if err != nil {
		log.Fatal("reindex failed", zap.Int("indexed", n), zap.Error(err))
	}
	log.Info("reindex completed", zap.Int("indexed", n))
}

func reindex(ctx context.Context, cfg config.Config, log *zap.Logger) (int, error) {
	gormDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		return 0, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	esClient, err := search.NewClient(cfg.Search.URL)
	if err != nil {
		return 0, err
	}
	index := search.NewProductIndex(esClient, cfg.Search.Index)
	if err := index.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	syncer := usecase.NewSearchSyncer(
		index,
		infraRepo.NewProductGormRepository(gormDB),
		infraRepo.NewCategoryGormRepository(gormDB),
		log,
		cfg.Search.BatchSize,
	)
	return syncer.Reindex(ctx)
}

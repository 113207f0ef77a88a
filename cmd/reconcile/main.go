package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

// 確認メール記録の無い古い注文のイベントを再送する。cron から叩く想定
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.Must(cfg.GoEnv)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n, err := reconcile(ctx, cfg, log)
	if err != nil {
		log.Fatal("reconcile finished with errors", zap.Int("republished", n), zap.Error(err))
	}
	log.Info("reconcile completed", zap.Int("republished", n))
}

func reconcile(ctx context.Context, cfg config.Config, log *zap.Logger) (int, error) {
	gormDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		return 0, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return 0, err
	}
	defer sqlDB.Close()

	if err := broker.EnsureTopics(ctx, cfg.Kafka); err != nil {
		return 0, fmt.Errorf("ensure topics: %w", err)
	}
	dispatcher := broker.NewDispatcher(broker.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, log))
	defer dispatcher.Close()

	uc := usecase.NewReconcileUsecase(infraRepo.NewOrderGormRepository(gormDB), dispatcher, log)
	return uc.Reconcile(ctx, cfg.Worker.ReconcileAfter, cfg.Worker.ReconcileLimit)
}

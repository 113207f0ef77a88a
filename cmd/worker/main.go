package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/db"
	"storefront/internal/infra/mail"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/worker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log := logger.Must(cfg.GoEnv)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("worker stopped", zap.Error(err))
	}
	log.Info("worker exiting")
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := cfg.RequireMail(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//DB接続
	gormDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	//Kafka
	if err := broker.EnsureTopics(ctx, cfg.Kafka); err != nil {
		return fmt.Errorf("ensure topics: %w", err)
	}
	reader := broker.NewReader(cfg.Kafka, log)
	defer reader.Close()
	deadLetter := broker.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.DeadLetter, log)
	defer deadLetter.Close()

	//SMTP
	sender, err := mail.NewSMTPSender(cfg.Mail)
	if err != nil {
		return err
	}

	f := worker.NewFulfillment(
		reader,
		deadLetter,
		infraRepo.NewOrderGormRepository(gormDB),
		infraRepo.NewNotificationGormRepository(gormDB),
		sender,
		worker.Config{
			MaxAttempts:    cfg.Worker.MaxAttempts,
			InitialBackoff: cfg.Worker.InitialBackoff,
			MaxBackoff:     cfg.Worker.MaxBackoff,
			SendTimeout:    cfg.Worker.SendTimeout,
		},
		log,
	)

	log.Info("worker consuming",
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID),
	)
	return f.Run(ctx)
}

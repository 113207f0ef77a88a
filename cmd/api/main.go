package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/broker"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/notify"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/search"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/server"
	"storefront/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
	log.Info("api exiting")
}

func run(cfg config.Config, log *zap.Logger) error {
	if err := cfg.RequireAPI(); err != nil {
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

	//Redis（カート・管理画面通知）
	rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	//Kafka（注文イベント）
	if err := broker.EnsureTopics(ctx, cfg.Kafka); err != nil {
		return fmt.Errorf("ensure topics: %w", err)
	}
	dispatcher := broker.NewDispatcher(broker.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, log))
	defer dispatcher.Close()

	//Elasticsearch。落ちていても起動は続ける
	esClient, err := search.NewClient(cfg.Search.URL)
	if err != nil {
		return err
	}
	productIndex := search.NewProductIndex(esClient, cfg.Search.Index)
	if err := productIndex.EnsureIndex(ctx); err != nil {
		log.Warn("search index not ready", zap.Error(err))
	}

	//Repository（GORM実装）生成
	txManager := infraRepo.NewTxManagerGorm(gormDB, cfg.Postgres.LockTimeout)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	cartStore := cache.NewCartRedisStore(rdb)
	notifier := notify.NewRedisNotifier(rdb, cfg.Redis.OrdersChannel)

	//Usecase生成
	searchSync := usecase.NewSearchSyncer(productIndex, productRepo, categoryRepo, log, cfg.Search.BatchSize)
	orderUC := usecase.NewOrderUsecase(
		txManager,
		orderRepo,
		orderItemRepo,
		cartStore,
		dispatcher,
		notifier,
		log,
		cfg.Worker.PostCommitTimeout,
	)
	cartUC := usecase.NewCartUsecase(cartStore, productRepo, log)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, searchSync, log)
	addressUC := usecase.NewAddressUsecase(addressRepo, log)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, orderRepo, log)

	//Handler生成
	e := server.New(log)
	server.RegisterRoutes(e, middleware.AuthJWT(cfg.JWTSecret), server.Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"postgres": sqlDB.PingContext,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Address:      handler.NewAddressHandler(addressUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC),
	})

	//Server起動
	return server.Start(ctx, e, listenAddr(cfg.Port), 30*time.Second, log)
}

func listenAddr(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-ticket-marketplace/internal/api"
	"github.com/sanosuguru/go-ticket-marketplace/internal/api/handler"
	"github.com/sanosuguru/go-ticket-marketplace/internal/api/middleware"
	"github.com/sanosuguru/go-ticket-marketplace/internal/application"
	"github.com/sanosuguru/go-ticket-marketplace/internal/config"
	"github.com/sanosuguru/go-ticket-marketplace/internal/infrastructure/kafka"
	"github.com/sanosuguru/go-ticket-marketplace/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-ticket-marketplace/internal/infrastructure/redis"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/logger"
	"github.com/sanosuguru/go-ticket-marketplace/internal/pkg/metrics"
	"github.com/sanosuguru/go-ticket-marketplace/internal/worker"
)

func main() {
	// .env はローカル開発用。なくてもよい
	_ = godotenv.Load()

	cfg := config.Load()
	logger.Set(logger.NewLogger(cfg.App.Env))
	log := logger.Get()
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("設定エラー", zap.Error(err))
	}

	m := metrics.Init()

	// データベース
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatal("データベース接続エラー", zap.Error(err))
	}
	defer db.Close()

	version, err := postgres.RunMigrations(db.DB, cfg.App.MigrationsPath)
	if err != nil {
		log.Fatal("マイグレーションエラー", zap.Error(err))
	}
	log.Info("マイグレーション適用済み", zap.Uint("version", version))

	// Redis
	rdb := redis.NewClient(&cfg.Redis)
	defer rdb.Close()
	tierCache := redis.NewTierCache(rdb, redis.DefaultTierCacheTTL)
	lockManager := redis.NewLockManager(rdb, m)

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	tierRepo := postgres.NewTicketTierRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	// 注文イベント配信。ブローカー未設定なら配信しない
	var publisher application.OrderEventPublisher
	if cfg.Kafka.Enabled() {
		p := kafka.NewOrderEventPublisher(&cfg.Kafka)
		defer func() {
			if err := p.Close(); err != nil {
				log.Warn("Kafkaライター終了エラー", zap.Error(err))
			}
		}()
		publisher = p
		log.Info("注文イベント配信を有効化", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.OrderTopic))
	}

	// サービス
	eventService := application.NewEventService(eventRepo)
	tierService := application.NewTicketTierService(tierRepo, eventRepo, tierCache)
	purchaseService := application.NewPurchaseService(txManager, tierRepo, orderRepo,
		application.WithTierCache(tierCache),
		application.WithOrderEventPublisher(publisher),
		application.WithPurchaseMetrics(m),
		application.WithRetryPolicy(cfg.Purchase.MaxRetries, cfg.Purchase.RetryBackoff),
	)
	paymentService := application.NewPaymentService(orderRepo, cfg.Payment.WebhookSecret, publisher, m)
	analyticsService := application.NewAnalyticsService(orderRepo, eventRepo)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	middleware.SetupMiddleware(e, m)

	registerRoutes(e, cfg, routeHandlers{
		event:     handler.NewEventHandler(eventService),
		tier:      handler.NewTicketTierHandler(tierService),
		order:     handler.NewOrderHandler(purchaseService),
		payment:   handler.NewPaymentHandler(paymentService),
		analytics: handler.NewAnalyticsHandler(analyticsService),
		health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			"redis":    func(ctx context.Context) error { return redis.Ping(ctx, rdb) },
		}),
	})

	// 注文集計ワーカー
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	collector := worker.NewOrderStatsCollector(orderRepo, lockManager, m, cfg.Worker.StatsInterval)
	go collector.Start(ctx)

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Info("サーバー起動", zap.String("addr", addr), zap.String("env", cfg.App.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("サーバーをシャットダウンしています...")
	collector.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("サーバーシャットダウンエラー", zap.Error(err))
		return
	}

	log.Info("サーバーが正常にシャットダウンしました")
}

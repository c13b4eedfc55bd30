package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/route"
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/cache"
	"MonikaNotify/internal/handler"
	"MonikaNotify/internal/httpserver"
	"MonikaNotify/internal/queue"
	"MonikaNotify/internal/repository"
	"MonikaNotify/internal/router"
	"MonikaNotify/internal/service"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/metrics"
	"MonikaNotify/pkg/otel"
	"MonikaNotify/pkg/snowflake"
	"MonikaNotify/pkg/whatsapp"
	"MonikaNotify/storage"
	"MonikaNotify/storage/database"
	"MonikaNotify/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// 日志部分
	logger.Init(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	shutdownOTel, err := otel.Setup(ctx, cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			logger.Logger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	// queue 模式下通知结果经 RabbitMQ 交给 worker 落库
	queueMode := cfg.NotifyLogMode == "queue"

	// 初始化存储层，记得关闭外部连接
	if err := storage.Init(cfg, storage.Options{Database: true, Redis: true, MQ: queueMode}); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if queueMode {
		if err := queue.DeclareTopology(); err != nil {
			logger.Logger.Fatal("Failed to declare queue topology", zap.Error(err))
		}
	}

	ids, err := snowflake.New(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	wa, err := whatsapp.New(cfg)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize WhatsApp client", zap.Error(err))
	}

	m := metrics.Noop()
	if cfg.OTelEnabled {
		if m, err = metrics.New(nil); err != nil {
			logger.Logger.Fatal("Failed to initialize metrics", zap.Error(err))
		}
	}

	store := repository.NewStore(database.DB())
	dispatch := service.NewDispatchService(wa, service.Links{
		BaseURL:      cfg.BaseURL,
		NotifyAPIURL: cfg.NotifyAPIURL,
		DocsURL:      cfg.DocsURL,
	}, m)

	newLogCode := func() string { return ids.NextString("nl") }
	recorder, err := service.NewOutcomeRecorder(cfg.NotifyLogMode, store.NotifyLogs, queue.NewProducer(nil, newLogCode), newLogCode)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize notify outcome recorder", zap.Error(err))
	}

	notify := service.NewNotifyService(store.WebhookTokens, store.Users, dispatch, recorder, m)
	registration := service.NewRegistrationService(store, dispatch, cache.NewLocker(redis.Client()), service.RegistrationOptions{
		TTL:            cfg.RegistrationTTL,
		ResendCooldown: cfg.ResendCooldown(),
	})

	handlers := router.APIHandlers{
		Notify:       handler.NewNotifyHandler(notify),
		Registration: handler.NewRegistrationHandler(registration),
		Health:       handler.NewHealthHandler("Monika Whatsapp Notify API Server", cfg.ServiceVersion, nil),
	}

	logger.Logger.Info("Server starting",
		zap.String("service", cfg.ServiceName),
		zap.String("port", cfg.ServerPort),
		zap.String("environment", cfg.Environment),
		zap.String("notify_log_mode", cfg.NotifyLogMode),
	)

	h, err := httpserver.New(httpserver.Options{
		Config: cfg,
		Port:   cfg.ServerPort,
		Redis:  redis.Client(),
		Register: func(e *route.Engine, opts router.Options) {
			router.Register(e, handlers, opts)
		},
	})
	if err != nil {
		logger.Logger.Fatal("Failed to create HTTP server", zap.Error(err))
	}

	httpserver.Serve(ctx, h, "api")

	logger.Logger.Info("Server shutting down gracefully")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/cache"
	"MonikaNotify/internal/queue"
	"MonikaNotify/internal/repository"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/otel"
	"MonikaNotify/storage"
	"MonikaNotify/storage/database"
	"MonikaNotify/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Logger.Info("Worker received shutdown signal",
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

	if err := storage.Init(cfg, storage.Options{Database: true, Redis: true, MQ: true}); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	if err := queue.DeclareTopology(); err != nil {
		logger.Logger.Fatal("Failed to declare queue topology", zap.Error(err))
	}

	store := repository.NewStore(database.DB())
	consumer := queue.NewOutcomeConsumer(cache.NewMessageMarker(redis.Client()), store.NotifyLogs)

	logger.Logger.Info("Worker service starting",
		zap.String("service", cfg.ServiceName+"-worker"),
		zap.String("environment", cfg.Environment),
	)

	// 阻塞直到 ctx 取消
	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Logger.Error("Notify outcome consumer stopped", zap.Error(err))
	}

	logger.Logger.Info("Worker service shutting down gracefully")
}

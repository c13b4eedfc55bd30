package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/repository"
	"MonikaNotify/internal/schedule"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/storage"
	"MonikaNotify/storage/database"
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

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Logger.Info("Scheduler received shutdown signal",
			zap.String("signal", sig.String()),
		)
		cancel()
	}()

	if err := storage.Init(cfg, storage.Options{Database: true}); err != nil {
		logger.Logger.Fatal("Failed to initialize storage for scheduler", zap.Error(err))
	}
	defer storage.Close()

	logger.Logger.Info("Scheduler service starting",
		zap.String("service", cfg.ServiceName+"-scheduler"),
		zap.String("environment", cfg.Environment),
	)

	store := repository.NewStore(database.DB())
	cleaner := schedule.NewRegistrationCleaner(store.Registrations)

	// 过期的注册申请不影响重新注册，清理只为控制表大小
	interval := cfg.RegistrationTTL
	if cfg.IsDevelopment() {
		interval = time.Minute
		logger.Logger.Info("Registration cleanup running in development mode with 1m interval")
	}

	go cleaner.Loop(ctx, interval)

	<-ctx.Done()

	logger.Logger.Info("Scheduler service shutting down gracefully")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/route"
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/handler"
	"MonikaNotify/internal/httpserver"
	"MonikaNotify/internal/repository"
	"MonikaNotify/internal/router"
	"MonikaNotify/internal/service"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/metrics"
	"MonikaNotify/pkg/otel"
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

	// webhook 服务只写 webhook_logs
	if err := storage.Init(cfg, storage.Options{Database: true}); err != nil {
		logger.Logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer storage.Close()

	m := metrics.Noop()
	if cfg.OTelEnabled {
		if m, err = metrics.New(nil); err != nil {
			logger.Logger.Fatal("Failed to initialize metrics", zap.Error(err))
		}
	}

	store := repository.NewStore(database.DB())
	fb, err := service.NewFacebookService(store.WebhookLogs, service.FacebookOptions{
		PhoneID:     cfg.WhatsAppPhoneID,
		AppSecret:   cfg.FacebookAppSecret,
		VerifyToken: cfg.FacebookVerifyToken,
	}, m)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize Facebook webhook service", zap.Error(err))
	}

	fbHandler := handler.NewFacebookHandler(fb)
	health := handler.NewHealthHandler("Facebook Webhooks Server", cfg.ServiceVersion, fb)

	logger.Logger.Info("Webhook server starting",
		zap.String("service", cfg.ServiceName+"-webhook"),
		zap.String("port", cfg.WebhookServerPort),
		zap.String("environment", cfg.Environment),
	)

	h, err := httpserver.New(httpserver.Options{
		Config: cfg,
		Port:   cfg.WebhookServerPort,
		Register: func(e *route.Engine, opts router.Options) {
			router.RegisterWebhook(e, fbHandler, health, opts)
		},
	})
	if err != nil {
		logger.Logger.Fatal("Failed to create HTTP server", zap.Error(err))
	}

	httpserver.Serve(ctx, h, "webhook")

	logger.Logger.Info("Webhook server shutting down gracefully")
}

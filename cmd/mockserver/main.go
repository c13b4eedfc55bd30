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
	"MonikaNotify/internal/router"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/snowflake"
)

// WhatsApp Graph API 的本地替身，开发时将 WHATSAPP_API_URL 指向本服务
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

	ids, err := snowflake.New(cfg.SnowflakeMachineID, cfg.SnowflakeDataCenter)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize snowflake", zap.Error(err))
	}

	mock := handler.NewWhatsAppMockHandler(func() string { return ids.NextString("") })
	health := handler.NewHealthHandler("WhatsApp Mock Server", cfg.ServiceVersion, nil)

	logger.Logger.Info("Mock server starting",
		zap.String("port", cfg.MockServerPort),
		zap.String("environment", cfg.Environment),
	)

	h, err := httpserver.New(httpserver.Options{
		Config: cfg,
		Port:   cfg.MockServerPort,
		Register: func(e *route.Engine, opts router.Options) {
			router.RegisterMock(e, mock, health, opts)
		},
	})
	if err != nil {
		logger.Logger.Fatal("Failed to create HTTP server", zap.Error(err))
	}

	httpserver.Serve(ctx, h, "mock")

	logger.Logger.Info("Mock server shutting down gracefully")
}

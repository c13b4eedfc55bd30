package httpserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/route"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/middleware"
	"MonikaNotify/internal/router"
	"MonikaNotify/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

// RegisterFunc 挂载路由，对应 router.Register / RegisterWebhook / RegisterMock
type RegisterFunc func(e *route.Engine, opts router.Options)

type Options struct {
	Config *config.Config
	Port   string
	// 为空时不限流
	Redis    goredis.Cmdable
	Register RegisterFunc
}

// New 创建 hertz server 并挂载路由，开启 otel 时同时挂载 tracer 与 HTTP 指标
func New(opts Options) (*server.Hertz, error) {
	cfg := opts.Config
	addr := net.JoinHostPort(cfg.ServerHost, opts.Port)

	serverOpts := []hertzconfig.Option{server.WithHostPorts(addr)}
	routerOpts := router.Options{Config: cfg, Redis: opts.Redis}

	if cfg.OTelEnabled {
		tracer, tracing := middleware.NewServerTracerConfig()
		serverOpts = append(serverOpts, tracer)
		routerOpts.Tracing = tracing

		m, err := middleware.NewHTTPMetrics(otel.Meter(cfg.ServiceName))
		if err != nil {
			return nil, fmt.Errorf("failed to create http metrics: %w", err)
		}
		routerOpts.Metrics = m
	}

	h := server.Default(serverOpts...)
	opts.Register(h.Engine, routerOpts)

	return h, nil
}

// Serve 阻塞运行，ctx 取消后优雅关闭
func Serve(ctx context.Context, h *server.Hertz, name string) {
	go func() {
		<-ctx.Done()
		logger.Logger.Info("Initiating graceful shutdown...", zap.String("server", name))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Logger.Error("Failed to shutdown HTTP server", zap.String("server", name), zap.Error(err))
		}
	}()

	logger.Logger.Info("HTTP server listening", zap.String("server", name))

	h.Spin()
}

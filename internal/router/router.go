package router

import (
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"
	goredis "github.com/redis/go-redis/v9"

	"MonikaNotify/config"
	"MonikaNotify/internal/handler"
	"MonikaNotify/internal/middleware"
)

// Options 各个服务共用的中间件依赖
type Options struct {
	Config *config.Config
	// Redis 为空时不挂载限流
	Redis goredis.Cmdable
	// 以下为空时跳过对应中间件
	Metrics *middleware.HTTPMetrics
	Tracing app.HandlerFunc
}

// APIHandlers 通知接口与注册接口
type APIHandlers struct {
	Notify       *handler.NotifyHandler
	Registration *handler.RegistrationHandler
	Health       *handler.HealthHandler
}

func use(e *route.Engine, opts Options) {
	e.Use(middleware.RecoverMiddleware(middleware.NewRecoverConfig(opts.Config.IsProduction())))
	if opts.Tracing != nil {
		e.Use(opts.Tracing)
	}
	if opts.Config.OTelEnabled {
		e.Use(middleware.OpenTelemetryMiddleware(opts.Metrics))
	}
	if opts.Config.IsDebug() {
		e.Use(middleware.AccessLogMiddleware())
	}
	e.Use(middleware.CORSMiddleware())
}

func rateLimit(opts Options, cfg middleware.RateLimitConfig) []app.HandlerFunc {
	if opts.Redis == nil || !opts.Config.RateLimitEnabled {
		return nil
	}
	return []app.HandlerFunc{middleware.RateLimitMiddleware(opts.Redis, cfg)}
}

// Register 通知 API 服务
func Register(e *route.Engine, h APIHandlers, opts Options) {
	use(e, opts)

	e.GET("/", h.Health.Info)
	e.GET("/health", h.Health.Health)

	api := e.Group("/api")

	// Monika 回调，按 token 限流
	notify := api.Group("/notify", rateLimit(opts, middleware.NotifyRateLimitConfig(opts.Config))...)
	{
		notify.POST("", h.Notify.Notify)
	}

	// 注册流程，按 IP 限流
	reg := api.Group("", rateLimit(opts, middleware.RegistrationRateLimitConfig())...)
	{
		reg.POST("/register", h.Registration.Register)
		reg.POST("/confirm", h.Registration.Confirm)
		reg.POST("/resend", h.Registration.Resend)
		reg.POST("/delete", h.Registration.Delete)
		reg.POST("/test-webhook", h.Registration.TestWebhook)
	}

	e.NoRoute(handler.NotFound)
}

// RegisterWebhook Facebook webhook 服务
func RegisterWebhook(e *route.Engine, fb *handler.FacebookHandler, health *handler.HealthHandler, opts Options) {
	use(e, opts)

	e.GET("/", health.Info)
	e.GET("/health", health.Health)
	e.GET("/api/webhook/facebook", fb.Challenge)
	e.POST("/api/webhook/facebook", fb.Webhook)

	e.NoRoute(handler.NotFound)
}

// RegisterMock WhatsApp Graph API mock 服务
func RegisterMock(e *route.Engine, mock *handler.WhatsAppMockHandler, health *handler.HealthHandler, opts Options) {
	use(e, opts)

	e.GET("/", health.Info)
	e.GET("/health", health.Health)
	e.POST("/:phoneId/messages", mock.Messages)

	e.NoRoute(handler.MockNotFound)
}

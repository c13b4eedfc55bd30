package middleware

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"MonikaNotify/config"
	"MonikaNotify/internal/cache"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/response"
	"MonikaNotify/storage/redis"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	// 时间窗口（秒）
	Window int
	// 时间窗口内最大请求数
	MaxRequests int
	// 限流键前缀
	KeyPrefix string
	// 是否按 ?token= 限流，没有 token 时退化为按 IP
	ByToken bool
	// 阻塞时长（秒），超过限制后禁止访问的时间
	BlockDuration int
}

// NotifyRateLimitConfig 通知接口，按 webhook token 限流
func NotifyRateLimitConfig(cfg *config.Config) RateLimitConfig {
	return RateLimitConfig{
		Window:        cfg.RateLimitWindow,
		MaxRequests:   cfg.RateLimitMaxRequests,
		KeyPrefix:     "rate:notify",
		ByToken:       true,
		BlockDuration: cfg.RateLimitBlockSeconds,
	}
}

// RegistrationRateLimitConfig 注册相关接口，按 IP 限流
func RegistrationRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:        60,
		MaxRequests:   10,
		KeyPrefix:     "rate:register",
		BlockDuration: 900, // 阻塞15分钟
	}
}

var memberSeq atomic.Uint64

// RateLimiter 基于 zset 的滑动窗口限流器
type RateLimiter struct {
	client  goredis.Cmdable
	config  RateLimitConfig
	breaker *cache.CircuitBreaker
	now     func() time.Time
}

func NewRateLimiter(client goredis.Cmdable, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client:  client,
		config:  config,
		breaker: cache.NewCircuitBreaker(config.KeyPrefix, 5, 30*time.Second),
		now:     time.Now,
	}
}

func (rl *RateLimiter) getKey(c *app.RequestContext) string {
	if rl.config.ByToken {
		if token := c.Query("token"); token != "" {
			return redis.Key(rl.config.KeyPrefix, "token", token)
		}
	}
	return redis.Key(rl.config.KeyPrefix, "ip", c.ClientIP())
}

func blockKey(key string) string {
	return key + ":block"
}

// Allow 检查是否允许请求，使用滑动窗口算法
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := rl.now()
	windowStart := now.Add(-time.Duration(rl.config.Window) * time.Second)

	pipe := rl.client.Pipeline()

	// 先移除窗口之前的请求记录
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, goredis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d:%d", now.UnixNano(), memberSeq.Add(1)),
	})
	zcardCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, time.Duration(rl.config.Window+10)*time.Second)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to execute pipeline: %w", err)
	}

	count := int(zcardCmd.Val())
	return count <= rl.config.MaxRequests, count, nil
}

func (rl *RateLimiter) Block(ctx context.Context, key string) error {
	return rl.client.Set(ctx, blockKey(key), "1", time.Duration(rl.config.BlockDuration)*time.Second).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	n, err := rl.client.Exists(ctx, blockKey(key)).Result()
	return n > 0, err
}

// check Redis 故障或熔断时放行
func (rl *RateLimiter) check(ctx context.Context, key string) (allowed bool, count int, ok bool) {
	err := rl.breaker.Call(func() error {
		blocked, err := rl.IsBlocked(ctx, key)
		if err != nil {
			return err
		}
		if blocked {
			allowed, count = false, rl.config.MaxRequests+1
			return nil
		}

		allowed, count, err = rl.Allow(ctx, key)
		if err != nil {
			return err
		}
		if !allowed && rl.config.BlockDuration > 0 {
			return rl.Block(ctx, key)
		}
		return nil
	})
	if err != nil {
		logger.Logger.Warn("Rate limit check skipped", zap.String("key", key), zap.Error(err))
		return true, 0, false
	}
	return allowed, count, true
}

// RateLimitMiddleware 创建限流中间件
func RateLimitMiddleware(client goredis.Cmdable, config RateLimitConfig) app.HandlerFunc {
	limiter := NewRateLimiter(client, config)
	return limiter.Handler()
}

func (rl *RateLimiter) Handler() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		key := rl.getKey(c)
		allowed, count, ok := rl.check(ctx, key)
		if !ok {
			c.Next(ctx)
			return
		}

		remaining := rl.config.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Response.Header.Set("X-RateLimit-Limit", strconv.Itoa(rl.config.MaxRequests))
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Response.Header.Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Add(time.Duration(rl.config.Window)*time.Second).Unix(), 10))

		if !allowed {
			response.Error(ctx, c, errors.TooManyRequests)
			c.Abort()
			return
		}

		c.Next(ctx)
	}
}

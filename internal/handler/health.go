package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"

	"MonikaNotify/internal/model/dto"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/response"
	"MonikaNotify/utils"
)

// LogCounter 健康检查时附带 webhook 日志数量，由 FacebookService 实现
type LogCounter interface {
	CountLogs(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	info    dto.ServerInfo
	started time.Time
	logs    LogCounter
	now     func() time.Time
}

func NewHealthHandler(message, version string, logs LogCounter) *HealthHandler {
	return &HealthHandler{
		info:    dto.ServerInfo{Message: message, Version: version},
		started: time.Now(),
		logs:    logs,
		now:     time.Now,
	}
}

// Info GET /
func (h *HealthHandler) Info(ctx context.Context, c *app.RequestContext) {
	c.JSON(http.StatusOK, h.info)
}

// Health GET /health
func (h *HealthHandler) Health(ctx context.Context, c *app.RequestContext) {
	now := h.now()
	res := dto.HealthResponse{
		Status:    "healthy",
		Timestamp: utils.ISOMillis(now),
		Uptime:    now.Sub(h.started).Seconds(),
	}

	if h.logs != nil {
		n, err := h.logs.CountLogs(ctx)
		if err != nil {
			response.Error(ctx, c, err)
			return
		}
		res.WebhookLogs = &n
	}

	c.JSON(http.StatusOK, res)
}

// NotFound 未匹配的路由
func NotFound(ctx context.Context, c *app.RequestContext) {
	response.Error(ctx, c, errors.EndpointNotFound)
}

package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MonikaNotify/internal/model/dto"
	"MonikaNotify/internal/service"
	"MonikaNotify/pkg/response"
)

type FacebookHandler struct {
	svc *service.FacebookService
}

func NewFacebookHandler(svc *service.FacebookService) *FacebookHandler {
	return &FacebookHandler{svc: svc}
}

// Challenge 订阅校验
// GET /api/webhook/facebook
func (h *FacebookHandler) Challenge(ctx context.Context, c *app.RequestContext) {
	query := make(map[string]string)
	c.QueryArgs().VisitAll(func(key, value []byte) {
		query[string(key)] = string(value)
	})

	status, text := h.svc.Challenge(query)
	c.String(status, text)
}

// Webhook 接收 WhatsApp Business 推送
// POST /api/webhook/facebook
func (h *FacebookHandler) Webhook(ctx context.Context, c *app.RequestContext) {
	header := func(name string) string {
		return string(c.GetHeader(name))
	}

	res, err := h.svc.Handle(ctx, header, c.Request.Body())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	if res.Error != "" {
		c.JSON(res.Status, dto.FacebookError{Error: res.Error})
		return
	}
	c.String(res.Status, "OK")
}

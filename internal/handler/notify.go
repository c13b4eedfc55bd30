package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"MonikaNotify/internal/service"
	"MonikaNotify/pkg/response"
)

type NotifyHandler struct {
	svc *service.NotifyService
}

func NewNotifyHandler(svc *service.NotifyService) *NotifyHandler {
	return &NotifyHandler{svc: svc}
}

// Notify 接收 Monika 的通知回调
// POST /api/notify?token=
func (h *NotifyHandler) Notify(ctx context.Context, c *app.RequestContext) {
	token := c.Query("token")
	hasToken := c.QueryArgs().Has("token")

	res, err := h.svc.Notify(ctx, token, hasToken, c.Request.Body())
	if err != nil {
		response.Error(ctx, c, err)
		return
	}

	c.JSON(res.Status, res)
}

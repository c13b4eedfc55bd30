package handler

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"MonikaNotify/internal/model/dto"
	"MonikaNotify/internal/service"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/response"
)

type RegistrationHandler struct {
	svc *service.RegistrationService
}

func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// bind 请求体不是 JSON 对象时返回 INVALID_DATA
func bind(ctx context.Context, c *app.RequestContext, req interface{}) bool {
	if err := json.Unmarshal(c.Request.Body(), req); err != nil {
		logger.Logger.Debug("Invalid registration request body",
			zap.String("path", string(c.Path())),
			zap.Error(err),
		)
		response.Error(ctx, c, errors.InvalidData)
		return false
	}
	return true
}

// Register 提交姓名和号码，发送确认链接
// POST /api/register
func (h *RegistrationHandler) Register(ctx context.Context, c *app.RequestContext) {
	var req dto.RegisterRequest
	if !bind(ctx, c, &req) {
		return
	}

	res, err := h.svc.Register(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, res)
}

// Confirm 确认链接中的 token，生成 webhook token
// POST /api/confirm
func (h *RegistrationHandler) Confirm(ctx context.Context, c *app.RequestContext) {
	var req dto.TokenRequest
	if !bind(ctx, c, &req) {
		return
	}

	res, err := h.svc.Confirm(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, res)
}

// Resend 重新发送使用说明
// POST /api/resend
func (h *RegistrationHandler) Resend(ctx context.Context, c *app.RequestContext) {
	var req dto.ResendRequest
	if !bind(ctx, c, &req) {
		return
	}

	res, err := h.svc.Resend(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, res)
}

// Delete 删除 webhook token 与用户
// POST /api/delete
func (h *RegistrationHandler) Delete(ctx context.Context, c *app.RequestContext) {
	var req dto.TokenRequest
	if !bind(ctx, c, &req) {
		return
	}

	res, err := h.svc.Delete(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, res)
}

// TestWebhook 用示例数据发送一条通知
// POST /api/test-webhook
func (h *RegistrationHandler) TestWebhook(ctx context.Context, c *app.RequestContext) {
	var req dto.TestWebhookRequest
	if !bind(ctx, c, &req) {
		return
	}

	res, err := h.svc.TestWebhook(ctx, &req)
	if err != nil {
		response.Error(ctx, c, err)
		return
	}
	response.Success(ctx, c, res)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/whatsapp"
)

const mockTraceID = "mock-fbtrace-id"

// WhatsAppMockHandler 本地联调用的 Graph API 替身
type WhatsAppMockHandler struct {
	newID func() string
}

func NewWhatsAppMockHandler(newID func() string) *WhatsAppMockHandler {
	return &WhatsAppMockHandler{newID: newID}
}

func graphError(c *app.RequestContext, status int, message string, code, subcode int) {
	c.JSON(status, whatsapp.APIError{Error: whatsapp.APIErrorDetail{
		Message:      message,
		Type:         "OAuthException",
		Code:         code,
		ErrorSubcode: subcode,
		FBTraceID:    mockTraceID,
	}})
}

// Messages 校验 Bearer 与模板消息格式，返回与 Cloud API 相同结构的响应
// POST /:phoneId/messages
func (h *WhatsAppMockHandler) Messages(ctx context.Context, c *app.RequestContext) {
	auth := string(c.GetHeader("Authorization"))
	if !strings.HasPrefix(auth, "Bearer ") {
		graphError(c, http.StatusUnauthorized, "Invalid or missing authorization token", 190, 460)
		return
	}

	var req whatsapp.MessageRequest
	if err := json.Unmarshal(c.Request.Body(), &req); err != nil || !req.Valid() {
		graphError(c, http.StatusBadRequest, "Invalid request format", 100, 33)
		return
	}

	messageID := "mock-message-" + h.newID()

	logger.Logger.Info("Mock WhatsApp message sent",
		zap.String("phone_id", c.Param("phoneId")),
		zap.String("template", req.Template.Name),
		zap.String("message_id", messageID),
	)

	c.JSON(http.StatusOK, whatsapp.MessageResponse{
		MessagingProduct: req.MessagingProduct,
		Contacts:         []whatsapp.MessageContact{{Input: req.To, WaID: req.To}},
		Messages:         []whatsapp.MessageID{{ID: messageID}},
	})
}

// MockNotFound mock server 的 404 沿用 Graph API 错误格式
func MockNotFound(ctx context.Context, c *app.RequestContext) {
	graphError(c, http.StatusNotFound, "Endpoint not found", 100, 33)
}

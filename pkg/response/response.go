package response

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
)

// ErrorResponse 统一的错误响应格式
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Details map[string]interface{} `json:"details,omitempty"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
}

// SuccessResponse 统一的成功响应格式
type SuccessResponse struct {
	Data interface{}            `json:"data"`
	Meta map[string]interface{} `json:"meta,omitempty"`
}

// StatusOf 根据错误码映射 HTTP 状态码
func StatusOf(err error) int {
	def, ok := errors.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch def.Code {
	case errors.TokenNotFound.Code, errors.UserNotFound.Code:
		return http.StatusUnauthorized // 401
	case errors.InvalidRequestBody.Code, errors.InvalidData.Code, errors.InvalidToken.Code:
		return http.StatusBadRequest // 400
	case errors.PhoneNumberAlreadyRegistered.Code, errors.RegistrationAlreadyAttempted.Code:
		return http.StatusConflict // 409
	case errors.WebhookNotFound.Code, errors.WebhookTokenNotFound.Code, errors.EndpointNotFound.Code:
		return http.StatusNotFound // 404
	case errors.WebhookResendTooSoon.Code, errors.TooManyRequests.Code:
		return http.StatusTooManyRequests // 429
	case errors.FetchError.Code, errors.ParseJSONError.Code,
		errors.WhatsAppTemplateNotFound.Code, errors.WhatsAppSendMessageError.Code:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}

// Error 返回错误响应
func Error(ctx context.Context, c *app.RequestContext, err error) {
	ErrorWithDetails(ctx, c, err, nil)
}

func ErrorWithDetails(ctx context.Context, c *app.RequestContext, err error, details map[string]interface{}) {
	statusCode := StatusOf(err)

	var code, message string
	if def, ok := errors.As(err); ok {
		code = def.Code
		message = def.Message
	} else {
		// 非业务错误不向调用方暴露细节
		logger.Logger.Error("Unhandled error",
			zap.String("path", string(c.Path())),
			zap.Error(err),
		)
		code = errors.InternalError.Code
		message = errors.InternalError.Message
	}

	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data: data,
	})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    errors.InvalidData.Code,
			Message: err.Error(),
		},
	})
}

// NoContent 返回 204 No Content
func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}

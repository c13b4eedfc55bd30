package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/metrics"
	"MonikaNotify/pkg/whatsapp"
	"MonikaNotify/utils"
)

// Links 消息中拼接的外部地址
type Links struct {
	BaseURL      string
	NotifyAPIURL string
	DocsURL      string
}

// DispatchService 模板查找 -> 参数映射 -> 发送 -> 校验响应
type DispatchService struct {
	client  whatsapp.Client
	links   Links
	metrics *metrics.OTelMetrics
}

func NewDispatchService(client whatsapp.Client, links Links, m *metrics.OTelMetrics) *DispatchService {
	if m == nil {
		m = metrics.Noop()
	}
	return &DispatchService{client: client, links: links, metrics: m}
}

// Dispatch 成功时原样返回 provider 的响应
// 失败时错误依次为 WhatsAppTemplateNotFound、FetchError / ParseJSONError、WhatsAppSendMessageError
func (s *DispatchService) Dispatch(ctx context.Context, phone string, kind whatsapp.ActionKind, input whatsapp.ActionInput) (*whatsapp.MessageResponse, error) {
	template, ok := whatsapp.TemplateFor(kind)
	if !ok {
		logger.Logger.Error("WhatsApp template not found", zap.String("kind", kind.String()))
		s.metrics.RecordDispatch(ctx, kind.String(), "", errors.WhatsAppTemplateNotFound.Code, 0)
		return nil, errors.WhatsAppTemplateNotFound
	}

	params := whatsapp.ParametersFor(kind, input)

	start := time.Now()
	resp, err := s.client.Send(ctx, template, params, phone)
	if err == nil && !resp.Accepted() {
		err = errors.WhatsAppSendMessageError
	}
	elapsed := time.Since(start).Seconds()

	fields := []zap.Field{
		zap.String("kind", kind.String()),
		zap.String("template", template),
		zap.String("phone", utils.MaskPhone(phone)),
		zap.Float64("duration_seconds", elapsed),
	}

	if err != nil {
		code := errors.CodeOf(err)
		s.metrics.RecordDispatch(ctx, kind.String(), template, code, elapsed)
		logger.Logger.Warn("WhatsApp dispatch failed", append(fields, zap.String("code", code), zap.Error(err))...)
		return nil, err
	}

	s.metrics.RecordDispatch(ctx, kind.String(), template, "", elapsed)
	logger.Logger.Info("WhatsApp message dispatched", append(fields, zap.String("message_id", resp.FirstMessageID()))...)
	return resp, nil
}

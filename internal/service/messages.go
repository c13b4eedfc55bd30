package service

import (
	"context"
	"time"

	"MonikaNotify/pkg/whatsapp"
	"MonikaNotify/utils"
)

// SendConfirmation 发送手机号确认链接
func (s *DispatchService) SendConfirmation(ctx context.Context, phone, name, activationToken string, expiredAt time.Time) (*whatsapp.MessageResponse, error) {
	return s.Dispatch(ctx, phone, whatsapp.KindConfirmation, whatsapp.ConfirmationInput{
		Name:           name,
		ActivationLink: utils.JoinURL(s.links.BaseURL, "confirm/"+activationToken),
		ExpiredAt:      utils.ISOMillis(expiredAt),
	})
}

// SendInstruction 发送 webhook 地址、文档地址和删除地址
func (s *DispatchService) SendInstruction(ctx context.Context, phone, webhookToken string) (*whatsapp.MessageResponse, error) {
	return s.Dispatch(ctx, phone, whatsapp.KindInstruction, whatsapp.InstructionInput{
		NotifyWebhookURL: utils.TrimTrailingSlash(s.links.NotifyAPIURL) + "/api/notify?token=" + webhookToken,
		DocsURL:          utils.TrimTrailingSlash(s.links.DocsURL),
		DeleteWebhookURL: utils.TrimTrailingSlash(s.links.BaseURL) + "/delete/" + webhookToken,
	})
}

func (s *DispatchService) SendStartTerminate(ctx context.Context, phone string, kind whatsapp.ActionKind, ipAddress string) (*whatsapp.MessageResponse, error) {
	return s.Dispatch(ctx, phone, kind, whatsapp.StartTerminateInput{IPAddress: ipAddress})
}

func (s *DispatchService) SendIncidentRecovery(ctx context.Context, phone string, kind whatsapp.ActionKind, input whatsapp.IncidentRecoveryInput) (*whatsapp.MessageResponse, error) {
	return s.Dispatch(ctx, phone, kind, input)
}

func (s *DispatchService) SendStatusUpdate(ctx context.Context, phone string, input whatsapp.StatusUpdateInput) (*whatsapp.MessageResponse, error) {
	return s.Dispatch(ctx, phone, whatsapp.KindStatusUpdate, input)
}

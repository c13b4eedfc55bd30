package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"MonikaNotify/internal/model"
	"MonikaNotify/internal/model/dto"
	"MonikaNotify/internal/repository"
	"MonikaNotify/pkg/errors"
	"MonikaNotify/pkg/logger"
	"MonikaNotify/pkg/whatsapp"
	"MonikaNotify/utils"
)

const (
	minNameLength  = 3
	minPhoneLength = 10

	registerLockTTL = 10 * time.Second
)

// 测试 webhook 使用的固定数据
const (
	testIPAddress = "127.0.0.1"
	testProbeURL  = "http://www.example.com"
	testHost      = "127.0.0.1 (local), 129.111.33.135 (public) My-Computer.local (hostname)"
	testIncident  = "Status is 400, was expecting 200."
	testRecovery  = "Service is ok. Status now 200"
)

// Locker 由 cache.Locker 实现，为空时不加锁
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type RegistrationOptions struct {
	TTL            time.Duration
	ResendCooldown time.Duration
}

// RegistrationService 注册 -> 确认 -> 重发说明 -> 删除 -> 测试 webhook
type RegistrationService struct {
	store    *repository.Store
	dispatch *DispatchService
	locker   Locker
	opts     RegistrationOptions

	now      func() time.Time
	newToken func() string
}

func NewRegistrationService(store *repository.Store, dispatch *DispatchService, locker Locker, opts RegistrationOptions) *RegistrationService {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	return &RegistrationService{
		store:    store,
		dispatch: dispatch,
		locker:   locker,
		opts:     opts,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func validContact(name, phone string) bool {
	return len(name) >= minNameLength && len(phone) >= minPhoneLength
}

func notFound(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}

// Register 创建或刷新注册申请并发送确认链接
func (s *RegistrationService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if !validContact(req.Name, req.Phone) {
		return nil, errors.InvalidData
	}
	phone := utils.NormalizePhone(req.Phone)

	unlock, err := s.lock(ctx, phone)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.store.Users.GetByPhoneHash(ctx, phone); err == nil {
		return nil, errors.PhoneNumberAlreadyRegistered
	} else if !notFound(err) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := s.now()
	existing, err := s.store.Registrations.GetByPhoneHash(ctx, phone)
	if err == nil && existing.Pending(now) {
		return nil, errors.RegistrationAlreadyAttempted
	}
	if err != nil && !notFound(err) {
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	reg := &model.Registration{
		PhoneHash: phone,
		Name:      req.Name,
		Token:     s.newToken(),
		ExpiredAt: now.Add(s.opts.TTL),
	}
	if err := s.store.Registrations.Upsert(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to save registration: %w", err)
	}

	if _, err := s.dispatch.SendConfirmation(ctx, phone, reg.Name, reg.Token, reg.ExpiredAt); err != nil {
		logger.Logger.Warn("Failed to send confirmation message",
			zap.String("phone", utils.MaskPhone(phone)),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Registration created",
		zap.String("phone", utils.MaskPhone(phone)),
		zap.Time("expired_at", reg.ExpiredAt),
	)

	return &dto.RegisterResponse{
		Name:      reg.Name,
		Phone:     phone,
		ExpiredAt: utils.ISOMillis(reg.ExpiredAt),
	}, nil
}

// lock 同一号码的并发注册只放行一个，Redis 不可用时放行
func (s *RegistrationService) lock(ctx context.Context, phone string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := "register:" + phone
	ok, err := s.locker.TryLock(ctx, key, registerLockTTL)
	if err != nil {
		logger.Logger.Warn("Register lock unavailable, continuing without lock", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, errors.RegistrationAlreadyAttempted
	}

	return func() {
		if err := s.locker.Unlock(ctx, key); err != nil {
			logger.Logger.Warn("Failed to release register lock", zap.Error(err))
		}
	}, nil
}

// Confirm 将注册申请转为用户与 webhook token，并发送使用说明
func (s *RegistrationService) Confirm(ctx context.Context, req *dto.TokenRequest) (*dto.ConfirmResponse, error) {
	if req.Token == "" {
		return nil, errors.InvalidData
	}

	reg, err := s.store.Registrations.GetByToken(ctx, req.Token)
	if err != nil {
		if notFound(err) {
			return nil, errors.InvalidToken
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	if !reg.Pending(s.now()) {
		return nil, errors.InvalidToken
	}

	wt := &model.WebhookToken{
		Token: s.newToken(),
		User:  reg.PhoneHash,
		Name:  reg.Name,
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.Create(ctx, &model.User{PhoneHash: reg.PhoneHash, Name: reg.Name}); err != nil {
			return err
		}
		if err := tx.WebhookTokens.Create(ctx, wt); err != nil {
			return err
		}
		return tx.Registrations.DeleteByPhoneHash(ctx, reg.PhoneHash)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm registration: %w", err)
	}

	if _, err := s.dispatch.SendInstruction(ctx, reg.PhoneHash, wt.Token); err != nil {
		logger.Logger.Warn("Failed to send instruction message",
			zap.String("phone", utils.MaskPhone(reg.PhoneHash)),
			zap.Error(err),
		)
	}

	logger.Logger.Info("Registration confirmed", zap.String("phone", utils.MaskPhone(reg.PhoneHash)))

	return &dto.ConfirmResponse{Name: wt.Name, Token: wt.Token}, nil
}

// Resend 冷却期外重新发送使用说明
func (s *RegistrationService) Resend(ctx context.Context, req *dto.ResendRequest) (*dto.ResendResponse, error) {
	if !validContact(req.Name, req.Phone) {
		return nil, errors.InvalidData
	}
	phone := utils.NormalizePhone(req.Phone)

	wt, err := s.store.WebhookTokens.GetByUser(ctx, phone)
	if err != nil {
		if notFound(err) {
			return nil, errors.WebhookNotFound
		}
		return nil, fmt.Errorf("failed to get webhook token: %w", err)
	}

	now := s.now()
	if !wt.CanResend(now) {
		return nil, errors.WebhookResendTooSoon
	}

	if _, err := s.dispatch.SendInstruction(ctx, wt.User, wt.Token); err != nil {
		logger.Logger.Warn("Failed to resend instruction message",
			zap.String("phone", utils.MaskPhone(wt.User)),
			zap.Error(err),
		)
	}

	resendAt := now.Add(s.opts.ResendCooldown)
	if err := s.store.WebhookTokens.UpdateResendAt(ctx, wt.ID, resendAt); err != nil {
		return nil, fmt.Errorf("failed to update resend_at: %w", err)
	}

	return &dto.ResendResponse{Phone: wt.User, ResendAt: utils.ISOMillis(resendAt)}, nil
}

// Delete 删除用户及其 webhook token
func (s *RegistrationService) Delete(ctx context.Context, req *dto.TokenRequest) (*dto.DeleteResponse, error) {
	if req.Token == "" {
		return nil, errors.InvalidData
	}

	wt, err := s.store.WebhookTokens.GetByToken(ctx, req.Token)
	if err != nil {
		if notFound(err) {
			return nil, errors.WebhookTokenNotFound
		}
		return nil, fmt.Errorf("failed to get webhook token: %w", err)
	}

	if _, err := s.store.Users.GetByPhoneHash(ctx, wt.User); err != nil {
		if notFound(err) {
			return nil, errors.UserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Users.DeleteByPhoneHash(ctx, wt.User); err != nil {
			return err
		}
		return tx.WebhookTokens.DeleteByToken(ctx, wt.Token)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete webhook token: %w", err)
	}

	logger.Logger.Info("Webhook token deleted", zap.String("phone", utils.MaskPhone(wt.User)))

	return &dto.DeleteResponse{Token: wt.Token}, nil
}

// TestWebhook 用固定数据发送一条通知，发送失败会返回给调用方
func (s *RegistrationService) TestWebhook(ctx context.Context, req *dto.TestWebhookRequest) (*dto.TestWebhookResponse, error) {
	kind := whatsapp.ActionKind(req.Type)
	if !kind.IsNotify() || req.Token == "" {
		return nil, errors.InvalidData
	}
	kind = kind.WithoutSymon()

	wt, err := s.store.WebhookTokens.GetByToken(ctx, req.Token)
	if err != nil {
		if notFound(err) {
			return nil, errors.WebhookNotFound
		}
		return nil, fmt.Errorf("failed to get webhook token: %w", err)
	}

	user, err := s.store.Users.GetByPhoneHash(ctx, wt.User)
	if err != nil {
		if notFound(err) {
			return nil, errors.UserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	phone := user.PhoneHash
	now := utils.HTTPDate(s.now())

	var resp *whatsapp.MessageResponse
	switch kind {
	case whatsapp.KindStart, whatsapp.KindTerminate:
		resp, err = s.dispatch.SendStartTerminate(ctx, phone, kind, testIPAddress)
	case whatsapp.KindIncident, whatsapp.KindRecovery:
		alert := testIncident
		if kind == whatsapp.KindRecovery {
			alert = testRecovery
		}
		resp, err = s.dispatch.SendIncidentRecovery(ctx, phone, kind, whatsapp.IncidentRecoveryInput{
			Alert:  alert,
			URL:    testProbeURL,
			Time:   now,
			Monika: testHost,
		})
	case whatsapp.KindStatusUpdate:
		resp, err = s.dispatch.SendStatusUpdate(ctx, phone, whatsapp.StatusUpdateInput{
			Time:                      now,
			Monika:                    testHost,
			NumberOfProbes:            "10",
			AverageResponseTime:       "100ms",
			NumberOfIncidents:         "1",
			NumberOfRecoveries:        "1",
			NumberOfSentNotifications: "1",
		})
	}
	if err != nil {
		return nil, err
	}

	return &dto.TestWebhookResponse{Type: kind.String(), MessageID: resp.FirstMessageID()}, nil
}

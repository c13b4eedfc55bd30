package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 聚合所有仓储，Transaction 内的仓储共享同一个事务
type Store struct {
	db *gorm.DB

	Users         *UserRepository
	WebhookTokens *WebhookTokenRepository
	Registrations *RegistrationRepository
	NotifyLogs    *NotifyLogRepository
	WebhookLogs   *WebhookLogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		WebhookTokens: NewWebhookTokenRepository(db),
		Registrations: NewRegistrationRepository(db),
		NotifyLogs:    NewNotifyLogRepository(db),
		WebhookLogs:   NewWebhookLogRepository(db),
	}
}

// Transaction fn 返回错误时回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// deleted 删除 0 行时返回 gorm.ErrRecordNotFound
func deleted(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

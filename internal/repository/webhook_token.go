package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"MonikaNotify/internal/model"
)

type WebhookTokenRepository struct {
	db *gorm.DB
}

func NewWebhookTokenRepository(db *gorm.DB) *WebhookTokenRepository {
	return &WebhookTokenRepository{db: db}
}

func (r *WebhookTokenRepository) GetByToken(ctx context.Context, token string) (*model.WebhookToken, error) {
	var wt model.WebhookToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&wt).Error; err != nil {
		return nil, err
	}
	return &wt, nil
}

// GetByUser 按号码查询，一个号码只有一个 token
func (r *WebhookTokenRepository) GetByUser(ctx context.Context, phone string) (*model.WebhookToken, error) {
	var wt model.WebhookToken
	if err := r.db.WithContext(ctx).Where(`"user" = ?`, phone).First(&wt).Error; err != nil {
		return nil, err
	}
	return &wt, nil
}

func (r *WebhookTokenRepository) Create(ctx context.Context, wt *model.WebhookToken) error {
	return r.db.WithContext(ctx).Create(wt).Error
}

func (r *WebhookTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return deleted(r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.WebhookToken{}))
}

func (r *WebhookTokenRepository) UpdateResendAt(ctx context.Context, id int64, resendAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.WebhookToken{}).
		Where("id = ?", id).
		Update("resend_at", resendAt).Error
}

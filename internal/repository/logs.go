package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"MonikaNotify/internal/model"
)

type NotifyLogRepository struct {
	db *gorm.DB
}

func NewNotifyLogRepository(db *gorm.DB) *NotifyLogRepository {
	return &NotifyLogRepository{db: db}
}

// Create log_code 冲突时忽略，队列重复投递不会产生重复行
func (r *NotifyLogRepository) Create(ctx context.Context, log *model.NotifyLog) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "log_code"}}, DoNothing: true}).
		Create(log).Error
}

type WebhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

func (r *WebhookLogRepository) Create(ctx context.Context, log *model.WebhookLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *WebhookLogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.WebhookLog{}).Count(&n).Error
	return n, err
}

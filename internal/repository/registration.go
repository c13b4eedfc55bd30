package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"MonikaNotify/internal/model"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) GetByPhoneHash(ctx context.Context, phoneHash string) (*model.Registration, error) {
	var reg model.Registration
	if err := r.db.WithContext(ctx).Where("phone_hash = ?", phoneHash).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *RegistrationRepository) GetByToken(ctx context.Context, token string) (*model.Registration, error) {
	var reg model.Registration
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// Upsert 同一号码再次注册时刷新 name / token / expired_at
func (r *RegistrationRepository) Upsert(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "token", "expired_at", "updated_at"}),
		}).
		Create(reg).Error
}

func (r *RegistrationRepository) DeleteByPhoneHash(ctx context.Context, phoneHash string) error {
	return deleted(r.db.WithContext(ctx).Where("phone_hash = ?", phoneHash).Delete(&model.Registration{}))
}

// DeleteExpired 清理过期的注册申请，返回删除行数
func (r *RegistrationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expired_at < ?", now).Delete(&model.Registration{})
	return result.RowsAffected, result.Error
}

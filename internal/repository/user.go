package repository

import (
	"context"

	"gorm.io/gorm"

	"MonikaNotify/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByPhoneHash 未找到时返回 gorm.ErrRecordNotFound
func (r *UserRepository) GetByPhoneHash(ctx context.Context, phoneHash string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("phone_hash = ?", phoneHash).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) DeleteByPhoneHash(ctx context.Context, phoneHash string) error {
	return deleted(r.db.WithContext(ctx).Where("phone_hash = ?", phoneHash).Delete(&model.User{}))
}

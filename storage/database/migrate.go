package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"MonikaNotify/internal/model"
	"MonikaNotify/pkg/logger"
)

// Migrate 运行数据库迁移，创建所有表
func Migrate(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	logger.Logger.Info("Starting database migration...")

	err := db.AutoMigrate(
		&model.User{},
		&model.WebhookToken{},
		&model.Registration{},
		&model.NotifyLog{},
		&model.WebhookLog{},
	)
	if err != nil {
		logger.Logger.Error("Database migration failed", zap.Error(err))
		return err
	}

	logger.Logger.Info("Database migration completed")
	return nil
}

package database

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"MonikaNotify/config"
	"MonikaNotify/pkg/logger"
)

var (
	db     *gorm.DB
	dbOnce sync.Once
	dbErr  error
)

// Init 建立 PostgreSQL 连接并执行迁移，配置了只读副本时注册 dbresolver
func Init(cfg *config.Config) error {
	dbOnce.Do(func() {
		var gormDB *gorm.DB
		gormDB, dbErr = Open(postgres.Open(cfg.GetDSN()), cfg)
		if dbErr != nil {
			logger.Logger.Error("Failed to open database", zap.String("dsn", "please check database connection"), zap.Error(dbErr))
			return
		}

		if len(cfg.PostgreSQLReplicas) > 0 {
			if dbErr = useReplicas(gormDB, cfg); dbErr != nil {
				logger.Logger.Error("Failed to register read replicas", zap.Error(dbErr))
				return
			}
		}

		sqlDB, err := gormDB.DB()
		if err != nil {
			dbErr = err
			logger.Logger.Error("Failed to get sql.DB from gorm", zap.Error(err))
			return
		}

		configureConnectionPool(sqlDB, cfg)

		if err := sqlDB.Ping(); err != nil {
			dbErr = err
			logger.Logger.Error("Failed to ping database", zap.Error(err))
			return
		}

		if err := Migrate(gormDB); err != nil {
			dbErr = err
			return
		}

		db = gormDB
		logger.Logger.Info("Database initialized successfully",
			zap.Int("replicas", len(cfg.PostgreSQLReplicas)),
		)
	})

	return dbErr
}

// Open 按统一的 gorm 配置打开连接，测试中传入 sqlmock 的 dialector
func Open(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   newLogger(cfg),
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.OTelEnabled {
		if err := WithTracing(gormDB, cfg.ServiceName); err != nil {
			return nil, err
		}
	}

	return gormDB, nil
}

func useReplicas(gormDB *gorm.DB, cfg *config.Config) error {
	replicas := make([]gorm.Dialector, 0, len(cfg.PostgreSQLReplicas))
	for _, dsn := range cfg.PostgreSQLReplicas {
		replicas = append(replicas, postgres.Open(dsn))
	}

	return gormDB.Use(
		dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(cfg.PostgreSQLMaxIdle).
			SetMaxOpenConns(cfg.PostgreSQLMaxOpen).
			SetConnMaxIdleTime(10 * time.Minute).
			SetConnMaxLifetime(2 * time.Hour),
	)
}

func DB() *gorm.DB {
	return db
}

func Close(ctx context.Context) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- sqlDB.Close()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func configureConnectionPool(sqlDB *sql.DB, cfg *config.Config) {
	sqlDB.SetMaxIdleConns(cfg.PostgreSQLMaxIdle)
	sqlDB.SetMaxOpenConns(cfg.PostgreSQLMaxOpen)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)
}

func newLogger(cfg *config.Config) gormlogger.Interface {
	level := gormlogger.Warn
	switch {
	case cfg.IsDebug():
		level = gormlogger.Info
	case strings.EqualFold(cfg.LoggerLevel, "ERROR"):
		level = gormlogger.Error
	}

	return gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

type zapWriter struct{}

func (zapWriter) Printf(format string, args ...interface{}) {
	logger.Logger.Sugar().Infof(format, args...)
}

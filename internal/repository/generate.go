package repository

import (
	"time"

	"gorm.io/gen"
	"gorm.io/gorm"

	"MonikaNotify/internal/model"
)

// 以下接口由 cmd/gen 生成到 internal/repository/query，供运维脚本和临时查询使用。
// 服务内的读写走本包手写的仓储，生成代码不入库。

// UserQuerier 用户查询接口
type UserQuerier interface {
	// GetByPhoneHash 根据规范化手机号查询用户
	// SELECT * FROM @@table WHERE phone_hash = @phoneHash LIMIT 1
	GetByPhoneHash(phoneHash string) (*gen.T, error)
}

// WebhookTokenQuerier 通知凭证查询接口
type WebhookTokenQuerier interface {
	// GetByToken 根据 token 查询凭证
	// SELECT * FROM @@table WHERE token = @token LIMIT 1
	GetByToken(token string) (*gen.T, error)

	// GetByUser 根据手机号查询凭证
	// SELECT * FROM @@table WHERE "user" = @phone LIMIT 1
	GetByUser(phone string) (*gen.T, error)
}

// RegistrationQuerier 注册申请查询接口
type RegistrationQuerier interface {
	// GetByToken 根据确认 token 查询注册申请
	// SELECT * FROM @@table WHERE token = @token LIMIT 1
	GetByToken(token string) (*gen.T, error)

	// DeleteExpired 清理过期的注册申请
	// DELETE FROM @@table WHERE expired_at < @now
	DeleteExpired(now time.Time) (gen.RowsAffected, error)
}

// NotifyLogQuerier 通知日志查询接口
type NotifyLogQuerier interface {
	// CountByUserAndType 按类型统计某个用户的通知结果
	// SELECT type, result, COUNT(*) AS total FROM @@table
	// WHERE user_id = @userID
	// GROUP BY type, result
	CountByUserAndType(userID int64) ([]gen.M, error)
}

// WebhookLogQuerier Facebook webhook 日志查询接口
type WebhookLogQuerier interface {
	// ListSince 查询某个时间之后收到的 webhook
	// SELECT * FROM @@table WHERE created_at >= @since ORDER BY id DESC LIMIT @limit
	ListSince(since time.Time, limit int) ([]*gen.T, error)
}

// GeneratorConfig 生成代码的输出路径与模式
func GeneratorConfig(outPath string) gen.Config {
	return gen.Config{
		OutPath:           outPath,
		ModelPkgPath:      "MonikaNotify/internal/model",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface | gen.WithoutContext,
		FieldNullable:     true,
		FieldCoverable:    false,
		FieldSignable:     false,
		FieldWithIndexTag: false,
		FieldWithTypeTag:  true,
	}
}

// Generate 基于已有 model 生成 query 包，db 需已完成迁移
func Generate(db *gorm.DB, outPath string) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}

	g := gen.NewGenerator(GeneratorConfig(outPath))
	g.UseDB(db)

	// 使用现有 model，不从表结构反推
	g.ApplyBasic(
		&model.User{},
		&model.WebhookToken{},
		&model.Registration{},
		&model.NotifyLog{},
		&model.WebhookLog{},
	)

	g.ApplyInterface(func(UserQuerier) {}, &model.User{})
	g.ApplyInterface(func(WebhookTokenQuerier) {}, &model.WebhookToken{})
	g.ApplyInterface(func(RegistrationQuerier) {}, &model.Registration{})
	g.ApplyInterface(func(NotifyLogQuerier) {}, &model.NotifyLog{})
	g.ApplyInterface(func(WebhookLogQuerier) {}, &model.WebhookLog{})

	g.Execute()
	return nil
}

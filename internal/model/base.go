package model

import (
	"time"
)

// BaseModel 硬删除：用户删除后同一号码可以重新注册，唯一索引不能被软删除行占用
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
}

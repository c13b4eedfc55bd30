package model

import (
	"time"

	"MonikaNotify/pkg/whatsapp"
)

// NotifyType 通知日志中的类型，-symon 别名归并到基础类型
type NotifyType string

const (
	NotifyTypeStart        NotifyType = "start"
	NotifyTypeTerminate    NotifyType = "terminate"
	NotifyTypeIncident     NotifyType = "incident"
	NotifyTypeRecovery     NotifyType = "recovery"
	NotifyTypeStatusUpdate NotifyType = "status_update"
)

// NotifyTypeFor 将请求中的动作类型映射为日志类型
func NotifyTypeFor(kind whatsapp.ActionKind) NotifyType {
	switch kind {
	case whatsapp.KindStatusUpdate:
		return NotifyTypeStatusUpdate
	case whatsapp.KindIncidentSymon:
		return NotifyTypeIncident
	case whatsapp.KindRecoverySymon:
		return NotifyTypeRecovery
	default:
		return NotifyType(kind)
	}
}

// NotifyLog 每次通知请求进入发送阶段后记录一行
type NotifyLog struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	LogCode   string     `gorm:"uniqueIndex;type:varchar(64);not null" json:"log_code"` // snowflake，队列消费幂等用
	UserID    int64      `gorm:"index;not null" json:"user_id"`
	Type      NotifyType `gorm:"type:varchar(32);not null" json:"type"`
	Result    string     `gorm:"type:varchar(16);not null" json:"result"`
	ErrorCode string     `gorm:"type:varchar(64);not null;default:''" json:"error_code,omitempty"`
	MessageID string     `gorm:"type:varchar(128);not null;default:''" json:"message_id,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (NotifyLog) TableName() string {
	return "notify_logs"
}

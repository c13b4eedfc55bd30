package model

import "time"

// WebhookLog Facebook webhook 原始报文
type WebhookLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Logs      string    `gorm:"type:text;not null" json:"logs"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}

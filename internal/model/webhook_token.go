package model

import "time"

// WebhookToken 用户的通知凭证，Monika 通过 ?token= 调用通知接口
type WebhookToken struct {
	BaseModel
	Token    string     `gorm:"uniqueIndex;type:varchar(64);not null" json:"token"`
	User     string     `gorm:"index;type:varchar(32);not null" json:"-"` // 对应 users.phone_hash
	Name     string     `gorm:"type:varchar(128);not null" json:"name"`
	ResendAt *time.Time `json:"resend_at,omitempty"`
}

func (WebhookToken) TableName() string {
	return "webhook_tokens"
}

// CanResend 冷却期内（resend_at >= now）不允许再次发送说明消息
func (w *WebhookToken) CanResend(now time.Time) bool {
	return w.ResendAt == nil || w.ResendAt.Before(now)
}

package model

import "time"

// Registration 待确认的注册申请，确认后转为 User + WebhookToken
type Registration struct {
	BaseModel
	PhoneHash string    `gorm:"uniqueIndex;type:varchar(32);not null" json:"-"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Token     string    `gorm:"uniqueIndex;type:varchar(64);not null" json:"-"`
	ExpiredAt time.Time `gorm:"not null" json:"expired_at"`
}

func (Registration) TableName() string {
	return "registrations"
}

// Pending 未过期的注册申请会阻止重复注册
func (r *Registration) Pending(now time.Time) bool {
	return r.ExpiredAt.After(now)
}

package model

// User 已确认手机号的用户
// PhoneHash 沿用历史字段名，实际存的是规范化后的 E.164 号码，同时作为发送目标
type User struct {
	BaseModel
	PhoneHash string `gorm:"uniqueIndex;type:varchar(32);not null" json:"-"`
	Name      string `gorm:"type:varchar(128);not null" json:"name"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

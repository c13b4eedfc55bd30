package dto

// ========== Registration 相关 DTO ==========

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// RegisterResponse 注册结果，expiredAt 为 ISO-8601
type RegisterResponse struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	ExpiredAt string `json:"expiredAt"`
}

// TokenRequest confirm / delete 请求
type TokenRequest struct {
	Token string `json:"token"`
}

// ConfirmResponse 确认成功后返回 webhook token
type ConfirmResponse struct {
	Name  string `json:"name"`
	Token string `json:"token"`
}

// ResendRequest 重新发送说明消息
type ResendRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ResendResponse 重新发送结果
type ResendResponse struct {
	Phone    string `json:"phone"`
	ResendAt string `json:"resendAt"`
}

// DeleteResponse 删除结果
type DeleteResponse struct {
	Token string `json:"token"`
}

// TestWebhookRequest 测试 webhook 请求
type TestWebhookRequest struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// TestWebhookResponse 测试 webhook 结果
type TestWebhookResponse struct {
	Type      string `json:"type"`
	MessageID string `json:"messageId"`
}

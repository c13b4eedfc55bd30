package model

// NotifyOutcomeMessage 通知发送结果消息，NOTIFY_LOG_MODE=queue 时由 worker 落库
type NotifyOutcomeMessage struct {
	MessageID   string     `json:"message_id"` // 消息唯一ID，用于幂等性检查
	UserID      int64      `json:"user_id"`
	Type        NotifyType `json:"type"`
	Result      string     `json:"result"`
	ErrorCode   string     `json:"error_code,omitempty"`
	WaMessageID string     `json:"wa_message_id,omitempty"`
	OccurredAt  string     `json:"occurred_at"` // RFC3339
}

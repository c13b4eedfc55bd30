package dto

// ServerInfo GET / 响应
type ServerInfo struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

// HealthResponse GET /health 响应
type HealthResponse struct {
	Status      string  `json:"status"`
	Timestamp   string  `json:"timestamp"`
	Uptime      float64 `json:"uptime"`
	WebhookLogs *int64  `json:"webhookLogs,omitempty"`
}

// FacebookError Facebook webhook 的错误响应体
type FacebookError struct {
	Error string `json:"error"`
}

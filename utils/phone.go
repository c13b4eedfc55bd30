package utils

import "strings"

// NormalizePhone 统一为带 + 的国际号码：已有 + 保留，开头的 0 替换为 +，其余直接补 +
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "0"):
		return "+" + phone[1:]
	default:
		return "+" + phone
	}
}

// MaskPhone 日志中隐藏号码中间位
func MaskPhone(phone string) string {
	if len(phone) <= 6 {
		return "***"
	}
	return phone[:4] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-2:]
}

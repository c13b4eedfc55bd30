package utils

import (
	"time"
)

// ISOMillis 输出 UTC ISO-8601 时间，保留毫秒，例如 2024-04-26T10:00:00.000Z
func ISOMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// HTTPDate 输出 RFC1123 GMT 时间，例如 Fri, 26 Apr 2024 10:00:00 GMT
func HTTPDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}

package utils

import "strings"

// TrimTrailingSlash 去掉 URL 末尾的所有 /
func TrimTrailingSlash(u string) string {
	return strings.TrimRight(u, "/")
}

// JoinURL 拼接 base 与 path，避免出现双斜杠
func JoinURL(base, path string) string {
	return TrimTrailingSlash(base) + "/" + strings.TrimLeft(path, "/")
}

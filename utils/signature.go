package utils

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
)

var hmacHashes = map[string]func() hash.Hash{
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// SignBody 计算 body 的 HMAC，返回 "<alg>=<hex>"，与 X-Hub-Signature 头的格式一致
// 不支持的算法返回 false
func SignBody(alg, secret string, body []byte) (string, bool) {
	newHash, ok := hmacHashes[alg]
	if !ok {
		return "", false
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)

	return alg + "=" + hex.EncodeToString(mac.Sum(nil)), true
}

// VerifyBodySignature 常量时间比较签名头
func VerifyBodySignature(alg, secret string, body []byte, header string) bool {
	expected, ok := SignBody(alg, secret, body)
	if !ok {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(header))
}

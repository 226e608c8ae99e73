package biz

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// DigestLength SHA-256 十六进制摘要长度
const DigestLength = 64

// HashOf 计算字节序列的 SHA-256 摘要（小写十六进制）
func HashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NewHasher 返回流式 SHA-256 哈希器，用于合并时边写边算
func NewHasher() hash.Hash {
	return sha256.New()
}

// DigestString 取出流式哈希器的十六进制摘要
func DigestString(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// ValidDigest 校验摘要格式（64 位小写十六进制）
func ValidDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

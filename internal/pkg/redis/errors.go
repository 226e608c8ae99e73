package redis

import "errors"

var (
	// ErrLockNotAcquired 锁已被其他持有者占用
	ErrLockNotAcquired = errors.New("redis: lock not acquired")

	// ErrLockNotHeld 释放锁时令牌不匹配（锁已过期或被他人持有）
	ErrLockNotHeld = errors.New("redis: lock not held by this token")
)

package data

import (
	"context"
	"time"

	pkgredis "github.com/Laprimamiku/ikvcs/internal/pkg/redis"
)

// RedisLocker 基于 Redis 的跨实例互斥锁，实现 biz.DistLocker。
// 锁有过期时间，防止持有者崩溃后永久阻塞；合并耗时与文件大小
// 成正比，过期时间应配置得比最大预期合并时长更宽裕。
type RedisLocker struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisLocker 创建 Redis 锁
func NewRedisLocker(client *pkgredis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// WithLock 在锁保护下执行 fn
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func() error) error {
	return l.client.WithLock(ctx, key, l.ttl, fn)
}

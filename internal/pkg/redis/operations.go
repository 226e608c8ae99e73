package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ==================== String Operations ====================

// Set 设置键值（支持过期时间）
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	err := c.rdb.Set(ctx, key, value, expiration).Err()
	if err != nil {
		c.logger.Error("redis set failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return err
}

// Get 获取键值
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil && !IsNil(err) {
		c.logger.Error("redis get failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return val, err
}

// Del 删除键
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.logger.Error("redis del failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
	return n, err
}

// Exists 检查键是否存在
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		c.logger.Error("redis exists failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
	return n, err
}

// Expire 设置过期时间
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	ok, err := c.rdb.Expire(ctx, key, expiration).Result()
	if err != nil {
		c.logger.Error("redis expire failed",
			zap.String("key", key),
			zap.Duration("expiration", expiration),
			zap.Error(err),
		)
	}
	return ok, err
}

// ==================== List Operations (task queues) ====================

// LPush 从队列头部入队
func (c *Client) LPush(ctx context.Context, key string, values ...interface{}) (int64, error) {
	n, err := c.rdb.LPush(ctx, key, values...).Result()
	if err != nil {
		c.logger.Error("redis lpush failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return n, err
}

// BRPop 从队列尾部阻塞出队
func (c *Client) BRPop(ctx context.Context, timeout time.Duration, keys ...string) ([]string, error) {
	vals, err := c.rdb.BRPop(ctx, timeout, keys...).Result()
	if err != nil && !IsNil(err) {
		c.logger.Error("redis brpop failed",
			zap.Strings("keys", keys),
			zap.Error(err),
		)
	}
	return vals, err
}

// LLen 队列长度
func (c *Client) LLen(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.LLen(ctx, key).Result()
	if err != nil {
		c.logger.Error("redis llen failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	return n, err
}

// Eval 执行 Lua 脚本
func (c *Client) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	result, err := c.rdb.Eval(ctx, script, keys, args...).Result()
	if err != nil && !IsNil(err) {
		c.logger.Error("redis eval failed", zap.Error(err))
	}
	return result, err
}

// ==================== Distributed Lock ====================

// unlockScript 只释放自己持有的锁
var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Lock 获取分布式锁，返回持有者令牌
func (c *Client) Lock(ctx context.Context, key string, expiration time.Duration) (string, error) {
	token := uuid.New().String()

	// 使用 SetNX 获取锁
	ok, err := c.rdb.SetNX(ctx, key, token, expiration).Result()
	if err != nil {
		c.logger.Error("redis lock failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return "", err
	}
	if !ok {
		return "", ErrLockNotAcquired
	}
	return token, nil
}

// Unlock 释放分布式锁（仅当令牌匹配时）
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	n, err := unlockScript.Run(ctx, c.rdb, []string{key}, token).Int64()
	if err != nil {
		c.logger.Error("redis unlock failed",
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// TryLock 尝试获取分布式锁（带重试）
func (c *Client) TryLock(ctx context.Context, key string, expiration time.Duration, maxRetries int, retryDelay time.Duration) (string, error) {
	var token string
	var err error
	for i := 0; i <= maxRetries; i++ {
		token, err = c.Lock(ctx, key, expiration)
		if err == nil {
			return token, nil
		}
		if err != ErrLockNotAcquired {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return "", ErrLockNotAcquired
}

// WithLock 在锁保护下执行函数
func (c *Client) WithLock(ctx context.Context, key string, expiration time.Duration, fn func() error) error {
	token, err := c.Lock(ctx, key, expiration)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := c.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
			c.logger.Warn("failed to release lock",
				zap.String("key", key),
				zap.Error(uerr),
			)
		}
	}()
	return fn()
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	return NewFromClient(rdb, zap.NewNop()), mr
}

func TestSetGetDel(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))

	val, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	n, err := c.Del(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = c.Get(ctx, "k")
	assert.True(t, IsNil(err))
}

func TestLockUnlock(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	token, err := c.Lock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Second acquisition must fail while held
	_, err = c.Lock(ctx, "lock:a", time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	// Wrong token cannot release
	err = c.Unlock(ctx, "lock:a", "bogus")
	assert.ErrorIs(t, err, ErrLockNotHeld)

	require.NoError(t, c.Unlock(ctx, "lock:a", token))

	// Released lock can be re-acquired
	_, err = c.Lock(ctx, "lock:a", time.Minute)
	require.NoError(t, err)
}

func TestWithLock(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ran := false
	err := c.WithLock(ctx, "lock:b", time.Minute, func() error {
		ran = true

		// The lock must be held while fn runs
		_, err := c.Lock(ctx, "lock:b", time.Minute)
		assert.ErrorIs(t, err, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// And released afterwards
	_, err = c.Lock(ctx, "lock:b", time.Minute)
	require.NoError(t, err)
}

func TestQueueOps(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.LPush(ctx, "queue:test", "job-1")
	require.NoError(t, err)
	_, err = c.LPush(ctx, "queue:test", "job-2")
	require.NoError(t, err)

	n, err := c.LLen(ctx, "queue:test")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// FIFO: first pushed is popped first
	vals, err := c.BRPop(ctx, time.Second, "queue:test")
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "job-1", vals[1])
}

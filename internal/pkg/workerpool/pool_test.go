package workerpool

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmitAndStats(t *testing.T) {
	pool, err := New(&Config{Workers: 4}, zap.NewNop())
	require.NoError(t, err)
	defer pool.Release()

	for i := 0; i < 10; i++ {
		fail := i%2 == 0
		err := pool.Submit(func() error {
			if fail {
				return errors.New("boom")
			}
			return nil
		})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		s := pool.Stats()
		return s.Completed+s.Failed == 10
	}, 5*time.Second, 10*time.Millisecond)

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.Submitted)
	assert.Equal(t, int64(5), stats.Completed)
	assert.Equal(t, int64(5), stats.Failed)
}

func TestSubmitAfterRelease(t *testing.T) {
	pool, err := New(nil, zap.NewNop())
	require.NoError(t, err)

	pool.Release()
	err = pool.Submit(func() error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

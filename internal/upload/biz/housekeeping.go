package biz

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper 定期回收过期的未完成会话及其临时分片。
// 由于 content_hash 可断点续传，被回收的上传重试时会重建会话，
// 清理只是运维问题而非正确性问题。
type Sweeper struct {
	sessions  SessionRepo
	chunks    ChunkStore
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewSweeper 创建清理器
func NewSweeper(sessions SessionRepo, chunks ChunkStore, retention, interval time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		sessions:  sessions,
		chunks:    chunks,
		retention: retention,
		interval:  interval,
		logger:    log,
	}
}

// Run 周期执行清理直到 ctx 取消
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.SweepOnce(ctx)
		}
	}
}

// SweepOnce 执行一轮清理，返回回收的会话数
func (sw *Sweeper) SweepOnce(ctx context.Context) int {
	cutoff := time.Now().Add(-sw.retention)

	hashes, err := sw.sessions.DeleteStale(ctx, cutoff)
	if err != nil {
		sw.logger.Error("failed to delete stale sessions", zap.Error(err))
		return 0
	}

	for _, h := range hashes {
		if err := sw.chunks.RemoveAll(ctx, h); err != nil {
			sw.logger.Warn("failed to remove chunks of stale session",
				zap.String("content_hash", h),
				zap.Error(err))
		}
	}

	if len(hashes) > 0 {
		sw.logger.Info("reclaimed stale upload sessions", zap.Int("count", len(hashes)))
	}
	return len(hashes)
}

package biz

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// ChunkStore 分片临时存储接口，键为 (内容哈希, 分片序号)
type ChunkStore interface {
	// Put 写入分片字节，同键覆盖旧内容（最后写入生效）
	Put(ctx context.Context, contentHash string, index int, r io.Reader) (int64, error)

	// Open 打开分片读取；不存在返回 ErrChunkMissing
	Open(ctx context.Context, contentHash string, index int) (io.ReadCloser, error)

	// RemoveAll 删除会话的全部临时分片
	RemoveAll(ctx context.Context, contentHash string) error
}

// Progress 上传进度
type Progress struct {
	Received    int
	TotalChunks int
}

// ChunkReceiver 接收单个分片：校验、持久化、登记
type ChunkReceiver struct {
	sessions SessionRepo
	chunks   ChunkStore
	logger   *zap.Logger
}

// NewChunkReceiver 创建分片接收器
func NewChunkReceiver(sessions SessionRepo, chunks ChunkStore, log *zap.Logger) *ChunkReceiver {
	return &ChunkReceiver{
		sessions: sessions,
		chunks:   chunks,
		logger:   log,
	}
}

// Accept 接收一个分片。
// 校验顺序：会话存在且未完成 → 序号在声明范围内 → 字节非空。
// 先写字节再登记收到，保证会话登记的分片一定已落盘。
func (r *ChunkReceiver) Accept(ctx context.Context, contentHash string, index int, data []byte) (*Progress, error) {
	s, err := r.sessions.Get(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	if s.IsCompleted {
		return nil, ErrSessionCompleted
	}
	if index < 0 || index >= s.TotalChunks {
		return nil, fmt.Errorf("%w: index %d, declared total %d", ErrInvalidChunkIndex, index, s.TotalChunks)
	}
	if len(data) == 0 {
		return nil, ErrEmptyChunk
	}

	n, err := r.chunks.Put(ctx, contentHash, index, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to store chunk: %w", err)
	}

	received, err := r.sessions.MarkChunkReceived(ctx, contentHash, index)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("chunk accepted",
		zap.String("content_hash", contentHash),
		zap.Int("chunk_index", index),
		zap.Int64("size", n),
		zap.Int("received", received),
		zap.Int("total", s.TotalChunks))

	return &Progress{
		Received:    received,
		TotalChunks: s.TotalChunks,
	}, nil
}

package biz

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// StagedArtifact 暂存中的产物文件。Publish 以原子改名发布到最终路径，
// 部分写入的文件绝不会以最终名字可见。
type StagedArtifact interface {
	io.Writer

	// Publish 原子发布，返回最终路径
	Publish() (string, error)

	// Discard 删除暂存文件
	Discard() error
}

// ArtifactStore 产物永久存储接口
type ArtifactStore interface {
	// Stage 为指定内容哈希创建暂存产物
	Stage(contentHash string) (StagedArtifact, error)
}

// Assembler 按序号拼接全部分片、校验整文件哈希并原子发布
type Assembler struct {
	sessions  SessionRepo
	chunks    ChunkStore
	artifacts ArtifactStore
	logger    *zap.Logger
}

// NewAssembler 创建合并器
func NewAssembler(sessions SessionRepo, chunks ChunkStore, artifacts ArtifactStore, log *zap.Logger) *Assembler {
	return &Assembler{
		sessions:  sessions,
		chunks:    chunks,
		artifacts: artifacts,
		logger:    log,
	}
}

// Assemble 拼接并发布产物，返回最终路径。
// 前置条件：会话的已收分片数等于声明总数，否则返回 ErrIncomplete。
// 流式拼接过程中同步计算 SHA-256，避免二次读取；
// 摘要与声明哈希不一致时丢弃暂存文件并返回 ErrIntegrityMismatch。
func (a *Assembler) Assemble(ctx context.Context, contentHash string) (string, error) {
	s, err := a.sessions.Get(ctx, contentHash)
	if err != nil {
		return "", err
	}
	if !s.HasAllChunks() {
		return "", fmt.Errorf("%w: %d of %d chunks received", ErrIncomplete, s.ReceivedCount(), s.TotalChunks)
	}

	staged, err := a.artifacts.Stage(contentHash)
	if err != nil {
		return "", fmt.Errorf("failed to stage artifact: %w", err)
	}

	hasher := NewHasher()
	out := io.MultiWriter(staged, hasher)

	for i := 0; i < s.TotalChunks; i++ {
		if err := a.copyChunk(ctx, contentHash, i, out); err != nil {
			_ = staged.Discard()
			return "", err
		}
	}

	digest := DigestString(hasher)
	if digest != contentHash {
		_ = staged.Discard()
		a.logger.Error("assembled file hash mismatch",
			zap.String("declared", contentHash),
			zap.String("computed", digest))
		return "", fmt.Errorf("%w: declared %s, computed %s", ErrIntegrityMismatch, contentHash, digest)
	}

	finalPath, err := staged.Publish()
	if err != nil {
		_ = staged.Discard()
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}

	// 临时分片清理尽力而为，失败只记日志
	if err := a.chunks.RemoveAll(ctx, contentHash); err != nil {
		a.logger.Warn("failed to remove temporary chunks",
			zap.String("content_hash", contentHash),
			zap.Error(err))
	}

	a.logger.Info("artifact assembled",
		zap.String("content_hash", contentHash),
		zap.Int("chunks", s.TotalChunks),
		zap.String("path", finalPath))

	return finalPath, nil
}

func (a *Assembler) copyChunk(ctx context.Context, contentHash string, index int, w io.Writer) error {
	rc, err := a.chunks.Open(ctx, contentHash, index)
	if err != nil {
		if errors.Is(err, ErrChunkMissing) {
			// 收到集合声称分片存在但字节不在，属于存储层故障
			return fmt.Errorf("%w: chunk %d missing despite receipt", ErrCorruptSession, index)
		}
		return fmt.Errorf("failed to open chunk %d: %w", index, err)
	}
	defer rc.Close()

	if _, err := io.Copy(w, rc); err != nil {
		return fmt.Errorf("failed to copy chunk %d: %w", index, err)
	}
	return nil
}

package biz

import (
	"context"
	"time"
)

// Session 上传会话模型，以文件内容哈希为主键
type Session struct {
	ContentHash string
	OwnerID     uint64
	FileName    string
	TotalChunks int    // 客户端声明的分片总数，创建后不可变
	Received    []int  // 已收到的分片序号（升序）
	IsCompleted bool   // 合并成功后置位，永不回退
	VideoID     string // 完成时关联的视频 ID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ReceivedCount 已收到的分片数
func (s *Session) ReceivedCount() int {
	return len(s.Received)
}

// HasAllChunks 是否所有声明的分片都已收到
func (s *Session) HasAllChunks() bool {
	return len(s.Received) == s.TotalChunks
}

// MissingChunks 尚未收到的分片序号（升序）
func (s *Session) MissingChunks() []int {
	got := make(map[int]struct{}, len(s.Received))
	for _, i := range s.Received {
		got[i] = struct{}{}
	}

	missing := make([]int, 0, s.TotalChunks-len(s.Received))
	for i := 0; i < s.TotalChunks; i++ {
		if _, ok := got[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// SessionRepo 上传会话仓储接口。
// 所有变更必须在返回前落盘，进程重启后会话可恢复。
type SessionRepo interface {
	// Create 创建会话。同一哈希已有会话时：属于其他用户返回
	// ErrSessionOwnedByOther；属于同一用户则返回既有会话（断点续传），
	// 但声明的分片总数不一致时返回 ErrParamConflict。
	Create(ctx context.Context, s *Session) (*Session, error)

	// Get 查询会话，不存在返回 ErrSessionNotFound
	Get(ctx context.Context, contentHash string) (*Session, error)

	// MarkChunkReceived 记录分片已收到并返回最新已收数量。
	// 重复记录同一序号是幂等空操作；序号越界返回 ErrInvalidChunkIndex。
	MarkChunkReceived(ctx context.Context, contentHash string, index int) (received int, err error)

	// MarkCompleted 置完成位并关联视频 ID。
	// 已完成的会话返回 ErrAlreadyCompleted（可检测的空操作）。
	MarkCompleted(ctx context.Context, contentHash string, videoID string) error

	// DeleteStale 删除在 cutoff 之前最后活动且未完成的会话，
	// 返回被删除会话的哈希（供清理临时分片）。
	DeleteStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

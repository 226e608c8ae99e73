package biz

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// VideoDraft 合并成功后创建视频记录所需的元数据
type VideoDraft struct {
	OwnerID     uint64
	Title       string
	Description string
	CategoryID  uint64
	FileName    string
	ContentHash string
	FilePath    string
}

// VideoRecorder 视频记录创建接口（由视频模块实现）
type VideoRecorder interface {
	// CreateTranscoding 以「转码中」状态创建视频记录，返回视频 ID
	CreateTranscoding(ctx context.Context, draft *VideoDraft) (string, error)
}

// TranscodeEnqueuer 转码任务入队接口（发后不理）
type TranscodeEnqueuer interface {
	Enqueue(ctx context.Context, videoID, filePath string) error
}

// DistLocker 跨实例互斥锁（可选，多实例部署时由 Redis 实现）
type DistLocker interface {
	WithLock(ctx context.Context, key string, fn func() error) error
}

// FinishResult finishUpload 的结果
type FinishResult struct {
	VideoID string
	Status  string

	assembled bool
	filePath  string
}

// Coordinator 编排上传生命周期，保证每个会话至多合并一次
type Coordinator struct {
	sessions   SessionRepo
	receiver   *ChunkReceiver
	assembler  *Assembler
	videos     VideoRecorder
	transcoder TranscodeEnqueuer
	distLock   DistLocker // 可为 nil（单实例）
	logger     *zap.Logger

	// 按内容哈希分键的进程内锁表
	finishLocks sync.Map
}

// NewCoordinator 创建上传协调器。distLock 传 nil 表示单实例部署。
func NewCoordinator(
	sessions SessionRepo,
	receiver *ChunkReceiver,
	assembler *Assembler,
	videos VideoRecorder,
	transcoder TranscodeEnqueuer,
	distLock DistLocker,
	log *zap.Logger,
) *Coordinator {
	return &Coordinator{
		sessions:   sessions,
		receiver:   receiver,
		assembler:  assembler,
		videos:     videos,
		transcoder: transcoder,
		distLock:   distLock,
		logger:     log,
	}
}

// InitUpload 创建或恢复上传会话。
// 同一用户对同一哈希重复调用返回既有会话及其已收分片序号，
// 客户端据此跳过已传的分片（断点续传契约）。
func (c *Coordinator) InitUpload(ctx context.Context, ownerID uint64, contentHash, fileName string, totalChunks int) (*Session, error) {
	if !ValidDigest(contentHash) {
		return nil, fmt.Errorf("%w: malformed content hash", ErrParamConflict)
	}
	if totalChunks <= 0 {
		return nil, fmt.Errorf("%w: declared total chunks must be positive", ErrParamConflict)
	}

	s, err := c.sessions.Create(ctx, &Session{
		ContentHash: contentHash,
		OwnerID:     ownerID,
		FileName:    fileName,
		TotalChunks: totalChunks,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("upload session ready",
		zap.String("content_hash", contentHash),
		zap.Uint64("owner_id", ownerID),
		zap.Int("total_chunks", totalChunks),
		zap.Int("already_received", s.ReceivedCount()))

	return s, nil
}

// UploadChunk 接收一个分片
func (c *Coordinator) UploadChunk(ctx context.Context, contentHash string, index int, data []byte) (*Progress, error) {
	return c.receiver.Accept(ctx, contentHash, index, data)
}

// Progress 查询上传进度
func (c *Coordinator) Progress(ctx context.Context, contentHash string) (*Session, error) {
	return c.sessions.Get(ctx, contentHash)
}

// FinishUpload 完成上传：合并分片、创建视频记录、触发转码。
// 对同一 contentHash 并发或重复调用是安全的：合并恰好执行一次，
// 后续调用幂等地返回同一个视频 ID。
func (c *Coordinator) FinishUpload(ctx context.Context, contentHash string, draft *VideoDraft) (*FinishResult, error) {
	var result *FinishResult

	critical := func() error {
		r, err := c.finishLocked(ctx, contentHash, draft)
		if err != nil {
			return err
		}
		result = r
		return nil
	}

	// 进程内锁表串行化同一哈希的 finish；不同哈希互不阻塞
	mu := c.lockFor(contentHash)
	mu.Lock()
	defer mu.Unlock()

	var err error
	if c.distLock != nil {
		err = c.distLock.WithLock(ctx, "upload:finish:"+contentHash, critical)
	} else {
		err = critical()
	}
	if err != nil {
		return nil, err
	}

	// 会话已完成，锁表条目可以回收：后续 finish 无论拿到哪把锁
	// 都会走幂等返回路径，不再依赖互斥保证唯一合并
	c.finishLocks.Delete(contentHash)

	// 转码移交在锁外触发，不影响上传本身的正确性
	if result.assembled {
		c.handoff(ctx, result.VideoID, result.filePath)
	}

	return result, nil
}

// VideoStatusTranscoding 视频初始状态
const VideoStatusTranscoding = "transcoding"

func (c *Coordinator) finishLocked(ctx context.Context, contentHash string, draft *VideoDraft) (*FinishResult, error) {
	s, err := c.sessions.Get(ctx, contentHash)
	if err != nil {
		return nil, err
	}

	// 已完成：幂等返回既有视频，不重复合并
	if s.IsCompleted {
		return &FinishResult{VideoID: s.VideoID, Status: VideoStatusTranscoding}, nil
	}

	if !s.HasAllChunks() {
		return nil, fmt.Errorf("%w: %d of %d chunks received", ErrIncomplete, s.ReceivedCount(), s.TotalChunks)
	}

	finalPath, err := c.assembler.Assemble(ctx, contentHash)
	if err != nil {
		return nil, err
	}

	d := *draft
	d.OwnerID = s.OwnerID
	d.FileName = s.FileName
	d.ContentHash = contentHash
	d.FilePath = finalPath

	videoID, err := c.videos.CreateTranscoding(ctx, &d)
	if err != nil {
		return nil, fmt.Errorf("failed to create video record: %w", err)
	}

	if err := c.sessions.MarkCompleted(ctx, contentHash, videoID); err != nil {
		return nil, err
	}

	c.logger.Info("upload finished",
		zap.String("content_hash", contentHash),
		zap.String("video_id", videoID),
		zap.String("path", finalPath))

	return &FinishResult{
		VideoID:   videoID,
		Status:    VideoStatusTranscoding,
		assembled: true,
		filePath:  finalPath,
	}, nil
}

func (c *Coordinator) handoff(ctx context.Context, videoID, filePath string) {
	if err := c.transcoder.Enqueue(ctx, videoID, filePath); err != nil {
		c.logger.Error("failed to enqueue transcode task",
			zap.String("video_id", videoID),
			zap.Error(err))
	}
}

func (c *Coordinator) lockFor(contentHash string) *sync.Mutex {
	mu, _ := c.finishLocks.LoadOrStore(contentHash, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

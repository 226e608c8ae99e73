package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	uploadbiz "github.com/Laprimamiku/ikvcs/internal/upload/biz"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 视频状态
const (
	StatusTranscoding = "transcoding"
	StatusPublished   = "published"
	StatusFailed      = "failed"
)

// 视频相关错误
var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrNotOwner         = errors.New("caller is not the video owner")
	ErrCoverTooLarge    = errors.New("cover image exceeds size limit")
	ErrInvalidCoverType = errors.New("unsupported cover image type")
)

// MaxCoverSize 封面图大小上限
const MaxCoverSize = 5 << 20 // 5 MiB

// Video 视频模型
type Video struct {
	ID           string
	OwnerID      uint64
	Title        string
	Description  string
	CategoryID   uint64
	FileName     string
	ContentHash  string
	FilePath     string // 合并产物路径（转码输入）
	PlaybackPath string // 转码产物路径
	CoverBucket  string
	CoverKey     string
	Status       string // transcoding, published, failed
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  *time.Time
}

// VideoRepo 视频仓储接口
type VideoRepo interface {
	Create(ctx context.Context, v *Video) error
	GetByID(ctx context.Context, id string) (*Video, error)
	ListPublished(ctx context.Context, page, pageSize int) ([]*Video, int64, error)
	MarkPublished(ctx context.Context, id, playbackPath string) error
	MarkFailed(ctx context.Context, id, errorMessage string) error
	SetCover(ctx context.Context, id, bucket, key string) error
}

// CoverStore 封面对象存储接口（MinIO）
type CoverStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (bucket string, err error)
	Remove(ctx context.Context, key string) error
}

// VideoUseCase 视频用例
type VideoUseCase struct {
	repo   VideoRepo
	covers CoverStore
	logger *zap.Logger
}

// NewVideoUseCase 创建视频用例
func NewVideoUseCase(repo VideoRepo, covers CoverStore, log *zap.Logger) *VideoUseCase {
	return &VideoUseCase{
		repo:   repo,
		covers: covers,
		logger: log,
	}
}

// CreateTranscoding 以「转码中」状态创建视频记录（实现上传模块的 VideoRecorder）
func (uc *VideoUseCase) CreateTranscoding(ctx context.Context, draft *uploadbiz.VideoDraft) (string, error) {
	v := &Video{
		ID:          uuid.New().String(),
		OwnerID:     draft.OwnerID,
		Title:       draft.Title,
		Description: draft.Description,
		CategoryID:  draft.CategoryID,
		FileName:    draft.FileName,
		ContentHash: draft.ContentHash,
		FilePath:    draft.FilePath,
		Status:      StatusTranscoding,
	}

	if err := uc.repo.Create(ctx, v); err != nil {
		return "", fmt.Errorf("failed to create video record: %w", err)
	}

	uc.logger.Info("video record created",
		zap.String("video_id", v.ID),
		zap.Uint64("owner_id", v.OwnerID),
		zap.String("content_hash", v.ContentHash))

	return v.ID, nil
}

// Get 获取视频。未发布的视频仅所有者可见。
func (uc *VideoUseCase) Get(ctx context.Context, id string, callerID uint64) (*Video, error) {
	v, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusPublished && v.OwnerID != callerID {
		return nil, ErrVideoNotFound
	}
	return v, nil
}

// ListPublished 分页列出已发布视频
func (uc *VideoUseCase) ListPublished(ctx context.Context, page, pageSize int) ([]*Video, int64, error) {
	return uc.repo.ListPublished(ctx, page, pageSize)
}

// MarkPublished 转码成功，视频上线（由转码 worker 调用）
func (uc *VideoUseCase) MarkPublished(ctx context.Context, id, playbackPath string) error {
	if err := uc.repo.MarkPublished(ctx, id, playbackPath); err != nil {
		return err
	}
	uc.logger.Info("video published", zap.String("video_id", id))
	return nil
}

// MarkFailed 转码失败（由转码 worker 调用）
func (uc *VideoUseCase) MarkFailed(ctx context.Context, id, errorMessage string) error {
	if err := uc.repo.MarkFailed(ctx, id, errorMessage); err != nil {
		return err
	}
	uc.logger.Warn("video transcode failed",
		zap.String("video_id", id),
		zap.String("error", errorMessage))
	return nil
}

// UploadCover 上传封面图到对象存储并记录对象键
func (uc *VideoUseCase) UploadCover(ctx context.Context, id string, callerID uint64, data []byte, contentType string) error {
	v, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if v.OwnerID != callerID {
		return ErrNotOwner
	}
	if len(data) == 0 || len(data) > MaxCoverSize {
		return ErrCoverTooLarge
	}
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		return ErrInvalidCoverType
	}

	key := fmt.Sprintf("covers/%s/%s", id, uuid.New().String())
	bucket, err := uc.covers.Put(ctx, key, data, contentType)
	if err != nil {
		return fmt.Errorf("failed to store cover: %w", err)
	}

	if err := uc.repo.SetCover(ctx, id, bucket, key); err != nil {
		// 记录失败时回收已上传的对象
		_ = uc.covers.Remove(ctx, key)
		return err
	}

	return nil
}

package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Laprimamiku/ikvcs/internal/pkg/database"
	"github.com/Laprimamiku/ikvcs/internal/video/biz"
	"gorm.io/gorm"
)

// VideoPO 视频数据库模型
type VideoPO struct {
	ID           string     `gorm:"type:uuid;primarykey"`
	OwnerID      uint64     `gorm:"column:owner_id;not null;index:idx_video_owner"`
	Title        string     `gorm:"column:title;size:120;not null"`
	Description  string     `gorm:"column:description;type:text"`
	CategoryID   uint64     `gorm:"column:category_id;not null;default:0;index:idx_video_category"`
	FileName     string     `gorm:"column:filename;size:255;not null"`
	ContentHash  string     `gorm:"column:content_hash;size:64;not null;index:idx_video_hash"`
	FilePath     string     `gorm:"column:file_path;size:500;not null"`
	PlaybackPath string     `gorm:"column:playback_path;size:500"`
	CoverBucket  string     `gorm:"column:cover_bucket;size:100"`
	CoverKey     string     `gorm:"column:cover_key;size:500"`
	Status       string     `gorm:"column:status;size:20;not null;default:'transcoding';index:idx_video_status"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (VideoPO) TableName() string {
	return "videos"
}

// VideoRepo 视频仓储实现
type VideoRepo struct {
	db *database.DB
}

// NewVideoRepo 创建视频仓储
func NewVideoRepo(db *database.DB) *VideoRepo {
	return &VideoRepo{db: db}
}

// Create 创建视频
func (r *VideoRepo) Create(ctx context.Context, v *biz.Video) error {
	po := toPO(v)
	if err := r.db.GetDB().WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取视频
func (r *VideoRepo) GetByID(ctx context.Context, id string) (*biz.Video, error) {
	var po VideoPO
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return toDomain(&po), nil
}

// ListPublished 分页列出已发布视频（按发布时间倒序）
func (r *VideoRepo) ListPublished(ctx context.Context, page, pageSize int) ([]*biz.Video, int64, error) {
	var total int64
	err := r.db.GetDB().WithContext(ctx).
		Model(&VideoPO{}).
		Where("status = ?", biz.StatusPublished).
		Count(&total).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count videos: %w", err)
	}

	var pos []VideoPO
	err = r.db.GetDB().WithContext(ctx).
		Where("status = ?", biz.StatusPublished).
		Order("published_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&pos).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list videos: %w", err)
	}

	videos := make([]*biz.Video, len(pos))
	for i := range pos {
		videos[i] = toDomain(&pos[i])
	}
	return videos, total, nil
}

// MarkPublished 转码成功，置为已发布
func (r *VideoRepo) MarkPublished(ctx context.Context, id, playbackPath string) error {
	now := time.Now().UTC()
	res := r.db.GetDB().WithContext(ctx).
		Model(&VideoPO{}).
		Where("id = ? AND status = ?", id, biz.StatusTranscoding).
		Updates(map[string]interface{}{
			"status":        biz.StatusPublished,
			"playback_path": playbackPath,
			"published_at":  now,
			"updated_at":    now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark video published: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrVideoNotFound
	}
	return nil
}

// MarkFailed 转码失败
func (r *VideoRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	res := r.db.GetDB().WithContext(ctx).
		Model(&VideoPO{}).
		Where("id = ? AND status = ?", id, biz.StatusTranscoding).
		Updates(map[string]interface{}{
			"status":        biz.StatusFailed,
			"error_message": errorMessage,
			"updated_at":    time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark video failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrVideoNotFound
	}
	return nil
}

// SetCover 记录封面对象位置
func (r *VideoRepo) SetCover(ctx context.Context, id, bucket, key string) error {
	res := r.db.GetDB().WithContext(ctx).
		Model(&VideoPO{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cover_bucket": bucket,
			"cover_key":    key,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set video cover: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrVideoNotFound
	}
	return nil
}

func toPO(v *biz.Video) *VideoPO {
	return &VideoPO{
		ID:           v.ID,
		OwnerID:      v.OwnerID,
		Title:        v.Title,
		Description:  v.Description,
		CategoryID:   v.CategoryID,
		FileName:     v.FileName,
		ContentHash:  v.ContentHash,
		FilePath:     v.FilePath,
		PlaybackPath: v.PlaybackPath,
		CoverBucket:  v.CoverBucket,
		CoverKey:     v.CoverKey,
		Status:       v.Status,
		ErrorMessage: v.ErrorMessage,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
		PublishedAt:  v.PublishedAt,
	}
}

func toDomain(po *VideoPO) *biz.Video {
	return &biz.Video{
		ID:           po.ID,
		OwnerID:      po.OwnerID,
		Title:        po.Title,
		Description:  po.Description,
		CategoryID:   po.CategoryID,
		FileName:     po.FileName,
		ContentHash:  po.ContentHash,
		FilePath:     po.FilePath,
		PlaybackPath: po.PlaybackPath,
		CoverBucket:  po.CoverBucket,
		CoverKey:     po.CoverKey,
		Status:       po.Status,
		ErrorMessage: po.ErrorMessage,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		PublishedAt:  po.PublishedAt,
	}
}

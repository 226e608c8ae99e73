package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Laprimamiku/ikvcs/internal/pkg/database"
	"github.com/Laprimamiku/ikvcs/internal/upload/biz"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionPO 上传会话数据库模型
type SessionPO struct {
	ContentHash string    `gorm:"column:content_hash;size:64;primarykey"`
	OwnerID     uint64    `gorm:"column:owner_id;not null;index:idx_upload_owner"`
	FileName    string    `gorm:"column:filename;size:255;not null"`
	TotalChunks int       `gorm:"column:total_chunks;not null"`
	IsCompleted bool      `gorm:"column:is_completed;not null;default:false;index:idx_upload_completed"`
	VideoID     string    `gorm:"column:video_id;size:36"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;default:CURRENT_TIMESTAMP"`
}

func (SessionPO) TableName() string {
	return "upload_sessions"
}

// ChunkReceiptPO 分片收讫记录，(content_hash, chunk_index) 为联合主键，
// 插入用 ON CONFLICT DO NOTHING 实现线性化且幂等的集合加入
type ChunkReceiptPO struct {
	ContentHash string    `gorm:"column:content_hash;size:64;primarykey"`
	ChunkIndex  int       `gorm:"column:chunk_index;primarykey;autoIncrement:false"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
}

func (ChunkReceiptPO) TableName() string {
	return "upload_chunk_receipts"
}

// SessionRepo 上传会话仓储实现
type SessionRepo struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSessionRepo 创建上传会话仓储
func NewSessionRepo(db *database.DB, log *zap.Logger) *SessionRepo {
	return &SessionRepo{db: db, logger: log}
}

// Create 创建或恢复会话
func (r *SessionRepo) Create(ctx context.Context, s *biz.Session) (*biz.Session, error) {
	po := &SessionPO{
		ContentHash: s.ContentHash,
		OwnerID:     s.OwnerID,
		FileName:    s.FileName,
		TotalChunks: s.TotalChunks,
	}

	// 先尝试插入；主键冲突说明会话已存在，转入恢复路径
	err := r.db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(po).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	existing, err := r.Get(ctx, s.ContentHash)
	if err != nil {
		return nil, err
	}

	if existing.OwnerID != s.OwnerID {
		return nil, biz.ErrSessionOwnedByOther
	}
	// 声明的分片总数在会话生命期内不可变
	if !existing.IsCompleted && existing.TotalChunks != s.TotalChunks {
		return nil, fmt.Errorf("%w: declared %d chunks, session has %d",
			biz.ErrParamConflict, s.TotalChunks, existing.TotalChunks)
	}

	return existing, nil
}

// Get 查询会话及其已收分片集合
func (r *SessionRepo) Get(ctx context.Context, contentHash string) (*biz.Session, error) {
	var po SessionPO
	err := r.db.GetDB().WithContext(ctx).Where("content_hash = ?", contentHash).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get upload session: %w", err)
	}

	var indices []int
	err = r.db.GetDB().WithContext(ctx).
		Model(&ChunkReceiptPO{}).
		Where("content_hash = ?", contentHash).
		Order("chunk_index").
		Pluck("chunk_index", &indices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk receipts: %w", err)
	}

	return toDomain(&po, indices), nil
}

// MarkChunkReceived 登记分片收讫并返回最新已收数量
func (r *SessionRepo) MarkChunkReceived(ctx context.Context, contentHash string, index int) (int, error) {
	var po SessionPO
	err := r.db.GetDB().WithContext(ctx).Where("content_hash = ?", contentHash).First(&po).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, biz.ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to get upload session: %w", err)
	}

	if index < 0 || index >= po.TotalChunks {
		return 0, biz.ErrInvalidChunkIndex
	}

	// 幂等集合加入：重复序号是空操作
	receipt := &ChunkReceiptPO{ContentHash: contentHash, ChunkIndex: index}
	err = r.db.GetDB().WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(receipt).Error
	if err != nil {
		return 0, fmt.Errorf("failed to record chunk receipt: %w", err)
	}

	// 刷新会话活动时间，供过期清理判断；失败只记日志，
	// 分片与收讫记录此时都已落盘
	if err := r.db.GetDB().WithContext(ctx).
		Model(&SessionPO{}).
		Where("content_hash = ?", contentHash).
		Update("updated_at", time.Now().UTC()).Error; err != nil {
		r.logger.Warn("failed to refresh session activity time",
			zap.String("content_hash", contentHash),
			zap.Error(err))
	}

	var count int64
	err = r.db.GetDB().WithContext(ctx).
		Model(&ChunkReceiptPO{}).
		Where("content_hash = ?", contentHash).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count chunk receipts: %w", err)
	}

	return int(count), nil
}

// MarkCompleted 置完成位并关联视频 ID
func (r *SessionRepo) MarkCompleted(ctx context.Context, contentHash string, videoID string) error {
	res := r.db.GetDB().WithContext(ctx).
		Model(&SessionPO{}).
		Where("content_hash = ? AND is_completed = ?", contentHash, false).
		Updates(map[string]interface{}{
			"is_completed": true,
			"video_id":     videoID,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark session completed: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// 区分「不存在」与「已完成」
		var po SessionPO
		err := r.db.GetDB().WithContext(ctx).Where("content_hash = ?", contentHash).First(&po).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return biz.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check session state: %w", err)
		}
		return biz.ErrAlreadyCompleted
	}

	return nil
}

// DeleteStale 删除过期的未完成会话及其收讫记录
func (r *SessionRepo) DeleteStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	var hashes []string
	err := r.db.GetDB().WithContext(ctx).
		Model(&SessionPO{}).
		Where("is_completed = ? AND updated_at < ?", false, cutoff).
		Pluck("content_hash", &hashes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stale sessions: %w", err)
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	err = r.db.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("content_hash IN ?", hashes).Delete(&ChunkReceiptPO{}).Error; err != nil {
			return err
		}
		return tx.Where("content_hash IN ?", hashes).Delete(&SessionPO{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete stale sessions: %w", err)
	}

	return hashes, nil
}

func toDomain(po *SessionPO, indices []int) *biz.Session {
	return &biz.Session{
		ContentHash: po.ContentHash,
		OwnerID:     po.OwnerID,
		FileName:    po.FileName,
		TotalChunks: po.TotalChunks,
		Received:    indices,
		IsCompleted: po.IsCompleted,
		VideoID:     po.VideoID,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}
}

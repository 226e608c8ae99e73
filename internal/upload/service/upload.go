package service

import (
	"errors"
	"io"
	"net/http"

	"github.com/Laprimamiku/ikvcs/internal/auth/middleware"
	apperrors "github.com/Laprimamiku/ikvcs/internal/pkg/errors"
	"github.com/Laprimamiku/ikvcs/internal/pkg/response"
	"github.com/Laprimamiku/ikvcs/internal/upload/biz"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxChunkSize 单个分片大小上限
const MaxChunkSize = 16 << 20 // 16 MiB

// UploadService 分片上传 HTTP 服务
type UploadService struct {
	coordinator *biz.Coordinator
	logger      *zap.Logger
}

// NewUploadService 创建上传服务
func NewUploadService(coordinator *biz.Coordinator, logger *zap.Logger) *UploadService {
	return &UploadService{
		coordinator: coordinator,
		logger:      logger,
	}
}

// RegisterRoutes 注册路由（调用方需已挂认证中间件）
func (s *UploadService) RegisterRoutes(rg *gin.RouterGroup) {
	uploads := rg.Group("/uploads")
	{
		uploads.POST("", s.InitUpload)
		uploads.PUT("/:hash/chunks/:index", s.UploadChunk)
		uploads.POST("/:hash/finish", s.FinishUpload)
		uploads.GET("/:hash", s.GetProgress)
	}
}

// InitUpload 创建或恢复上传会话
func (s *UploadService) InitUpload(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "missing caller identity")
		return
	}

	var req struct {
		ContentHash string `json:"content_hash" binding:"required"`
		FileName    string `json:"file_name" binding:"required"`
		TotalChunks int    `json:"total_chunks" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	session, err := s.coordinator.InitUpload(c.Request.Context(), userID, req.ContentHash, req.FileName, req.TotalChunks)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"content_hash":     session.ContentHash,
		"total_chunks":     session.TotalChunks,
		"already_received": session.Received,
		"is_completed":     session.IsCompleted,
	})
}

// UploadChunk 接收一个分片（请求体为分片原始字节）
func (s *UploadService) UploadChunk(c *gin.Context) {
	if _, ok := middleware.CallerID(c); !ok {
		response.Unauthorized(c, "missing caller identity")
		return
	}

	var uri struct {
		Hash  string `uri:"hash" binding:"required"`
		Index int    `uri:"index" binding:"min=0"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxChunkSize+1))
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrBadRequest, "failed to read chunk body")
		return
	}
	if len(data) > MaxChunkSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "chunk exceeds size limit")
		return
	}

	progress, err := s.coordinator.UploadChunk(c.Request.Context(), uri.Hash, uri.Index, data)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"received_count": progress.Received,
		"total_chunks":   progress.TotalChunks,
	})
}

// FinishUpload 完成上传并触发转码
func (s *UploadService) FinishUpload(c *gin.Context) {
	userID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "missing caller identity")
		return
	}

	hash := c.Param("hash")

	var req struct {
		Title       string `json:"title" binding:"required,max=120"`
		Description string `json:"description" binding:"max=2000"`
		CategoryID  uint64 `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	result, err := s.coordinator.FinishUpload(c.Request.Context(), hash, &biz.VideoDraft{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"video_id": result.VideoID,
		"status":   result.Status,
	})
}

// GetProgress 查询上传进度
func (s *UploadService) GetProgress(c *gin.Context) {
	hash := c.Param("hash")

	session, err := s.coordinator.Progress(c.Request.Context(), hash)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, gin.H{
		"received_count": session.ReceivedCount(),
		"total_chunks":   session.TotalChunks,
		"is_completed":   session.IsCompleted,
		"missing_chunks": session.MissingChunks(),
	})
}

// handleError 将业务错误映射为统一错误码响应
func (s *UploadService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrSessionNotFound):
		response.ErrorWithCode(c, apperrors.ErrUploadSessionNotFound)
	case errors.Is(err, biz.ErrSessionOwnedByOther):
		response.ErrorWithCode(c, apperrors.ErrUploadSessionExists)
	case errors.Is(err, biz.ErrSessionCompleted):
		response.ErrorWithCode(c, apperrors.ErrUploadSessionCompleted)
	case errors.Is(err, biz.ErrInvalidChunkIndex):
		response.ErrorWithCode(c, apperrors.ErrUploadInvalidIndex, err.Error())
	case errors.Is(err, biz.ErrEmptyChunk):
		response.ErrorWithCode(c, apperrors.ErrUploadEmptyChunk)
	case errors.Is(err, biz.ErrIncomplete):
		response.ErrorWithCode(c, apperrors.ErrUploadIncomplete, err.Error())
	case errors.Is(err, biz.ErrIntegrityMismatch):
		s.logger.Error("upload integrity mismatch", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrUploadIntegrity)
	case errors.Is(err, biz.ErrCorruptSession):
		s.logger.Error("corrupt upload session", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrUploadCorruptSession)
	case errors.Is(err, biz.ErrParamConflict):
		response.ErrorWithCode(c, apperrors.ErrUploadParamConflict, err.Error())
	default:
		s.logger.Error("upload operation failed", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrUploadStorageFailed)
	}
}

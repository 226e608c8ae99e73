package service

import (
	"errors"
	"io"

	"github.com/Laprimamiku/ikvcs/internal/auth/middleware"
	apperrors "github.com/Laprimamiku/ikvcs/internal/pkg/errors"
	"github.com/Laprimamiku/ikvcs/internal/pkg/response"
	"github.com/Laprimamiku/ikvcs/internal/video/biz"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VideoService 视频 HTTP 服务
type VideoService struct {
	videos *biz.VideoUseCase
	logger *zap.Logger
}

// NewVideoService 创建视频服务
func NewVideoService(videos *biz.VideoUseCase, logger *zap.Logger) *VideoService {
	return &VideoService{
		videos: videos,
		logger: logger,
	}
}

// RegisterPublicRoutes 注册公开路由（无需认证）
func (s *VideoService) RegisterPublicRoutes(rg *gin.RouterGroup) {
	videos := rg.Group("/videos")
	{
		videos.GET("", s.ListPublished)
		videos.GET("/:id", s.GetVideo)
	}
}

// RegisterAuthRoutes 注册需认证的路由
func (s *VideoService) RegisterAuthRoutes(rg *gin.RouterGroup) {
	videos := rg.Group("/videos")
	{
		videos.POST("/:id/cover", s.UploadCover)
	}
}

// ListPublished 分页列出已发布视频
func (s *VideoService) ListPublished(c *gin.Context) {
	var query struct {
		Page     int `form:"page,default=1" binding:"min=1"`
		PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, err.Error())
		return
	}

	videos, total, err := s.videos.ListPublished(c.Request.Context(), query.Page, query.PageSize)
	if err != nil {
		s.handleError(c, err)
		return
	}

	items := make([]gin.H, 0, len(videos))
	for _, v := range videos {
		items = append(items, s.toItem(v))
	}

	response.Success(c, gin.H{
		"videos":    items,
		"total":     total,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}

// GetVideo 获取视频详情。未发布的视频仅所有者可见。
func (s *VideoService) GetVideo(c *gin.Context) {
	id := c.Param("id")

	// 匿名访问时 callerID 为零值，只能看到已发布视频
	callerID, _ := middleware.CallerID(c)

	v, err := s.videos.Get(c.Request.Context(), id, callerID)
	if err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, s.toItem(v))
}

// UploadCover 上传封面图（multipart 表单字段 cover）
func (s *VideoService) UploadCover(c *gin.Context) {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		response.Unauthorized(c, "missing caller identity")
		return
	}

	id := c.Param("id")

	file, err := c.FormFile("cover")
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrInvalidParams, "missing cover file")
		return
	}
	if file.Size > biz.MaxCoverSize {
		response.ErrorWithCode(c, apperrors.ErrVideoCoverTooLarge)
		return
	}

	src, err := file.Open()
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrBadRequest, "failed to open cover file")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrBadRequest, "failed to read cover file")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if err := s.videos.UploadCover(c.Request.Context(), id, callerID, data, contentType); err != nil {
		s.handleError(c, err)
		return
	}

	response.Success(c, gin.H{"video_id": id})
}

func (s *VideoService) toItem(v *biz.Video) gin.H {
	item := gin.H{
		"id":          v.ID,
		"owner_id":    v.OwnerID,
		"title":       v.Title,
		"description": v.Description,
		"category_id": v.CategoryID,
		"status":      v.Status,
		"created_at":  v.CreatedAt,
	}
	if v.Status == biz.StatusPublished {
		item["playback_path"] = v.PlaybackPath
		item["published_at"] = v.PublishedAt
	}
	if v.CoverKey != "" {
		item["cover_bucket"] = v.CoverBucket
		item["cover_key"] = v.CoverKey
	}
	return item
}

// handleError 将业务错误映射为统一错误码响应
func (s *VideoService) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, biz.ErrVideoNotFound):
		response.ErrorWithCode(c, apperrors.ErrVideoNotFound)
	case errors.Is(err, biz.ErrNotOwner):
		response.ErrorWithCode(c, apperrors.ErrVideoUnauthorized)
	case errors.Is(err, biz.ErrCoverTooLarge):
		response.ErrorWithCode(c, apperrors.ErrVideoCoverTooLarge)
	case errors.Is(err, biz.ErrInvalidCoverType):
		response.ErrorWithCode(c, apperrors.ErrVideoInvalidInput, err.Error())
	default:
		s.logger.Error("video operation failed", zap.Error(err))
		response.ErrorWithCode(c, apperrors.ErrVideoStorageFailed)
	}
}

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Laprimamiku/ikvcs/internal/auth"
	"github.com/Laprimamiku/ikvcs/internal/auth/middleware"
	"github.com/Laprimamiku/ikvcs/internal/conf"
	"github.com/Laprimamiku/ikvcs/internal/pkg/logger"
	pkgredis "github.com/Laprimamiku/ikvcs/internal/pkg/redis"
	uploadservice "github.com/Laprimamiku/ikvcs/internal/upload/service"
	videoservice "github.com/Laprimamiku/ikvcs/internal/video/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HTTPServer struct {
	server *http.Server
	logger *zap.Logger
}

func NewHTTPServer(
	config *conf.Config,
	appLogger *logger.Logger,
	jwtManager *auth.Manager,
	redisClient *pkgredis.Client,
	uploadSvc *uploadservice.UploadService,
	videoSvc *videoservice.VideoService,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	log := appLogger.Logger

	router := gin.New()
	router.Use(logger.GinRecovery(appLogger))
	router.Use(logger.GinLogger(appLogger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")

	// 公开接口：浏览视频。携带令牌时可见自己未发布的视频。
	public := api.Group("")
	public.Use(middleware.OptionalJWTAuth(jwtManager))
	videoSvc.RegisterPublicRoutes(public)

	// 认证接口：上传与封面管理
	authed := api.Group("")
	authed.Use(middleware.JWTAuth(jwtManager, log))
	videoSvc.RegisterAuthRoutes(authed)

	uploads := api.Group("")
	uploads.Use(middleware.JWTAuth(jwtManager, log))
	uploads.Use(middleware.ChunkUploadRateLimiter(redisClient, log))
	uploadSvc.RegisterRoutes(uploads)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

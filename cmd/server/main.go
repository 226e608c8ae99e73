package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laprimamiku/ikvcs/internal/auth"
	"github.com/Laprimamiku/ikvcs/internal/conf"
	"github.com/Laprimamiku/ikvcs/internal/data"
	"github.com/Laprimamiku/ikvcs/internal/pkg/logger"
	"github.com/Laprimamiku/ikvcs/internal/pkg/workerpool"
	"github.com/Laprimamiku/ikvcs/internal/server"
	"github.com/Laprimamiku/ikvcs/internal/transcode"
	uploadbiz "github.com/Laprimamiku/ikvcs/internal/upload/biz"
	uploaddata "github.com/Laprimamiku/ikvcs/internal/upload/data"
	uploadservice "github.com/Laprimamiku/ikvcs/internal/upload/service"
	videobiz "github.com/Laprimamiku/ikvcs/internal/video/biz"
	videodata "github.com/Laprimamiku/ikvcs/internal/video/data"
	videoservice "github.com/Laprimamiku/ikvcs/internal/video/service"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	d, cleanup, err := data.NewData(config, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// 存储层
	sessionRepo := uploaddata.NewSessionRepo(d.DB, log.Logger)
	chunkStore, err := uploaddata.NewFSChunkStore(config.Storage.ChunkDir)
	if err != nil {
		log.Fatal("failed to initialize chunk store", zap.Error(err))
	}
	artifactStore, err := uploaddata.NewFSArtifactStore(config.Storage.PublishDir)
	if err != nil {
		log.Fatal("failed to initialize artifact store", zap.Error(err))
	}
	videoRepo := videodata.NewVideoRepo(d.DB)
	coverStore, err := videodata.NewMinIOCoverStore(context.Background(), d.MinIO)
	if err != nil {
		log.Fatal("failed to initialize cover store", zap.Error(err))
	}

	// 转码任务队列与协程池
	transcodeQueue := transcode.NewQueue(d.Redis)
	transcodePool, err := workerpool.New(&workerpool.Config{Workers: config.Transcode.Workers}, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize transcode pool", zap.Error(err))
	}
	defer transcodePool.Release()

	// 用例层
	videoUseCase := videobiz.NewVideoUseCase(videoRepo, coverStore, log.Logger)
	receiver := uploadbiz.NewChunkReceiver(sessionRepo, chunkStore, log.Logger)
	assembler := uploadbiz.NewAssembler(sessionRepo, chunkStore, artifactStore, log.Logger)
	distLocker := uploaddata.NewRedisLocker(d.Redis, 0)
	coordinator := uploadbiz.NewCoordinator(
		sessionRepo,
		receiver,
		assembler,
		videoUseCase,
		transcodeQueue,
		distLocker,
		log.Logger,
	)

	// 转码 worker
	ffmpeg, err := transcode.NewFFmpegTranscoder(config.Transcode.FFmpegPath, config.Transcode.OutputDir, log.Logger)
	if err != nil {
		log.Fatal("failed to initialize transcoder", zap.Error(err))
	}
	transcodeWorker := transcode.NewWorker(transcodeQueue, transcodePool, ffmpeg, videoUseCase, log.Logger)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if err := transcodeWorker.Start(workerCtx); err != nil {
		log.Fatal("failed to start transcode worker", zap.Error(err))
	}
	defer transcodeWorker.Stop()

	// 过期会话清扫
	sweeper := uploadbiz.NewSweeper(
		sessionRepo,
		chunkStore,
		config.Storage.Retention,
		config.Storage.SweepInterval,
		log.Logger,
	)
	go sweeper.Run(workerCtx)

	// HTTP 服务
	jwtManager := auth.NewManager(config.Auth.JWTSecret, config.Auth.JWTIssuer)
	uploadSvc := uploadservice.NewUploadService(coordinator, log.Logger)
	videoSvc := videoservice.NewVideoService(videoUseCase, log.Logger)

	httpServer := server.NewHTTPServer(config, log, jwtManager, d.Redis, uploadSvc, videoSvc)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

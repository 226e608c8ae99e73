package data

import (
	"fmt"

	"github.com/Laprimamiku/ikvcs/internal/conf"
	"github.com/Laprimamiku/ikvcs/internal/pkg/database"
	pkgminio "github.com/Laprimamiku/ikvcs/internal/pkg/minio"
	pkgredis "github.com/Laprimamiku/ikvcs/internal/pkg/redis"
	uploaddata "github.com/Laprimamiku/ikvcs/internal/upload/data"
	videodata "github.com/Laprimamiku/ikvcs/internal/video/data"
	"go.uber.org/zap"
)

// Data 聚合所有外部数据资源
type Data struct {
	DB     *database.DB
	Redis  *pkgredis.Client
	MinIO  *pkgminio.Client
	Logger *zap.Logger
}

// NewData 初始化数据库、Redis、MinIO 并执行自动迁移
func NewData(config *conf.Config, log *zap.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.GetDB().AutoMigrate(
		&uploaddata.SessionPO{},
		&uploaddata.ChunkReceiptPO{},
		&videodata.VideoPO{},
	); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
	}

	redisClient, err := pkgredis.New(&config.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	minioClient, err := pkgminio.New(&config.MinIO, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to init minio: %w", err)
	}

	d := &Data{
		DB:     db,
		Redis:  redisClient,
		MinIO:  minioClient,
		Logger: log,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis", zap.Error(err))
		}
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	return d, cleanup, nil
}

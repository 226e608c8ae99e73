package conf

import (
	"fmt"
	"time"

	"github.com/Laprimamiku/ikvcs/internal/pkg/database"
	"github.com/Laprimamiku/ikvcs/internal/pkg/logger"
	pkgminio "github.com/Laprimamiku/ikvcs/internal/pkg/minio"
	pkgredis "github.com/Laprimamiku/ikvcs/internal/pkg/redis"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  database.Config  `mapstructure:"database"`
	Redis     pkgredis.Config  `mapstructure:"redis"`
	MinIO     pkgminio.Config  `mapstructure:"minio"`
	Log       logger.Config    `mapstructure:"log"`
	Auth      AuthConfig       `mapstructure:"auth"`
	Storage   StorageConfig    `mapstructure:"storage"`
	Transcode TranscodeConfig  `mapstructure:"transcode"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// StorageConfig 分片与合并产物的本地存储配置
type StorageConfig struct {
	ChunkDir   string `mapstructure:"chunk_dir"`
	PublishDir string `mapstructure:"publish_dir"`

	// 未完成会话的保留与清扫
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type TranscodeConfig struct {
	Workers    int    `mapstructure:"workers"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	OutputDir  string `mapstructure:"output_dir"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.Retention == 0 {
		c.Storage.Retention = 24 * time.Hour
	}
	if c.Storage.SweepInterval == 0 {
		c.Storage.SweepInterval = time.Hour
	}
	if c.Transcode.Workers == 0 {
		c.Transcode.Workers = 2
	}
}

func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Storage.ChunkDir == "" {
		return fmt.Errorf("storage.chunk_dir is required")
	}
	if c.Storage.PublishDir == "" {
		return fmt.Errorf("storage.publish_dir is required")
	}
	if c.Transcode.OutputDir == "" {
		return fmt.Errorf("transcode.output_dir is required")
	}
	return nil
}

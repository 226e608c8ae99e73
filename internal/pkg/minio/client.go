package minio

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Client wraps the MinIO SDK with logging and bucket management
type Client struct {
	mc     *minio.Client
	config *Config
	logger *zap.Logger
}

// New creates a new MinIO client
func New(cfg *Config, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid minio configuration: %w", err)
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	log.Info("minio client created", zap.String("endpoint", cfg.Endpoint))

	return &Client{
		mc:     mc,
		config: cfg,
		logger: log,
	}, nil
}

// Config returns the client configuration
func (c *Client) Config() *Config {
	return c.config
}

// EnsureBucket creates the bucket if it does not exist
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}

	if err := c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		// Concurrent creation by another instance is fine
		exists, checkErr := c.mc.BucketExists(ctx, bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
	}

	c.logger.Info("bucket created", zap.String("bucket", bucket))
	return nil
}

package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client wraps go-redis with logging and domain helpers
type Client struct {
	rdb    *redis.Client
	config *Config
	logger *zap.Logger
}

// New creates a new Redis client and verifies connectivity
func New(cfg *Config, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis configuration: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected successfully", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))

	return &Client{
		rdb:    rdb,
		config: cfg,
		logger: log,
	}, nil
}

// NewFromClient wraps an existing go-redis client (used by tests)
func NewFromClient(rdb *redis.Client, log *zap.Logger) *Client {
	return &Client{
		rdb:    rdb,
		config: DefaultConfig(),
		logger: log,
	}
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}

// HealthCheck pings the server
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Raw exposes the underlying go-redis client
func (c *Client) Raw() *redis.Client {
	return c.rdb
}

// IsNil reports whether err is the redis nil-reply sentinel
func IsNil(err error) bool {
	return err == redis.Nil
}

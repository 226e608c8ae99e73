package minio

import (
	"errors"
	"fmt"
)

// Config defines the MinIO client configuration
type Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`

	// Buckets used by the platform
	CoverBucket string `mapstructure:"cover_bucket"`
}

// DefaultConfig returns a configuration suitable for local development
func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "localhost:9000",
		UseSSL:      false,
		CoverBucket: "video-covers",
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("minio credentials are required")
	}
	if c.CoverBucket == "" {
		return fmt.Errorf("minio cover bucket is required")
	}
	return nil
}

package minio

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// UploadInfo describes a stored object
type UploadInfo struct {
	Bucket string
	Key    string
	ETag   string
	Size   int64
}

// PutObject uploads an object from a reader
func (c *Client) PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, contentType string) (*UploadInfo, error) {
	info, err := c.mc.PutObject(ctx, bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		c.logger.Error("minio put object failed",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, WrapError(err)
	}

	return &UploadInfo{
		Bucket: info.Bucket,
		Key:    info.Key,
		ETag:   info.ETag,
		Size:   info.Size,
	}, nil
}

// FPutObject uploads an object from a local file
func (c *Client) FPutObject(ctx context.Context, bucket, key, filePath, contentType string) (*UploadInfo, error) {
	info, err := c.mc.FPutObject(ctx, bucket, key, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		c.logger.Error("minio fput object failed",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.String("path", filePath),
			zap.Error(err),
		)
		return nil, WrapError(err)
	}

	return &UploadInfo{
		Bucket: info.Bucket,
		Key:    info.Key,
		ETag:   info.ETag,
		Size:   info.Size,
	}, nil
}

// GetObject opens an object for reading; the caller must close it
func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		c.logger.Error("minio get object failed",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, WrapError(err)
	}
	return obj, nil
}

// StatObject returns object metadata
func (c *Client) StatObject(ctx context.Context, bucket, key string) (*UploadInfo, error) {
	info, err := c.mc.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, WrapError(err)
	}
	return &UploadInfo{
		Bucket: bucket,
		Key:    key,
		ETag:   info.ETag,
		Size:   info.Size,
	}, nil
}

// RemoveObject deletes an object
func (c *Client) RemoveObject(ctx context.Context, bucket, key string) error {
	if err := c.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		c.logger.Error("minio remove object failed",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return WrapError(err)
	}
	return nil
}

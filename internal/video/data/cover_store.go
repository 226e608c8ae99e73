package data

import (
	"bytes"
	"context"
	"fmt"

	pkgminio "github.com/Laprimamiku/ikvcs/internal/pkg/minio"
)

// MinIOCoverStore 封面图对象存储实现
type MinIOCoverStore struct {
	client *pkgminio.Client
	bucket string
}

// NewMinIOCoverStore 创建封面存储，确保存储桶存在
func NewMinIOCoverStore(ctx context.Context, client *pkgminio.Client) (*MinIOCoverStore, error) {
	bucket := client.Config().CoverBucket
	if err := client.EnsureBucket(ctx, bucket); err != nil {
		return nil, fmt.Errorf("failed to ensure cover bucket: %w", err)
	}
	return &MinIOCoverStore{
		client: client,
		bucket: bucket,
	}, nil
}

// Put 上传封面对象，返回存储桶名
func (s *MinIOCoverStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return "", err
	}
	return s.bucket, nil
}

// Remove 删除封面对象
func (s *MinIOCoverStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key)
}

package minio

import (
	"errors"

	"github.com/minio/minio-go/v7"
)

var (
	// ErrObjectNotFound 对象不存在
	ErrObjectNotFound = errors.New("minio: object not found")

	// ErrBucketNotFound 存储桶不存在
	ErrBucketNotFound = errors.New("minio: bucket not found")
)

// WrapError 将 SDK 错误映射为包级错误
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return ErrObjectNotFound
	case "NoSuchBucket":
		return ErrBucketNotFound
	}
	return err
}

// IsNotFound reports whether the error indicates a missing object or bucket
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || errors.Is(err, ErrBucketNotFound)
}

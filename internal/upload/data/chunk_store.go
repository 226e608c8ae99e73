package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Laprimamiku/ikvcs/internal/upload/biz"
)

// FSChunkStore 本地文件系统分片临时存储。
// 分片路径：{root}/{hash[:2]}/{hash}/{index}.part，
// 不同上传的键空间天然隔离，互不冲突。
type FSChunkStore struct {
	root string
}

// NewFSChunkStore 创建分片存储，root 不存在时自动创建
func NewFSChunkStore(root string) (*FSChunkStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create chunk root: %w", err)
	}
	return &FSChunkStore{root: root}, nil
}

func (s *FSChunkStore) sessionDir(contentHash string) string {
	return filepath.Join(s.root, contentHash[:2], contentHash)
}

func (s *FSChunkStore) chunkPath(contentHash string, index int) string {
	return filepath.Join(s.sessionDir(contentHash), strconv.Itoa(index)+".part")
}

// Put 写入分片。先写临时文件再改名，保证同键覆盖时
// 读取方看到的要么是旧字节要么是新字节，不会是半截
func (s *FSChunkStore) Put(ctx context.Context, contentHash string, index int, r io.Reader) (int64, error) {
	dir := s.sessionDir(contentHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "chunk-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp chunk file: %w", err)
	}

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write chunk: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to sync chunk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to close chunk: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.chunkPath(contentHash, index)); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to place chunk: %w", err)
	}

	return n, nil
}

// Open 打开分片读取
func (s *FSChunkStore) Open(ctx context.Context, contentHash string, index int) (io.ReadCloser, error) {
	f, err := os.Open(s.chunkPath(contentHash, index))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, biz.ErrChunkMissing
		}
		return nil, fmt.Errorf("failed to open chunk: %w", err)
	}
	return f, nil
}

// RemoveAll 删除会话的全部临时分片
func (s *FSChunkStore) RemoveAll(ctx context.Context, contentHash string) error {
	if err := os.RemoveAll(s.sessionDir(contentHash)); err != nil {
		return fmt.Errorf("failed to remove session chunks: %w", err)
	}
	return nil
}

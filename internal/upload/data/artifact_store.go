package data

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Laprimamiku/ikvcs/internal/upload/biz"
)

// FSArtifactStore 本地文件系统产物存储。
// 暂存文件写在发布目录同一文件系统下的 staging 子目录，
// Publish 时 os.Rename 原子生效，最终路径下绝不出现半截文件。
// 最终路径：{root}/{hash[:2]}/{hash}.mp4
type FSArtifactStore struct {
	root    string
	staging string
}

// NewFSArtifactStore 创建产物存储
func NewFSArtifactStore(root string) (*FSArtifactStore, error) {
	staging := filepath.Join(root, ".staging")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging dir: %w", err)
	}
	return &FSArtifactStore{root: root, staging: staging}, nil
}

// FinalPath 返回指定内容哈希的最终发布路径
func (s *FSArtifactStore) FinalPath(contentHash string) string {
	return filepath.Join(s.root, contentHash[:2], contentHash+".mp4")
}

// Stage 创建暂存产物
func (s *FSArtifactStore) Stage(contentHash string) (biz.StagedArtifact, error) {
	f, err := os.CreateTemp(s.staging, contentHash+"-*.partial")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}
	return &stagedFile{
		file:  f,
		final: s.FinalPath(contentHash),
	}, nil
}

type stagedFile struct {
	file  *os.File
	final string
}

func (sf *stagedFile) Write(p []byte) (int, error) {
	return sf.file.Write(p)
}

// Publish 刷盘后原子改名到最终路径
func (sf *stagedFile) Publish() (string, error) {
	if err := sf.file.Sync(); err != nil {
		sf.file.Close()
		return "", fmt.Errorf("failed to sync artifact: %w", err)
	}
	if err := sf.file.Close(); err != nil {
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(sf.final), 0o755); err != nil {
		return "", fmt.Errorf("failed to create publish dir: %w", err)
	}
	if err := os.Rename(sf.file.Name(), sf.final); err != nil {
		return "", fmt.Errorf("failed to publish artifact: %w", err)
	}
	return sf.final, nil
}

// Discard 删除暂存文件
func (sf *stagedFile) Discard() error {
	sf.file.Close()
	if err := os.Remove(sf.file.Name()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

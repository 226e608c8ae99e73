package data

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Laprimamiku/ikvcs/internal/upload/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSChunkStorePutOpen(t *testing.T) {
	store, err := NewFSChunkStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	hash := biz.HashOf([]byte("some file"))

	n, err := store.Put(ctx, hash, 0, bytes.NewReader([]byte("chunk-zero")))
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	rc, err := store.Open(ctx, hash, 0)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk-zero"), data)
}

func TestFSChunkStoreOverwrite(t *testing.T) {
	store, err := NewFSChunkStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	hash := biz.HashOf([]byte("some file"))

	_, err = store.Put(ctx, hash, 3, bytes.NewReader([]byte("first")))
	require.NoError(t, err)
	_, err = store.Put(ctx, hash, 3, bytes.NewReader([]byte("second")))
	require.NoError(t, err)

	rc, err := store.Open(ctx, hash, 3)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestFSChunkStoreMissing(t *testing.T) {
	store, err := NewFSChunkStore(t.TempDir())
	require.NoError(t, err)

	hash := biz.HashOf([]byte("some file"))

	_, err = store.Open(context.Background(), hash, 0)
	assert.ErrorIs(t, err, biz.ErrChunkMissing)
}

func TestFSChunkStoreRemoveAll(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSChunkStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	hash := biz.HashOf([]byte("some file"))
	other := biz.HashOf([]byte("another file"))

	_, err = store.Put(ctx, hash, 0, bytes.NewReader([]byte("a")))
	require.NoError(t, err)
	_, err = store.Put(ctx, other, 0, bytes.NewReader([]byte("b")))
	require.NoError(t, err)

	require.NoError(t, store.RemoveAll(ctx, hash))

	_, err = store.Open(ctx, hash, 0)
	assert.ErrorIs(t, err, biz.ErrChunkMissing)

	// 其他会话的分片不受影响
	rc, err := store.Open(ctx, other, 0)
	require.NoError(t, err)
	rc.Close()
}

func TestFSArtifactStorePublish(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSArtifactStore(root)
	require.NoError(t, err)

	content := []byte("assembled video bytes")
	hash := biz.HashOf(content)

	staged, err := store.Stage(hash)
	require.NoError(t, err)

	_, err = staged.Write(content)
	require.NoError(t, err)

	// 发布前最终路径不可见
	_, err = os.Stat(store.FinalPath(hash))
	assert.True(t, os.IsNotExist(err))

	finalPath, err := staged.Publish()
	require.NoError(t, err)
	assert.Equal(t, store.FinalPath(hash), finalPath)

	data, err := os.ReadFile(finalPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	// 暂存目录已空
	entries, err := os.ReadDir(filepath.Join(root, ".staging"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFSArtifactStoreDiscard(t *testing.T) {
	root := t.TempDir()
	store, err := NewFSArtifactStore(root)
	require.NoError(t, err)

	hash := biz.HashOf([]byte("will be discarded"))

	staged, err := store.Stage(hash)
	require.NoError(t, err)
	_, err = staged.Write([]byte("partial bytes"))
	require.NoError(t, err)

	require.NoError(t, staged.Discard())

	_, err = os.Stat(store.FinalPath(hash))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Join(root, ".staging"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

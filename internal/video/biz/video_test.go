package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	uploadbiz "github.com/Laprimamiku/ikvcs/internal/upload/biz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memVideoRepo struct {
	mu     sync.Mutex
	videos map[string]*Video
}

func newMemVideoRepo() *memVideoRepo {
	return &memVideoRepo{videos: make(map[string]*Video)}
}

func (r *memVideoRepo) Create(ctx context.Context, v *Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	cp.CreatedAt = time.Now()
	r.videos[v.ID] = &cp
	return nil
}

func (r *memVideoRepo) GetByID(ctx context.Context, id string) (*Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *memVideoRepo) ListPublished(ctx context.Context, page, pageSize int) ([]*Video, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Video
	for _, v := range r.videos {
		if v.Status == StatusPublished {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memVideoRepo) MarkPublished(ctx context.Context, id, playbackPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return ErrVideoNotFound
	}
	now := time.Now()
	v.Status = StatusPublished
	v.PlaybackPath = playbackPath
	v.PublishedAt = &now
	return nil
}

func (r *memVideoRepo) MarkFailed(ctx context.Context, id, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return ErrVideoNotFound
	}
	v.Status = StatusFailed
	v.ErrorMessage = errorMessage
	return nil
}

func (r *memVideoRepo) SetCover(ctx context.Context, id, bucket, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	if !ok {
		return ErrVideoNotFound
	}
	v.CoverBucket = bucket
	v.CoverKey = key
	return nil
}

type memCoverStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	setFail bool
}

func newMemCoverStore() *memCoverStore {
	return &memCoverStore{objects: make(map[string][]byte)}
}

func (s *memCoverStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "covers", nil
}

func (s *memCoverStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func newTestUseCase(t *testing.T) (*VideoUseCase, *memVideoRepo, *memCoverStore) {
	t.Helper()
	repo := newMemVideoRepo()
	covers := newMemCoverStore()
	return NewVideoUseCase(repo, covers, zap.NewNop()), repo, covers
}

func createVideo(t *testing.T, uc *VideoUseCase, ownerID uint64) string {
	t.Helper()
	id, err := uc.CreateTranscoding(context.Background(), &uploadbiz.VideoDraft{
		OwnerID:     ownerID,
		Title:       "title",
		FileName:    "a.mp4",
		ContentHash: uploadbiz.HashOf([]byte("a")),
		FilePath:    "/data/a.mp4",
	})
	require.NoError(t, err)
	return id
}

func TestCreateTranscoding(t *testing.T) {
	uc, repo, _ := newTestUseCase(t)

	id := createVideo(t, uc, 1)
	assert.NotEmpty(t, id)

	v, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusTranscoding, v.Status)
	assert.Equal(t, uint64(1), v.OwnerID)
}

func TestGetVisibility(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	ctx := context.Background()

	id := createVideo(t, uc, 1)

	// 未发布：所有者可见，其他人不可见
	v, err := uc.Get(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusTranscoding, v.Status)

	_, err = uc.Get(ctx, id, 2)
	assert.ErrorIs(t, err, ErrVideoNotFound)

	// 发布后对所有人可见
	require.NoError(t, uc.MarkPublished(ctx, id, "/hls/a.mp4"))
	v, err = uc.Get(ctx, id, 2)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, v.Status)
	assert.Equal(t, "/hls/a.mp4", v.PlaybackPath)
}

func TestMarkFailed(t *testing.T) {
	uc, repo, _ := newTestUseCase(t)
	ctx := context.Background()

	id := createVideo(t, uc, 1)
	require.NoError(t, uc.MarkFailed(ctx, id, "ffmpeg exited with code 1"))

	v, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "ffmpeg exited with code 1", v.ErrorMessage)
}

func TestUploadCover(t *testing.T) {
	uc, repo, covers := newTestUseCase(t)
	ctx := context.Background()

	id := createVideo(t, uc, 1)

	err := uc.UploadCover(ctx, id, 1, []byte("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)

	v, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "covers", v.CoverBucket)
	assert.NotEmpty(t, v.CoverKey)
	assert.Contains(t, covers.objects, v.CoverKey)
}

func TestUploadCoverValidation(t *testing.T) {
	uc, _, _ := newTestUseCase(t)
	ctx := context.Background()

	id := createVideo(t, uc, 1)

	err := uc.UploadCover(ctx, id, 2, []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrNotOwner)

	err = uc.UploadCover(ctx, id, 1, nil, "image/jpeg")
	assert.ErrorIs(t, err, ErrCoverTooLarge)

	err = uc.UploadCover(ctx, id, 1, make([]byte, MaxCoverSize+1), "image/jpeg")
	assert.ErrorIs(t, err, ErrCoverTooLarge)

	err = uc.UploadCover(ctx, id, 1, []byte("x"), "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidCoverType)

	err = uc.UploadCover(ctx, uploadbiz.HashOf([]byte("nope")), 1, []byte("x"), "image/jpeg")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

package biz

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// 内存版仓储与存储实现，行为对齐真实实现的并发与持久化语义

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
	receipts map[string]map[int]struct{}
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		sessions: make(map[string]*Session),
		receipts: make(map[string]map[int]struct{}),
	}
}

func (r *memSessionRepo) Create(ctx context.Context, s *Session) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[s.ContentHash]; ok {
		if existing.OwnerID != s.OwnerID {
			return nil, ErrSessionOwnedByOther
		}
		if !existing.IsCompleted && existing.TotalChunks != s.TotalChunks {
			return nil, ErrParamConflict
		}
		return r.snapshot(existing), nil
	}

	now := time.Now()
	stored := &Session{
		ContentHash: s.ContentHash,
		OwnerID:     s.OwnerID,
		FileName:    s.FileName,
		TotalChunks: s.TotalChunks,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.sessions[s.ContentHash] = stored
	r.receipts[s.ContentHash] = make(map[int]struct{})
	return r.snapshot(stored), nil
}

func (r *memSessionRepo) Get(ctx context.Context, contentHash string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[contentHash]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return r.snapshot(s), nil
}

func (r *memSessionRepo) MarkChunkReceived(ctx context.Context, contentHash string, index int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[contentHash]
	if !ok {
		return 0, ErrSessionNotFound
	}
	if index < 0 || index >= s.TotalChunks {
		return 0, ErrInvalidChunkIndex
	}

	r.receipts[contentHash][index] = struct{}{}
	s.UpdatedAt = time.Now()
	return len(r.receipts[contentHash]), nil
}

func (r *memSessionRepo) MarkCompleted(ctx context.Context, contentHash string, videoID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[contentHash]
	if !ok {
		return ErrSessionNotFound
	}
	if s.IsCompleted {
		return ErrAlreadyCompleted
	}
	s.IsCompleted = true
	s.VideoID = videoID
	s.UpdatedAt = time.Now()
	return nil
}

func (r *memSessionRepo) DeleteStale(ctx context.Context, cutoff time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var hashes []string
	for h, s := range r.sessions {
		if !s.IsCompleted && s.UpdatedAt.Before(cutoff) {
			hashes = append(hashes, h)
		}
	}
	for _, h := range hashes {
		delete(r.sessions, h)
		delete(r.receipts, h)
	}
	return hashes, nil
}

func (r *memSessionRepo) snapshot(s *Session) *Session {
	cp := *s
	received := make([]int, 0, len(r.receipts[s.ContentHash]))
	for i := range r.receipts[s.ContentHash] {
		received = append(received, i)
	}
	sort.Ints(received)
	cp.Received = received
	return &cp
}

func (r *memSessionRepo) touch(contentHash string, t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[contentHash]; ok {
		s.UpdatedAt = t
	}
}

type memChunkStore struct {
	mu     sync.Mutex
	chunks map[string]map[int][]byte
}

func newMemChunkStore() *memChunkStore {
	return &memChunkStore{chunks: make(map[string]map[int][]byte)}
}

func (s *memChunkStore) Put(ctx context.Context, contentHash string, index int, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chunks[contentHash] == nil {
		s.chunks[contentHash] = make(map[int][]byte)
	}
	s.chunks[contentHash][index] = data
	return int64(len(data)), nil
}

func (s *memChunkStore) Open(ctx context.Context, contentHash string, index int) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.chunks[contentHash][index]
	if !ok {
		return nil, ErrChunkMissing
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memChunkStore) RemoveAll(ctx context.Context, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, contentHash)
	return nil
}

func (s *memChunkStore) drop(contentHash string, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks[contentHash], index)
}

func (s *memChunkStore) count(contentHash string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks[contentHash])
}

type memArtifactStore struct {
	mu        sync.Mutex
	published map[string][]byte
}

func newMemArtifactStore() *memArtifactStore {
	return &memArtifactStore{published: make(map[string][]byte)}
}

func (s *memArtifactStore) Stage(contentHash string) (StagedArtifact, error) {
	return &memStaged{store: s, hash: contentHash}, nil
}

func (s *memArtifactStore) get(contentHash string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.published[contentHash]
	return data, ok
}

type memStaged struct {
	store *memArtifactStore
	hash  string
	buf   bytes.Buffer
}

func (m *memStaged) Write(p []byte) (int, error) { return m.buf.Write(p) }

func (m *memStaged) Publish() (string, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.published[m.hash] = m.buf.Bytes()
	return "mem://" + m.hash, nil
}

func (m *memStaged) Discard() error { return nil }

type fakeRecorder struct {
	mu     sync.Mutex
	drafts []*VideoDraft
}

func (f *fakeRecorder) CreateTranscoding(ctx context.Context, draft *VideoDraft) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, draft)
	return fmt.Sprintf("video-%d", len(f.drafts)), nil
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drafts)
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []string
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, videoID, filePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, videoID+"|"+filePath)
	return nil
}

func (f *fakeEnqueuer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

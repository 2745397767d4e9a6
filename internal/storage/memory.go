package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRecordingStore is an in-process RecordingStore used when blob
// storage is disabled and in tests.
type MemoryRecordingStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryRecordingStore creates an empty in-memory recording store.
func NewMemoryRecordingStore() *MemoryRecordingStore {
	return &MemoryRecordingStore{objects: make(map[string][]byte)}
}

// Put stores a copy of the data under path.
func (s *MemoryRecordingStore) Put(ctx context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[path] = buf
	return nil
}

// Get returns a copy of the data stored under path.
func (s *MemoryRecordingStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Presign returns a synthetic URL; the memory store has no real transport.
func (s *MemoryRecordingStore) Presign(ctx context.Context, path string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[path]; !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("memory://%s?ttl=%s", path, ttl), nil
}

// Len reports the number of stored objects.
func (s *MemoryRecordingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

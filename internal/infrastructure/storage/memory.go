package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/waste3d/courseplatform-api/internal/domain"
)

// MemoryStore keeps objects in process memory. It backs local runs without an
// S3 endpoint and the tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data []byte
	info domain.ObjectInfo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (s *MemoryStore) Stat(ctx context.Context, key string) (domain.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return domain.ObjectInfo{}, domain.ErrObjectNotFound
	}
	return obj.info, nil
}

func (s *MemoryStore) Open(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrObjectNotFound
	}
	size := int64(len(obj.data))
	if end < 0 || end >= size {
		end = size - 1
	}
	if start < 0 || start > end+1 {
		return nil, domain.ErrInvalidInput
	}
	return io.NopCloser(bytes.NewReader(obj.data[start : end+1])), nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (domain.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.ObjectInfo{}, err
	}
	sum := md5.Sum(data)
	info := domain.ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  contentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC(),
	}
	s.mu.Lock()
	s.objects[key] = memObject{data: data, info: info}
	s.mu.Unlock()
	return info, nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

package udagramstorage

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in process memory. It backs console runs and
// tests; nothing is durable.
type MemoryStore struct {
	bucket string

	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

func NewMemory(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:       bucket,
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ReadError{Bucket: m.bucket, Key: key, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, &ReadError{Bucket: m.bucket, Key: key, Err: ErrNotFound}
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Bucket: m.bucket, Key: key, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = append([]byte(nil), body...)
	m.contentTypes[key] = contentType
	return nil
}

// ContentType returns the content type recorded for key.
func (m *MemoryStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Package storage persists the library as two independent JSON blobs behind a
// small key-value abstraction, so reading the video sequence never requires
// deserializing the collection set.
package storage

import (
	"context"
	"errors"
	"sync"
)

// Keys for the two records the library persists.
const (
	KeyVideos      = "videos"
	KeyCollections = "collections"
)

var (
	// ErrNotFound indicates no blob has been stored under the requested key.
	ErrNotFound = errors.New("blob not found")
)

// BlobStore is the opaque key-value persistence boundary.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// MemoryBlobStore keeps blobs in process memory. It backs tests and is a
// usable ephemeral mode for the service itself.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryBlobStore returns an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{items: make(map[string][]byte)}
}

// Get returns a copy of the stored blob.
func (m *MemoryBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Put stores a copy of the blob under key.
func (m *MemoryBlobStore) Put(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.items[key] = stored
	return nil
}

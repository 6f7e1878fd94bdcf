package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileBlobStore keeps one JSON file per key under a data directory. Writes go
// through a temp file + rename so a crash never leaves a half-written blob.
type FileBlobStore struct {
	dir string
}

// NewFileBlobStore creates the data directory if needed and returns a store.
func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("file blob store: data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileBlobStore{dir: dir}, nil
}

// Get reads the blob stored under key.
func (f *FileBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// Put atomically replaces the blob stored under key.
func (f *FileBlobStore) Put(ctx context.Context, key string, data []byte) error {
	path := f.path(key)

	tmp, err := os.CreateTemp(f.dir, ".llumina-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close blob %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename blob %s: %w", key, err)
	}
	return nil
}

func (f *FileBlobStore) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

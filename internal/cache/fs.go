package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"testretriever/pkg/types"
)

// FSStore persists cache entries as JSON files under
// <dir>/<namespace>/<relPath>.json. Writes go through a temp file and an
// atomic rename so readers never observe a partial entry, and a flock guard
// keeps independent processes from interleaving writes to the same entry.
type FSStore struct {
	dir string
}

// NewFSStore creates a filesystem-backed cache rooted at dir
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) entryPath(namespace, relPath string) string {
	return filepath.Join(s.dir, namespace, relPath+".json")
}

// Get returns the cached value for (namespace, relPath), or ok=false on a
// miss
func (s *FSStore) Get(_ context.Context, namespace, relPath string) (types.UnitTokens, bool, error) {
	if err := validateKey(namespace, relPath); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.entryPath(namespace, relPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}

	var value types.UnitTokens
	if err := json.Unmarshal(data, &value); err != nil {
		// A corrupt entry is treated as a miss; the next Put replaces it.
		return nil, false, nil
	}

	return value, true, nil
}

// Put stores the value for (namespace, relPath), overwriting any previous
// entry
func (s *FSStore) Put(_ context.Context, namespace, relPath string, value types.UnitTokens) error {
	if err := validateKey(namespace, relPath); err != nil {
		return err
	}

	path := s.entryPath(namespace, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache subdirectory: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache entry: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache entry: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit cache entry: %w", err)
	}

	return nil
}

// Close releases resources held by the store
func (s *FSStore) Close() error {
	return nil
}

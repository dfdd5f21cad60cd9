package cache

import (
	"context"
	"errors"
	"strings"

	"testretriever/pkg/types"
)

// NamespaceFileTokens is the cache namespace for per-file token chunk
// mappings. The version suffix is part of key hygiene: bumping it when the
// chunk format changes orphans stale entries instead of returning them.
const NamespaceFileTokens = "tokens_from_file_v1"

// Common errors
var (
	ErrInvalidKey = errors.New("invalid cache key")
)

// Store is a content/path-keyed store mapping a repository-relative file
// identity to previously computed per-unit token data. A miss is reported
// through the ok return, never as an error. Put always overwrites, and an
// entry is either absent or complete; partial entries are never written.
// There is no TTL and no invalidation on source modification - callers own
// namespace hygiene.
type Store interface {
	Get(ctx context.Context, namespace, relPath string) (types.UnitTokens, bool, error)
	Put(ctx context.Context, namespace, relPath string, value types.UnitTokens) error
	Close() error
}

// RelativePath strips the repository root prefix from a file path, yielding
// the cache key component shared by every worker that touches the file.
func RelativePath(repoDir, filePath string) string {
	rel := strings.TrimPrefix(filePath, repoDir)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return filePath
	}
	return rel
}

// validateKey rejects namespace or path components that would escape the
// cache directory
func validateKey(namespace, relPath string) error {
	if namespace == "" || relPath == "" {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(relPath, "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	if strings.Contains(namespace, "/") || namespace == ".." {
		return ErrInvalidKey
	}
	return nil
}

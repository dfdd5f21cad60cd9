package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"

	"testretriever/pkg/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	namespace  TEXT NOT NULL,
	rel_path   TEXT NOT NULL,
	payload    BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, rel_path)
);
`

// SQLiteStore persists cache entries in an embedded database, one row per
// (namespace, rel_path). The driver is selected at build time; see
// driver_purego.go and driver_cgo.go.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the cache database under dir
func NewSQLiteStore(dir string) (*SQLiteStore, error) {
	db, err := sql.Open(DriverName, filepath.Join(dir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	// Single writer at a time keeps upserts race-free across workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the cached value for (namespace, relPath), or ok=false on a
// miss
func (s *SQLiteStore) Get(ctx context.Context, namespace, relPath string) (types.UnitTokens, bool, error) {
	if err := validateKey(namespace, relPath); err != nil {
		return nil, false, err
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM cache_entries WHERE namespace = ? AND rel_path = ?",
		namespace, relPath).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query cache entry: %w", err)
	}

	var value types.UnitTokens
	if err := json.Unmarshal(payload, &value); err != nil {
		return nil, false, nil
	}

	return value, true, nil
}

// Put stores the value for (namespace, relPath), overwriting any previous
// entry
func (s *SQLiteStore) Put(ctx context.Context, namespace, relPath string, value types.UnitTokens) error {
	if err := validateKey(namespace, relPath); err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (namespace, rel_path, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (namespace, rel_path)
		DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		namespace, relPath, payload)
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}

	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

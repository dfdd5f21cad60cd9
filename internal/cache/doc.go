// Package cache provides the key-value store that lets the index builder
// skip recomputation for files it has already tokenized.
//
// Entries are keyed by (namespace, repository-relative path) and hold the
// complete per-unit token chunk mapping for one file. A Get miss is a
// control-flow signal, not an error; Put always overwrites; an entry is
// either absent or complete. Nothing invalidates entries when source files
// change - versioned namespaces and the caller's ability to bypass reads
// are the staleness controls.
//
// Two backends implement Store: FSStore (JSON files, flock-guarded atomic
// writes) and SQLiteStore (embedded database, driver chosen by build tag).
package cache

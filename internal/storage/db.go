// Package storage wraps an ordered key-value store behind a small adapter:
// point lookups, resumable ascending prefix scans, and atomic durable
// batches. All index mutation goes through batches; a batch is either fully
// visible after Commit or not at all.
package storage

import "errors"

// Sentinel errors surfaced by DB implementations.
var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("storage: key not found")
	// ErrAlreadyLocked is returned by Open when another process holds the
	// store directory.
	ErrAlreadyLocked = errors.New("storage: store locked by another process")
	// ErrCorrupt is returned when the store contents fail internal checks.
	ErrCorrupt = errors.New("storage: store corrupt")
	// ErrStopScan stops a Scan early without reporting an error to the caller.
	ErrStopScan = errors.New("storage: stop scan")
)

// DB is the interface for ordered key-value storage.
type DB interface {
	// Get retrieves a value by key. Returns ErrNotFound if absent.
	Get(key []byte) ([]byte, error)
	// Has checks if a key exists.
	Has(key []byte) (bool, error)
	// Scan iterates in ascending key order over all keys with the given
	// prefix. When start is non-nil, iteration resumes at the first key
	// strictly greater than start, so callers can restart a scan from the
	// last key they saw. The callback receives copies of key and value.
	// Return ErrStopScan from fn to stop early without error.
	Scan(prefix, start []byte, fn func(key, value []byte) error) error
	// NewBatch creates an empty write batch.
	NewBatch() Batch
	Close() error
}

// Batch collects puts and deletes to be applied atomically. The batch is
// durable once Commit returns nil; a crash after that never loses it.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

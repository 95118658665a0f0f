// Package core defines the driver-neutral contract for keyed storage slots.
// A slot holds one opaque value (the serialized donor collection) and is
// overwritten whole on every write.
package core

import (
	"context"
	"errors"
	"time"
)

// Driver identifies a concrete slot storage backend implementation.
type Driver string

const (
	// DriverMemory keeps slots in process memory (tests, ephemeral runs).
	DriverMemory Driver = "memory"
	// DriverFilesystem maps slots to files under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores slots as objects in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverSQLite stores slots as rows in an embedded sqlite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores slots as rows in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string // MIME type, optional
}

// Info describes a stored slot value.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a minimal keyed value store. Put replaces the whole value and
// readers never observe a partially written value.
type Store interface {
	// Get returns the value stored at key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, Info, error)
	// Put overwrites the value at key.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (Info, error)
	// Delete removes a value. Returns (false, nil) if not found.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns values whose key has the provided prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver returns the backend driver identifier.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}

// ErrNotFound is returned by Get when no value exists for the key.
var ErrNotFound = errors.New("kv: key not found")

// ContentTypeJSON is the content type used for serialized collections.
const ContentTypeJSON = "application/json"

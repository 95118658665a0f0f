// Package sqlite implements a slot Store on an embedded SQLite file. Each slot
// is one row of the state table, replaced whole on every write.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"donorregistry/internal/kv/core"
)

const defaultPath = "donors.db"

// Store persists slots to a single SQLite table.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// New opens (creating if needed) the SQLite file at path and ensures the state table exists.
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer; one connection keeps writes serialized.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		etag TEXT NOT NULL DEFAULT '',
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Driver returns the slot driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverSQLite }

// Put upserts the slot row inside a transaction.
func (s *Store) Put(ctx context.Context, key string, data []byte, opts core.PutOptions) (info core.Info, retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := sha256.Sum256(data)
	now := time.Now().UTC()
	info = core.Info{Key: key, Size: int64(len(data)), ContentType: opts.ContentType, ETag: hex.EncodeToString(sum[:]), LastModified: now}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Info{}, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload,content_type,etag,updated_at) VALUES(?,?,?,?,?)
		ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload, content_type=excluded.content_type, etag=excluded.etag, updated_at=excluded.updated_at`,
		key, data, info.ContentType, info.ETag, now.UnixMilli()); err != nil {
		return core.Info{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Info{}, err
	}
	return info, nil
}

// Get reads the slot row.
func (s *Store) Get(ctx context.Context, key string) ([]byte, core.Info, error) {
	var (
		data    []byte
		info    = core.Info{Key: key}
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT payload, content_type, etag, updated_at FROM state WHERE bucket = ?`, key).
		Scan(&data, &info.ContentType, &info.ETag, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.Info{}, core.ErrNotFound
	}
	if err != nil {
		return nil, core.Info{}, fmt.Errorf("select %s: %w", key, err)
	}
	info.Size = int64(len(data))
	info.LastModified = time.UnixMilli(updated).UTC()
	return data, info, nil
}

// Delete removes the slot row.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, key)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns slot metadata for keys with prefix, ordered by key.
func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, length(payload), content_type, etag, updated_at FROM state
		WHERE substr(bucket, 1, length(?)) = ? ORDER BY bucket`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var infos []core.Info
	for rows.Next() {
		var (
			info    core.Info
			updated int64
		)
		if err := rows.Scan(&info.Key, &info.Size, &info.ContentType, &info.ETag, &updated); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		info.LastModified = time.UnixMilli(updated).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close closes the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

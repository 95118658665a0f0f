// Package postgres implements a slot Store on a PostgreSQL table, one row per
// slot, replaced whole on every write.
package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"donorregistry/internal/kv/core"
)

// Compile-time contract assertion.
var _ core.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/donorregistry?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

const (
	ensureStateTableSQL = `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		etag TEXT NOT NULL DEFAULT '',
		updated_at BIGINT NOT NULL
	)`
	upsertSQL = `INSERT INTO state(bucket,payload,content_type,etag,updated_at) VALUES($1,$2,$3,$4,$5)
		ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload, content_type=excluded.content_type, etag=excluded.etag, updated_at=excluded.updated_at`
	selectSQL = `SELECT payload, content_type, etag, updated_at FROM state WHERE bucket = $1`
	deleteSQL = `DELETE FROM state WHERE bucket = $1`
	listSQL   = `SELECT bucket, octet_length(payload), content_type, etag, updated_at FROM state WHERE starts_with(bucket, $1) ORDER BY bucket`
)

// Store persists slots to Postgres.
type Store struct {
	db *sql.DB
}

// New opens a Postgres-backed store using the provided DSN (falls back to
// defaultDSN), pings it and ensures the state table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store, err := NewWithDB(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an open handle and ensures the state table exists.
func NewWithDB(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, ensureStateTableSQL); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}
	return &Store{db: db}, nil
}

// Driver returns the slot driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// Put upserts the slot row inside a transaction.
func (s *Store) Put(ctx context.Context, key string, data []byte, opts core.PutOptions) (info core.Info, retErr error) {
	sum := sha256.Sum256(data)
	now := time.Now().UTC()
	info = core.Info{Key: key, Size: int64(len(data)), ContentType: opts.ContentType, ETag: hex.EncodeToString(sum[:]), LastModified: now}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Info{}, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, upsertSQL, key, data, info.ContentType, info.ETag, now.UnixMilli()); err != nil {
		return core.Info{}, fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return core.Info{}, fmt.Errorf("commit: %w", err)
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
	err := s.db.QueryRowContext(ctx, selectSQL, key).Scan(&data, &info.ContentType, &info.ETag, &updated)
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
	res, err := s.db.ExecContext(ctx, deleteSQL, key)
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
	rows, err := s.db.QueryContext(ctx, listSQL, prefix)
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

// Package memory implements an in-memory slot Store for tests and ephemeral runs.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"donorregistry/internal/kv/core"
)

type slotEntry struct {
	info core.Info
	data []byte
}

// Store implements core.Store backed by process memory.
type Store struct {
	mu    sync.RWMutex
	slots map[string]slotEntry
}

// New returns an empty in-memory slot store.
func New() *Store { return &Store{slots: make(map[string]slotEntry)} }

// Driver returns the slot driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put replaces the value at key with a private copy of data.
func (s *Store) Put(_ context.Context, key string, data []byte, opts core.PutOptions) (core.Info, error) {
	buf := make([]byte, len(data))
	copy(buf, data)
	sum := sha256.Sum256(buf)
	info := core.Info{
		Key:          key,
		Size:         int64(len(buf)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		LastModified: time.Now().UTC(),
	}
	s.mu.Lock()
	s.slots[key] = slotEntry{info: info, data: buf}
	s.mu.Unlock()
	return info, nil
}

// Get returns a copy of the value at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, core.Info, error) {
	s.mu.RLock()
	entry, ok := s.slots[key]
	s.mu.RUnlock()
	if !ok {
		return nil, core.Info{}, core.ErrNotFound
	}
	out := make([]byte, len(entry.data))
	copy(out, entry.data)
	return out, entry.info, nil
}

// Delete removes the value returning true if it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.slots[key]
	if ok {
		delete(s.slots, key)
	}
	return ok, nil
}

// List returns all slots matching prefix.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Info, 0, len(s.slots))
	for k, v := range s.slots {
		if strings.HasPrefix(k, prefix) {
			out = append(out, v.info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

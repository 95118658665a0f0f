package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"donorregistry/internal/kv/core"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()
	store, err := New(ctx, path)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	if _, _, err := store.Get(ctx, "donors_v1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Put(ctx, "donors_v1", []byte(`[]`), core.PutOptions{ContentType: core.ContentTypeJSON}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "donors_v1", []byte(`[{"id":"a"}]`), core.PutOptions{ContentType: core.ContentTypeJSON}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file missing: %v", err)
	}
	reloaded, err := New(ctx, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	data, info, err := reloaded.Get(ctx, "donors_v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `[{"id":"a"}]` || info.ContentType != core.ContentTypeJSON || info.Size != int64(len(data)) {
		t.Fatalf("unexpected %s %+v", data, info)
	}
	if reloaded.Path() != path || reloaded.DB() == nil {
		t.Fatalf("unexpected path or db handle")
	}
}

func TestSQLiteStoreDeleteAndList(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	for _, k := range []string{"donors_b", "donors_a", "other"} {
		if _, err := store.Put(ctx, k, []byte("xy"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "donors_")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Key != "donors_a" || list[0].Size != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	if all, _ := store.List(ctx, ""); len(all) != 3 {
		t.Fatalf("expected all slots, got %+v", all)
	}
	if ok, err := store.Delete(ctx, "other"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "other"); err != nil || ok {
		t.Fatalf("delete missing: %v %v", ok, err)
	}
	if store.Driver() != core.DriverSQLite {
		t.Fatalf("unexpected driver")
	}
}

func TestSQLiteStorePutAfterClose(t *testing.T) {
	ctx := context.Background()
	store, err := New(ctx, filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	_ = store.DB().Close()
	if _, err := store.Put(ctx, "k", []byte("x"), core.PutOptions{}); err == nil {
		t.Fatalf("expected put error after close")
	}
}

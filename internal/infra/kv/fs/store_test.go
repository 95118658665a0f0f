package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"donorregistry/internal/kv/core"
)

func TestFilesystemPutGetOverwrite(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if _, _, err := store.Get(ctx, "donors_v1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	info, err := store.Put(ctx, "donors_v1", []byte(`[]`), core.PutOptions{ContentType: core.ContentTypeJSON})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 2 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "donors_v1", []byte(`[{"id":"a"}]`), core.PutOptions{ContentType: core.ContentTypeJSON}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, got, err := store.Get(ctx, "donors_v1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `[{"id":"a"}]` {
		t.Fatalf("unexpected data %s", data)
	}
	if got.ContentType != core.ContentTypeJSON {
		t.Fatalf("expected content type from sidecar, got %+v", got)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".meta" && e.Name() != "donors_v1" {
			t.Fatalf("leftover file %s", e.Name())
		}
	}
}

func TestFilesystemGetWithoutSidecar(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "raw"), []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, info, err := store.Get(context.Background(), "raw")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "not json" || info.Size != int64(len("not json")) {
		t.Fatalf("unexpected %s %+v", data, info)
	}
}

func TestFilesystemDeleteAndList(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	for _, k := range []string{"b", "a", "nested/c"} {
		if _, err := store.Put(ctx, k, []byte("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Key != "a" || list[2].Key != "nested/c" {
		t.Fatalf("unexpected list %+v", list)
	}
	if list, _ := store.List(ctx, "nested/"); len(list) != 1 {
		t.Fatalf("expected prefix match, got %+v", list)
	}
	if ok, err := store.Delete(ctx, "a"); err != nil || !ok {
		t.Fatalf("delete existing: %v %v", ok, err)
	}
	if ok, err := store.Delete(ctx, "a"); err != nil || ok {
		t.Fatalf("delete missing: %v %v", ok, err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver")
	}
}

func TestSanitizeKey(t *testing.T) {
	for _, bad := range []string{"", "  ", "../x", "/abs", "a/../b", "x.meta", "dir/.tmp-1"} {
		if _, err := sanitizeKey(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
	if k, err := sanitizeKey("a/b"); err != nil || k != "a/b" {
		t.Fatalf("unexpected %q %v", k, err)
	}
}

func TestNewDefaultsRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.root != "./donordata" {
		t.Fatalf("unexpected root %s", store.root)
	}
	if info, err := os.Stat("donordata"); err != nil || !info.IsDir() {
		t.Fatalf("expected default root directory: %v", err)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"

	"donorregistry/internal/kv/core"
)

func TestStore_MissingGet(t *testing.T) {
	store := New()
	if _, _, err := store.Get(context.Background(), "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PutOverwritesAndCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	data := []byte("[1]")
	if _, err := store.Put(ctx, "k", data, core.PutOptions{ContentType: core.ContentTypeJSON}); err != nil {
		t.Fatalf("put: %v", err)
	}
	data[1] = '9'
	got, info, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "[1]" {
		t.Fatalf("stored value aliased caller buffer: %s", got)
	}
	if info.ContentType != core.ContentTypeJSON || info.Size != 3 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "k", []byte("[2,3]"), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, "k")
	if string(got) != "[2,3]" {
		t.Fatalf("expected overwritten value, got %s", got)
	}
	got[0] = 'x'
	again, _, _ := store.Get(ctx, "k")
	if string(again) != "[2,3]" {
		t.Fatalf("Get must return a copy")
	}
}

func TestStore_DeleteListDriver(t *testing.T) {
	store := New()
	ctx := context.Background()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false")
	}
	for _, k := range []string{"b", "a", "other"} {
		if _, err := store.Put(ctx, k, []byte("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "")
	if err != nil || len(list) != 3 || list[0].Key != "a" {
		t.Fatalf("list all: %v %+v", err, list)
	}
	if list, err := store.List(ctx, "o"); err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	if ok, err := store.Delete(ctx, "a"); err != nil || !ok {
		t.Fatalf("expected delete true")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

package kv

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cases := []struct {
		cfg  Config
		want Driver
	}{
		{Config{Driver: DriverMemory}, DriverMemory},
		{Config{Driver: DriverFilesystem, FSRoot: filepath.Join(dir, "fs")}, DriverFilesystem},
		{Config{Driver: DriverSQLite, SQLitePath: filepath.Join(dir, "a.db")}, DriverSQLite},
		{Config{SQLitePath: filepath.Join(dir, "b.db")}, DriverSQLite},
	}
	for _, c := range cases {
		store, err := Open(ctx, c.cfg)
		if err != nil {
			t.Fatalf("open %s: %v", c.cfg.Driver, err)
		}
		if store.Driver() != c.want {
			t.Fatalf("expected %s, got %s", c.want, store.Driver())
		}
		if _, err := store.Put(ctx, "donors_v1", []byte(`[]`), PutOptions{}); err != nil {
			t.Fatalf("put via %s: %v", c.want, err)
		}
		_ = store.Close()
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "floppy"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: DriverS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}

package kv

import (
	"context"
	"fmt"

	"donorregistry/internal/infra/kv/fs"
	"donorregistry/internal/infra/kv/memory"
	"donorregistry/internal/infra/kv/postgres"
	"donorregistry/internal/infra/kv/s3"
	"donorregistry/internal/infra/kv/sqlite"
)

// S3Config re-exports the infra S3 configuration type.
type S3Config = s3.Config

// Config selects and parameterizes a slot driver.
type Config struct {
	Driver      Driver
	FSRoot      string
	SQLitePath  string
	PostgresDSN string
	S3          S3Config
}

// Open constructs the configured Store. An empty driver selects sqlite.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	switch driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case DriverS3:
		return s3.New(ctx, cfg.S3)
	case DriverSQLite:
		return sqlite.New(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}

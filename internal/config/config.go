// Package config loads process configuration from the environment and
// optional dotenv files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"donorregistry/internal/kv"
)

// Prefix is prepended to every variable name.
const Prefix = "DONOR_REGISTRY_"

// DefaultFiles are the dotenv files Load reads when present.
var DefaultFiles = []string{".env", ".env.local"}

// Config is the registry process configuration.
type Config struct {
	Env             string        `env:"ENV" envDefault:"development"`
	Addr            string        `env:"ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	OTelEndpoint    string        `env:"OTEL_ENDPOINT"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"sqlite"`
	SlotKey       string `env:"SLOT_KEY" envDefault:"donors_v1"`
	Seed          bool   `env:"SEED" envDefault:"true"`
	FSRoot        string `env:"FS_ROOT" envDefault:"./donordata"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"./donors.db"`
	PostgresDSN   string `env:"POSTGRES_DSN"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint    string `env:"S3_ENDPOINT"`
	S3Prefix      string `env:"S3_PREFIX"`
	S3PathStyle   bool   `env:"S3_PATH_STYLE"`
}

// Load reads the dotenv files that exist (never overriding variables already
// set) and parses the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = DefaultFiles
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from an explicit variable map instead of the process
// environment.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix, Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// ParseEnv loads prefixed variables from the process environment into target.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks driver-specific requirements.
func (c Config) Validate() error {
	switch kv.Driver(c.StorageDriver) {
	case kv.DriverMemory, kv.DriverFilesystem, kv.DriverSQLite:
	case kv.DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("%sPOSTGRES_DSN is required for the postgres driver", Prefix)
		}
	case kv.DriverS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%sS3_BUCKET is required for the s3 driver", Prefix)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%sSHUTDOWN_TIMEOUT must be positive", Prefix)
	}
	return nil
}

// KV returns the slot driver configuration.
func (c Config) KV() kv.Config {
	return kv.Config{
		Driver:      kv.Driver(c.StorageDriver),
		FSRoot:      c.FSRoot,
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
		S3: kv.S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			Endpoint:  c.S3Endpoint,
			Prefix:    c.S3Prefix,
			PathStyle: c.S3PathStyle,
		},
	}
}

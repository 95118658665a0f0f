// Package kv re-exports the slot storage abstractions and selects a driver
// from configuration.
package kv

import (
	"donorregistry/internal/kv/core"
)

type (
	// Driver identifies a slot backend driver.
	Driver = core.Driver
	// PutOptions configures a slot write.
	PutOptions = core.PutOptions
	// Info describes stored slot metadata.
	Info = core.Info
	// Store is the interface for slot storage backends.
	Store = core.Store
)

const (
	DriverMemory     = core.DriverMemory
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverSQLite     = core.DriverSQLite
	DriverPostgres   = core.DriverPostgres
)

// ErrNotFound indicates a missing slot.
var ErrNotFound = core.ErrNotFound

package core

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"

	"donorregistry/pkg/domain"
)

var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// maxIDAttempts bounds regeneration when a fresh id collides.
const maxIDAttempts = 8

// IDGenerator produces opaque donor identifiers.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a function to IDGenerator.
type IDFunc func() string

// NewID implements IDGenerator.
func (f IDFunc) NewID() string { return f() }

// NewID returns a random identifier: a UUIDv4 rendered as 26 lowercase
// base32 characters.
func NewID() string {
	u := uuid.New()
	return strings.ToLower(idEncoding.EncodeToString(u[:]))
}

// UniqueID draws ids from gen until one is absent from existing. After
// maxIDAttempts collisions the last candidate gets a random suffix.
func UniqueID(gen IDGenerator, existing []domain.Donor) string {
	taken := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		taken[d.ID] = struct{}{}
	}
	var candidate string
	for range maxIDAttempts {
		candidate = gen.NewID()
		if _, ok := taken[candidate]; !ok && candidate != "" {
			return candidate
		}
	}
	return candidate + "-" + NewID()
}

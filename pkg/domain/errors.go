package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfirmed is returned when a removal or reset is attempted
	// without an affirmative confirmation.
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrDonorNotFound is returned by lookups for an unknown donor id.
	ErrDonorNotFound = errors.New("donor not found")
)

// ValidationError lists the required fields that were missing.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// StorageParseError reports a persisted collection that could not be decoded.
type StorageParseError struct {
	Key string
	Err error
}

func (e *StorageParseError) Error() string {
	return fmt.Sprintf("parse stored donors at %q: %v", e.Key, e.Err)
}

func (e *StorageParseError) Unwrap() error { return e.Err }

// ClipboardError reports a failed copy-to-clipboard. It never affects data.
type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string {
	return fmt.Sprintf("copy to clipboard: %v", e.Err)
}

func (e *ClipboardError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

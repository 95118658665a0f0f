package domain

import "context"

// RecordStore is the durable persistence abstraction for the donor collection.
// Load returns the whole collection; Save overwrites it. Mutation handlers are
// its only writers.
type RecordStore interface {
	Load(ctx context.Context) ([]Donor, error)
	Save(ctx context.Context, donors []Donor) error
}

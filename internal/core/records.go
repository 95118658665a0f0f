package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kvcore "donorregistry/internal/kv/core"
	"donorregistry/pkg/domain"
)

// DefaultSlotKey is the slot holding the serialized donor collection.
const DefaultSlotKey = "donors_v1"

// SeedRegistration is the demo record written on the first-ever load.
var SeedRegistration = domain.Registration{
	Name:     "Harsha Vardhan",
	Blood:    "O+",
	Organ:    "Kidney",
	Location: "Mumbai",
	Contact:  "amit@example.com",
}

// SlotRecordStore persists the donor collection as one JSON array in a single
// keyed slot. It implements domain.RecordStore.
type SlotRecordStore struct {
	slots  kvcore.Store
	key    string
	seed   bool
	ids    IDGenerator
	clock  Clock
	logger Logger
}

// RecordStoreOption configures a SlotRecordStore.
type RecordStoreOption func(*SlotRecordStore)

// WithSlotKey overrides DefaultSlotKey. Empty keys are ignored.
func WithSlotKey(key string) RecordStoreOption {
	return func(s *SlotRecordStore) {
		if key != "" {
			s.key = key
		}
	}
}

// WithSeed toggles first-run seeding (enabled by default).
func WithSeed(enabled bool) RecordStoreOption {
	return func(s *SlotRecordStore) { s.seed = enabled }
}

// WithStoreLogger sets the operator logger used for parse failures.
func WithStoreLogger(logger Logger) RecordStoreOption {
	return func(s *SlotRecordStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock sets the clock stamping the seed record.
func WithStoreClock(clock Clock) RecordStoreOption {
	return func(s *SlotRecordStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithStoreIDs sets the generator for the seed record id.
func WithStoreIDs(ids IDGenerator) RecordStoreOption {
	return func(s *SlotRecordStore) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// NewSlotRecordStore wraps slots.
func NewSlotRecordStore(slots kvcore.Store, opts ...RecordStoreOption) *SlotRecordStore {
	s := &SlotRecordStore{
		slots:  slots,
		key:    DefaultSlotKey,
		seed:   true,
		ids:    IDFunc(NewID),
		clock:  systemClock{},
		logger: noopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the slot key.
func (s *SlotRecordStore) Key() string { return s.key }

// Load returns the persisted collection. A missing or blank slot is seeded
// (when enabled) and the seed returned. A slot that does not decode to a list
// of valid donors loads as empty; Load itself does not rewrite it, so the
// next successful Save replaces it.
func (s *SlotRecordStore) Load(ctx context.Context) ([]domain.Donor, error) {
	raw, _, err := s.slots.Get(ctx, s.key)
	if errors.Is(err, kvcore.ErrNotFound) {
		return s.firstLoad(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load donors: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return s.firstLoad(ctx)
	}
	donors, err := decodeDonors(raw)
	if err != nil {
		perr := &domain.StorageParseError{Key: s.key, Err: err}
		s.logger.Error("stored donors unreadable, serving empty list", "key", s.key, "driver", string(s.slots.Driver()), "error", perr)
		return []domain.Donor{}, nil
	}
	return donors, nil
}

func (s *SlotRecordStore) firstLoad(ctx context.Context) ([]domain.Donor, error) {
	if !s.seed {
		return []domain.Donor{}, nil
	}
	seed := []domain.Donor{SeedRegistration.Donor(s.ids.NewID(), s.clock.Now())}
	if err := s.Save(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed donors: %w", err)
	}
	s.logger.Info("seeded donor registry", "key", s.key, "driver", string(s.slots.Driver()))
	return seed, nil
}

// Save validates every record and overwrites the slot with the whole
// collection. Nothing is written when any record is invalid.
func (s *SlotRecordStore) Save(ctx context.Context, donors []domain.Donor) error {
	if err := validateCollection(donors); err != nil {
		return err
	}
	if donors == nil {
		donors = []domain.Donor{}
	}
	payload, err := json.Marshal(donors)
	if err != nil {
		return fmt.Errorf("encode donors: %w", err)
	}
	if _, err := s.slots.Put(ctx, s.key, payload, kvcore.PutOptions{ContentType: kvcore.ContentTypeJSON}); err != nil {
		return fmt.Errorf("save donors: %w", err)
	}
	return nil
}

// Reset deletes the slot so the next Load starts over (and seeds when
// enabled). It reports whether a slot existed.
func (s *SlotRecordStore) Reset(ctx context.Context) (bool, error) {
	existed, err := s.slots.Delete(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("reset donors: %w", err)
	}
	s.logger.Info("donor slot reset", "key", s.key, "driver", string(s.slots.Driver()), "existed", existed)
	return existed, nil
}

// Slots describes every slot held by the underlying store, ordered by key.
func (s *SlotRecordStore) Slots(ctx context.Context) ([]kvcore.Info, error) {
	infos, err := s.slots.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return infos, nil
}

func decodeDonors(raw []byte) ([]domain.Donor, error) {
	var donors []domain.Donor
	if err := json.Unmarshal(raw, &donors); err != nil {
		return nil, err
	}
	if donors == nil {
		return []domain.Donor{}, nil
	}
	if err := validateCollection(donors); err != nil {
		return nil, err
	}
	return donors, nil
}

func validateCollection(donors []domain.Donor) error {
	seen := make(map[string]struct{}, len(donors))
	for i, d := range donors {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("donor %d: %w", i, err)
		}
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("donor %d: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	return nil
}

package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	kvcore "donorregistry/internal/kv/core"
	"donorregistry/internal/infra/kv/memory"
	"donorregistry/pkg/domain"
)

func fixedClock() Clock {
	return ClockFunc(func() time.Time { return time.UnixMilli(1_700_000_000_000).UTC() })
}

func sequenceIDs(ids ...string) IDGenerator {
	i := 0
	return IDFunc(func() string {
		id := ids[i%len(ids)]
		i++
		return id
	})
}

func TestSlotRecordStoreSeedsOnFirstLoad(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	store := NewSlotRecordStore(slots, WithStoreClock(fixedClock()), WithStoreIDs(sequenceIDs("seed1")))

	donors, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(donors) != 1 {
		t.Fatalf("expected one seed record, got %d", len(donors))
	}
	seed := donors[0]
	if seed.ID != "seed1" || seed.Name != "Harsha Vardhan" || seed.Blood != "O+" || seed.Organ != "Kidney" ||
		seed.Location != "Mumbai" || seed.Contact != "amit@example.com" || seed.Created != 1_700_000_000_000 {
		t.Fatalf("unexpected seed record: %+v", seed)
	}
	if stats := ComputeStats(donors); stats.Total != 1 {
		t.Fatalf("expected total 1, got %d", stats.Total)
	}

	raw, info, err := slots.Get(ctx, DefaultSlotKey)
	if err != nil {
		t.Fatalf("seed not persisted: %v", err)
	}
	if info.ContentType != kvcore.ContentTypeJSON {
		t.Fatalf("unexpected content type %q", info.ContentType)
	}
	if !strings.HasPrefix(string(raw), `[{"id":"seed1"`) {
		t.Fatalf("unexpected payload %s", raw)
	}

	again, err := store.Load(ctx)
	if err != nil || len(again) != 1 || again[0].ID != "seed1" {
		t.Fatalf("second load should not reseed: %+v %v", again, err)
	}
}

func TestSlotRecordStoreSeedDisabled(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	store := NewSlotRecordStore(slots, WithSeed(false))
	donors, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if donors == nil || len(donors) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", donors)
	}
	if _, _, err := slots.Get(ctx, DefaultSlotKey); !errors.Is(err, kvcore.ErrNotFound) {
		t.Fatalf("expected slot to stay absent, got %v", err)
	}
}

func TestSlotRecordStoreEmptyArrayIsNotReseeded(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	if _, err := slots.Put(ctx, DefaultSlotKey, []byte("[]"), kvcore.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	donors, err := NewSlotRecordStore(slots).Load(ctx)
	if err != nil || len(donors) != 0 {
		t.Fatalf("expected empty list, got %+v %v", donors, err)
	}
}

func TestSlotRecordStoreBlankSlotSeeds(t *testing.T) {
	ctx := context.Background()
	for name, payload := range map[string]string{"empty": "", "whitespace": " \n\t"} {
		t.Run(name, func(t *testing.T) {
			slots := memory.New()
			if _, err := slots.Put(ctx, DefaultSlotKey, []byte(payload), kvcore.PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			logger := &captureLogger{}
			store := NewSlotRecordStore(slots, WithStoreLogger(logger), WithStoreIDs(sequenceIDs("seed1")))
			donors, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(donors) != 1 || donors[0].ID != "seed1" {
				t.Fatalf("blank slot must seed, got %+v", donors)
			}
			if len(logger.errors) != 0 {
				t.Fatalf("blank slot is not a parse error, got %d error logs", len(logger.errors))
			}
			raw, _, err := slots.Get(ctx, DefaultSlotKey)
			if err != nil || !strings.HasPrefix(string(raw), `[{"id":"seed1"`) {
				t.Fatalf("seed not persisted: %q %v", raw, err)
			}
		})
	}
}

func TestSlotRecordStoreResetAndSlots(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	store := NewSlotRecordStore(slots, WithStoreIDs(sequenceIDs("seed1", "seed2")))

	infos, err := store.Slots(ctx)
	if err != nil || len(infos) != 0 {
		t.Fatalf("expected no slots, got %+v %v", infos, err)
	}
	existed, err := store.Reset(ctx)
	if err != nil || existed {
		t.Fatalf("reset of absent slot: %v %v", existed, err)
	}

	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := slots.Put(ctx, "other", []byte("x"), kvcore.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	infos, err = store.Slots(ctx)
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != DefaultSlotKey || infos[1].Key != "other" {
		t.Fatalf("unexpected slots %+v", infos)
	}
	if infos[0].ContentType != kvcore.ContentTypeJSON || infos[0].Size == 0 {
		t.Fatalf("unexpected slot info %+v", infos[0])
	}

	existed, err = store.Reset(ctx)
	if err != nil || !existed {
		t.Fatalf("reset: %v %v", existed, err)
	}
	if _, _, err := slots.Get(ctx, DefaultSlotKey); !errors.Is(err, kvcore.ErrNotFound) {
		t.Fatalf("expected slot deleted, got %v", err)
	}
	if _, _, err := slots.Get(ctx, "other"); err != nil {
		t.Fatalf("reset must only touch its own slot: %v", err)
	}
	donors, err := store.Load(ctx)
	if err != nil || len(donors) != 1 || donors[0].ID != "seed2" {
		t.Fatalf("load after reset must reseed: %+v %v", donors, err)
	}
}

func TestSlotRecordStoreCorruptPayloadLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	for name, payload := range map[string]string{
		"syntax":     "{not json",
		"object":     `{"id":"x"}`,
		"invalid":    `[{"id":"x","name":"","blood":"O+","location":"L","contact":"c"}]`,
		"duplicates": `[{"id":"x","name":"A","blood":"O+","location":"L","contact":"c"},{"id":"x","name":"B","blood":"A+","location":"L","contact":"c"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			slots := memory.New()
			if _, err := slots.Put(ctx, "custom", []byte(payload), kvcore.PutOptions{}); err != nil {
				t.Fatalf("put: %v", err)
			}
			logger := &captureLogger{}
			store := NewSlotRecordStore(slots, WithSlotKey("custom"), WithStoreLogger(logger))
			donors, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("corrupt payload must not fail load: %v", err)
			}
			if donors == nil || len(donors) != 0 {
				t.Fatalf("expected empty list, got %#v", donors)
			}
			if len(logger.errors) != 1 {
				t.Fatalf("expected one error log, got %d", len(logger.errors))
			}
			var perr *domain.StorageParseError
			if !errors.As(logger.lastErr, &perr) || perr.Key != "custom" {
				t.Fatalf("expected StorageParseError in log, got %v", logger.lastErr)
			}
			raw, _, err := slots.Get(ctx, "custom")
			if err != nil || string(raw) != payload {
				t.Fatalf("corrupt slot must be left untouched: %q %v", raw, err)
			}
		})
	}
}

func TestSlotRecordStoreNullLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	if _, err := slots.Put(ctx, DefaultSlotKey, []byte("null"), kvcore.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	logger := &captureLogger{}
	donors, err := NewSlotRecordStore(slots, WithStoreLogger(logger)).Load(ctx)
	if err != nil || donors == nil || len(donors) != 0 {
		t.Fatalf("expected empty list, got %#v %v", donors, err)
	}
	if len(logger.errors) != 0 {
		t.Fatalf("null is not a parse failure")
	}
}

func TestSlotRecordStoreSaveRejectsInvalidCollection(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	store := NewSlotRecordStore(slots)
	valid := domain.Donor{ID: "a", Name: "A", Blood: "O+", Location: "L", Contact: "c"}
	if err := store.Save(ctx, []domain.Donor{valid}); err != nil {
		t.Fatalf("save: %v", err)
	}

	err := store.Save(ctx, []domain.Donor{valid, {ID: "b", Name: "B"}})
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := store.Save(ctx, []domain.Donor{valid, valid}); err == nil {
		t.Fatalf("expected duplicate id rejection")
	}

	donors, err := store.Load(ctx)
	if err != nil || len(donors) != 1 || donors[0] != valid {
		t.Fatalf("rejected saves must not write: %+v %v", donors, err)
	}
}

func TestSlotRecordStoreSaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	if err := NewSlotRecordStore(slots).Save(ctx, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, err := slots.Get(ctx, DefaultSlotKey)
	if err != nil || string(raw) != "[]" {
		t.Fatalf("expected [], got %q %v", raw, err)
	}
}

type failingSlots struct {
	kvcore.Store
	getErr error
	putErr error
}

func (f failingSlots) Get(context.Context, string) ([]byte, kvcore.Info, error) {
	return nil, kvcore.Info{}, f.getErr
}

func (f failingSlots) Put(context.Context, string, []byte, kvcore.PutOptions) (kvcore.Info, error) {
	return kvcore.Info{}, f.putErr
}

func (f failingSlots) Driver() kvcore.Driver { return kvcore.DriverMemory }

func TestSlotRecordStoreDriverErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	if _, err := NewSlotRecordStore(failingSlots{getErr: boom}).Load(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped get error, got %v", err)
	}
	seeding := failingSlots{getErr: kvcore.ErrNotFound, putErr: boom}
	if _, err := NewSlotRecordStore(seeding).Load(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped seed error, got %v", err)
	}
	if err := NewSlotRecordStore(failingSlots{putErr: boom}).Save(ctx, nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}

func TestSlotRecordStoreOptionsIgnoreZeroValues(t *testing.T) {
	store := NewSlotRecordStore(memory.New(), WithSlotKey(""), WithStoreLogger(nil), WithStoreClock(nil), WithStoreIDs(nil))
	if store.Key() != DefaultSlotKey {
		t.Fatalf("expected default key, got %q", store.Key())
	}
	if store.logger == nil || store.clock == nil || store.ids == nil {
		t.Fatalf("nil options must keep defaults")
	}
}

func TestRegisterReplacesCorruptSlot(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	if _, err := slots.Put(ctx, DefaultSlotKey, []byte("{garbage"), kvcore.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	svc := NewService(NewSlotRecordStore(slots), WithIDGenerator(sequenceIDs("new")))
	if _, err := svc.Register(ctx, domain.Registration{Name: "A", Blood: "O+", Location: "L", Contact: "a@b.com"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	raw, _, err := slots.Get(ctx, DefaultSlotKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.HasPrefix(string(raw), `[{"id":"new"`) || strings.Contains(string(raw), "garbage") {
		t.Fatalf("register must overwrite the unreadable slot with the new list, got %s", raw)
	}
}

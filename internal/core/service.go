package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	kvcore "donorregistry/internal/kv/core"
	"donorregistry/pkg/domain"
)

// Status messages sent to the Notifier.
const (
	MsgRegistered     = "Registered successfully"
	MsgRemoved        = "Donor removed"
	MsgCopied         = "Contact copied to clipboard"
	MsgCopyFailed     = "Unable to copy"
	MsgReset          = "Registry reset"
	contactSavedLabel = "Contact saved: "
)

// Service owns the donor collection lifecycle: mutation handlers write the
// record store, then every mutation or query change re-renders from freshly
// loaded state. All operations are serialized.
type Service struct {
	mu    sync.Mutex
	store domain.RecordStore
	query Query

	clock         Clock
	ids           IDGenerator
	logger        Logger
	metrics       MetricsRecorder
	statsObserver StatsObserver
	tracer        Tracer
	renderer      Renderer
	notifier      Notifier
}

// NewService constructs a service over store.
func NewService(store domain.RecordStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:         store,
		clock:         systemClock{},
		ids:           IDFunc(NewID),
		logger:        noopLogger{},
		metrics:       noopMetricsRecorder{},
		statsObserver: noopStatsObserver{},
		tracer:        noopTracer{},
		renderer:      RendererFunc(func(context.Context, View) {}),
		notifier:      NotifierFunc(func(context.Context, string) {}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates reg, prepends the new donor, persists and re-renders.
// Validation failures return *domain.ValidationError and change nothing.
func (s *Service) Register(ctx context.Context, reg domain.Registration) (domain.Donor, error) {
	var created domain.Donor
	err := s.run(ctx, "register", func(ctx context.Context) error {
		reg = reg.Normalize()
		if err := reg.Validate(); err != nil {
			return err
		}
		all, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		donor := reg.Donor(UniqueID(s.ids, all), s.clock.Now())
		next := make([]domain.Donor, 0, len(all)+1)
		next = append(next, donor)
		next = append(next, all...)
		if err := s.store.Save(ctx, next); err != nil {
			return err
		}
		created = donor
		s.notifier.Notify(ctx, MsgRegistered)
		_, err = s.renderLocked(ctx, next)
		return err
	})
	return created, err
}

// Remove asks confirm before deleting the donor with id. Without an
// affirmative answer it returns domain.ErrNotConfirmed. An unknown id leaves
// the collection unchanged and still re-renders.
func (s *Service) Remove(ctx context.Context, id string, confirm Confirmer) error {
	return s.run(ctx, "remove", func(ctx context.Context) error {
		all, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		label := id
		idx := indexOf(all, id)
		if idx >= 0 {
			label = all[idx].Name
		}
		if confirm == nil || !confirm.Confirm(ctx, fmt.Sprintf("Remove donor %s?", label)) {
			return domain.ErrNotConfirmed
		}
		if idx < 0 {
			s.logger.Warn("remove: unknown donor", "id", id)
			_, err := s.renderLocked(ctx, all)
			return err
		}
		next := make([]domain.Donor, 0, len(all)-1)
		next = append(next, all[:idx]...)
		next = append(next, all[idx+1:]...)
		if err := s.store.Save(ctx, next); err != nil {
			return err
		}
		s.notifier.Notify(ctx, MsgRemoved)
		_, err = s.renderLocked(ctx, next)
		return err
	})
}

// Apply sets the active query and renders.
func (s *Service) Apply(ctx context.Context, q Query) (View, error) {
	var view View
	err := s.run(ctx, "apply", func(ctx context.Context) error {
		s.query = q.Normalize()
		var err error
		view, err = s.render(ctx)
		return err
	})
	return view, err
}

// Clear resets the active query and renders.
func (s *Service) Clear(ctx context.Context) (View, error) {
	return s.Apply(ctx, Query{})
}

// Current renders with the active query.
func (s *Service) Current(ctx context.Context) (View, error) {
	var view View
	err := s.run(ctx, "render", func(ctx context.Context) error {
		var err error
		view, err = s.render(ctx)
		return err
	})
	return view, err
}

// Snapshot renders the collection with q without changing the active query
// or notifying the renderer. Request-scoped callers use it so concurrent
// clients never see each other's filters.
func (s *Service) Snapshot(ctx context.Context, q Query) (View, error) {
	var view View
	err := s.run(ctx, "snapshot", func(ctx context.Context) error {
		all, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		q = q.Normalize()
		stats := ComputeStats(all)
		s.statsObserver.ObserveStats(stats)
		view = BuildView(Filter(all, q.Search, q.Blood), stats, q)
		return nil
	})
	return view, err
}

// SlotAdmin is implemented by record stores backed by keyed slots.
type SlotAdmin interface {
	Reset(ctx context.Context) (bool, error)
	Slots(ctx context.Context) ([]kvcore.Info, error)
}

// ErrAdminUnsupported is returned by Reset and Slots when the record store
// does not implement SlotAdmin.
var ErrAdminUnsupported = errors.New("record store does not support slot administration")

// Reset asks confirm, then drops the persisted collection and re-renders
// from a fresh load, which seeds again when seeding is enabled.
func (s *Service) Reset(ctx context.Context, confirm Confirmer) (View, error) {
	var view View
	err := s.run(ctx, "reset", func(ctx context.Context) error {
		admin, ok := s.store.(SlotAdmin)
		if !ok {
			return ErrAdminUnsupported
		}
		if confirm == nil || !confirm.Confirm(ctx, "Reset donor registry?") {
			return domain.ErrNotConfirmed
		}
		if _, err := admin.Reset(ctx); err != nil {
			return err
		}
		s.notifier.Notify(ctx, MsgReset)
		var err error
		view, err = s.render(ctx)
		return err
	})
	return view, err
}

// Slots describes the slots held by the record store.
func (s *Service) Slots(ctx context.Context) ([]kvcore.Info, error) {
	var infos []kvcore.Info
	err := s.run(ctx, "slots", func(ctx context.Context) error {
		admin, ok := s.store.(SlotAdmin)
		if !ok {
			return ErrAdminUnsupported
		}
		var err error
		infos, err = admin.Slots(ctx)
		return err
	})
	return infos, err
}

// Query returns the active query.
func (s *Service) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// List returns the full, unfiltered collection.
func (s *Service) List(ctx context.Context) ([]domain.Donor, error) {
	var all []domain.Donor
	err := s.run(ctx, "list", func(ctx context.Context) error {
		var err error
		all, err = s.store.Load(ctx)
		return err
	})
	return all, err
}

// Stats aggregates the full collection.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.run(ctx, "stats", func(ctx context.Context) error {
		all, err := s.store.Load(ctx)
		if err != nil {
			return err
		}
		stats = ComputeStats(all)
		return nil
	})
	return stats, err
}

// Contact resolves the contact action for a donor. Contacts that are neither
// email nor phone are reported through the notifier.
func (s *Service) Contact(ctx context.Context, id string) (ContactAction, error) {
	var action ContactAction
	err := s.run(ctx, "contact", func(ctx context.Context) error {
		donor, err := s.lookup(ctx, id)
		if err != nil {
			return err
		}
		action = ResolveContact(donor.Contact)
		if action.Kind == ContactPlain {
			s.notifier.Notify(ctx, contactSavedLabel+donor.Contact)
		}
		return nil
	})
	return action, err
}

// Copy writes CopyText for the donor to clip. A clipboard failure is reported
// through the notifier and returned as *domain.ClipboardError.
func (s *Service) Copy(ctx context.Context, id string, clip Clipboard) error {
	return s.run(ctx, "copy", func(ctx context.Context) error {
		donor, err := s.lookup(ctx, id)
		if err != nil {
			return err
		}
		if clip == nil {
			s.notifier.Notify(ctx, MsgCopyFailed)
			return &domain.ClipboardError{Err: errors.New("no clipboard available")}
		}
		if err := clip.WriteText(ctx, CopyText(donor.Name, donor.Contact)); err != nil {
			s.notifier.Notify(ctx, MsgCopyFailed)
			return &domain.ClipboardError{Err: err}
		}
		s.notifier.Notify(ctx, MsgCopied)
		return nil
	})
}

func (s *Service) lookup(ctx context.Context, id string) (domain.Donor, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return domain.Donor{}, err
	}
	idx := indexOf(all, id)
	if idx < 0 {
		return domain.Donor{}, fmt.Errorf("%w: %s", domain.ErrDonorNotFound, id)
	}
	return all[idx], nil
}

// render loads fresh state; callers hold s.mu.
func (s *Service) render(ctx context.Context) (View, error) {
	all, err := s.store.Load(ctx)
	if err != nil {
		return View{}, err
	}
	return s.renderLocked(ctx, all)
}

func (s *Service) renderLocked(ctx context.Context, all []domain.Donor) (View, error) {
	stats := ComputeStats(all)
	view := BuildView(Filter(all, s.query.Search, s.query.Blood), stats, s.query)
	s.statsObserver.ObserveStats(stats)
	s.renderer.Render(ctx, view)
	return view, nil
}

// run serializes fn and wraps it with tracing, metrics and logging.
func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	elapsed := time.Since(start)
	s.metrics.Observe(ctx, op, err == nil, elapsed)

	switch {
	case err == nil:
		s.logger.Debug("donor operation", "operation", op, "duration_ms", elapsed.Milliseconds())
	case isExpected(err):
		s.logger.Warn("donor operation rejected", "operation", op, "error", err)
	default:
		s.logger.Error("donor operation failed", "operation", op, "error", err)
	}
	return err
}

func isExpected(err error) bool {
	var clip *domain.ClipboardError
	return domain.IsValidation(err) ||
		errors.Is(err, domain.ErrNotConfirmed) ||
		errors.Is(err, domain.ErrDonorNotFound) ||
		errors.As(err, &clip)
}

func indexOf(all []domain.Donor, id string) int {
	for i, d := range all {
		if d.ID == id {
			return i
		}
	}
	return -1
}

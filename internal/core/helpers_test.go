package core

import (
	"context"
	"sync"
	"time"

	"donorregistry/pkg/domain"
)

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
	errors  []string
	lastErr error
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
	if level == "error" {
		l.errors = append(l.errors, msg)
	}
	for i := 0; i+1 < len(args); i += 2 {
		if args[i] == "error" {
			if err, ok := args[i+1].(error); ok {
				l.lastErr = err
			}
		}
	}
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *captureLogger) levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.level
	}
	return out
}

type metricCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricCall
}

func (r *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	r.calls = append(r.calls, metricCall{op: op, success: success})
}

type captureTracer struct {
	spans []*captureSpan
}

func (t *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	span := &captureSpan{op: op}
	t.spans = append(t.spans, span)
	return ctx, span
}

type captureSpan struct {
	op    string
	ended bool
	err   error
}

func (s *captureSpan) End(err error) {
	s.ended = true
	s.err = err
}

type captureStats struct {
	seen []domain.Stats
}

func (c *captureStats) ObserveStats(stats domain.Stats) { c.seen = append(c.seen, stats) }

type recordingUI struct {
	views    []View
	messages []string
}

func (u *recordingUI) Render(_ context.Context, v View) { u.views = append(u.views, v) }

func (u *recordingUI) Notify(_ context.Context, msg string) { u.messages = append(u.messages, msg) }

func (u *recordingUI) lastView() View {
	if len(u.views) == 0 {
		return View{}
	}
	return u.views[len(u.views)-1]
}

// fakeRecordStore is an in-memory domain.RecordStore that counts writes.
type fakeRecordStore struct {
	donors  []domain.Donor
	saves   int
	loadErr error
	saveErr error
}

func (f *fakeRecordStore) Load(context.Context) ([]domain.Donor, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]domain.Donor, len(f.donors))
	copy(out, f.donors)
	return out, nil
}

func (f *fakeRecordStore) Save(_ context.Context, donors []domain.Donor) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.donors = append([]domain.Donor(nil), donors...)
	return nil
}

type clipboardFunc func(ctx context.Context, text string) error

func (f clipboardFunc) WriteText(ctx context.Context, text string) error { return f(ctx, text) }

func donor(id, name, blood, organ, location, contact string) domain.Donor {
	return domain.Donor{ID: id, Name: name, Blood: blood, Organ: organ, Location: location, Contact: contact, Created: 1}
}

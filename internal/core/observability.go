package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"donorregistry/pkg/domain"
)

// Logger is the structured logging surface used by the registry. Arguments
// after msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// StatsObserver receives the aggregate counters computed for every render.
type StatsObserver interface {
	ObserveStats(stats domain.Stats)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan ends a span started by a Tracer.
type TraceSpan interface {
	End(err error)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopStatsObserver struct{}

func (noopStatsObserver) ObserveStats(domain.Stats) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// SpanRecord is one finished span written by JSONLineTracer.
type SpanRecord struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}

// JSONLineTracer writes one JSON object per finished span. It is used by the
// terminal client's --trace flag where no collector is available.
type JSONLineTracer struct {
	mu    sync.Mutex
	enc   *json.Encoder
	spans []SpanRecord
}

// NewJSONLineTracer returns a tracer writing spans to w. Spans are retained
// for Spans() only when w is nil; a writing tracer keeps nothing in memory.
func NewJSONLineTracer(w io.Writer) *JSONLineTracer {
	t := &JSONLineTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Spans returns a copy of the retained spans. It is empty for a tracer
// created with a writer.
func (t *JSONLineTracer) Spans() []SpanRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SpanRecord, len(t.spans))
	copy(out, t.spans)
	return out
}

// Start implements Tracer.
func (t *JSONLineTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonLineSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

type jsonLineSpan struct {
	tracer    *JSONLineTracer
	operation string
	started   time.Time
}

func (s *jsonLineSpan) End(err error) {
	rec := SpanRecord{
		Operation:  s.operation,
		Status:     "success",
		DurationMS: float64(time.Since(s.started)) / float64(time.Millisecond),
		StartedAt:  s.started,
	}
	if err != nil {
		rec.Status = "error"
		rec.Error = err.Error()
	}
	s.tracer.mu.Lock()
	if s.tracer.enc != nil {
		_ = s.tracer.enc.Encode(rec)
	} else {
		s.tracer.spans = append(s.tracer.spans, rec)
	}
	s.tracer.mu.Unlock()
}

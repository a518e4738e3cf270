package core

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

var expvarSeq atomic.Uint64

// opStats aggregates outcomes for one service operation.
type opStats struct {
	totalMS float64
	success int64
	failure int64
}

// ExpvarMetricsRecorder publishes per-operation timing and result counters
// via expvar, for deployments that want process-local metrics without a
// scrape target. Durations accumulate in milliseconds.
type ExpvarMetricsRecorder struct {
	name string
	mu   sync.Mutex
	ops  map[string]*opStats
}

// ExpvarMetricsSnapshot is a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs a recorder and publishes it under name.
// An empty name gets a unique generated one, so tests can build recorders
// freely without expvar collisions.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		name = fmt.Sprintf("culturecore_metrics_%d", expvarSeq.Add(1))
	}
	rec := &ExpvarMetricsRecorder{name: name, ops: make(map[string]*opStats)}
	expvar.Publish(name, expvar.Func(func() any { return rec.Snapshot() }))
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string { return r.name }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.ops[operation]
	if stats == nil {
		stats = &opStats{}
		r.ops[operation] = stats
	}
	stats.totalMS += float64(duration) / float64(time.Millisecond)
	if success {
		stats.success++
	} else {
		stats.failure++
	}
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64, len(r.ops)),
		Results:     make(map[string]map[string]int64, len(r.ops)),
		RecordedAt:  time.Now().UTC(),
	}
	for op, stats := range r.ops {
		snap.DurationsMS[op] = stats.totalMS
		snap.Results[op] = map[string]int64{"success": stats.success, "error": stats.failure}
	}
	return snap
}

// JSONTraceEntry is one serialized span emitted by JSONTraceTracer.
type JSONTraceEntry struct {
	Operation  string    `json:"operation"`
	Status     string    `json:"status"`
	DurationMS float64   `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

// JSONTraceTracer writes finished spans as JSON lines and retains them for
// inspection. It is the lightweight stand-in for a real tracing backend.
type JSONTraceTracer struct {
	mu      sync.Mutex
	entries []JSONTraceEntry
	enc     *json.Encoder
}

// NewJSONTracer constructs a tracer emitting spans to w. A nil writer keeps
// spans in memory only.
func NewJSONTracer(w io.Writer) *JSONTraceTracer {
	t := &JSONTraceTracer{}
	if w != nil {
		t.enc = json.NewEncoder(w)
	}
	return t
}

// Entries returns a copy of all finished spans in completion order.
func (t *JSONTraceTracer) Entries() []JSONTraceEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JSONTraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Start implements Tracer.
func (t *JSONTraceTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	return ctx, &jsonTraceSpan{tracer: t, operation: operation, started: time.Now().UTC()}
}

func (t *JSONTraceTracer) record(entry JSONTraceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	if t.enc != nil {
		_ = t.enc.Encode(entry)
	}
}

type jsonTraceSpan struct {
	tracer    *JSONTraceTracer
	operation string
	started   time.Time
}

func (s *jsonTraceSpan) End(err error) {
	entry := JSONTraceEntry{
		Operation: s.operation,
		Status:    "success",
		StartedAt: s.started,
		EndedAt:   time.Now().UTC(),
	}
	entry.DurationMS = float64(entry.EndedAt.Sub(s.started)) / float64(time.Millisecond)
	if err != nil {
		entry.Status = "error"
		entry.Error = err.Error()
	}
	s.tracer.record(entry)
}

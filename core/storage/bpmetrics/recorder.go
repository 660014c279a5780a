// Package bpmetrics wires the buffer pool manager's hit/miss/eviction
// counters into OpenTelemetry, backed by the same meter provider
// pkg/telemetry sets up for the rest of the gojodb tree.
package bpmetrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Recorder holds the OTel instruments the buffer pool manager updates. A
// nil *Recorder is valid and every method becomes a no-op, so callers that
// don't care about metrics can simply omit it.
type Recorder struct {
	hits      metric.Int64Counter
	misses    metric.Int64Counter
	evictions metric.Int64Counter
	pinned    metric.Int64UpDownCounter
}

// New creates a Recorder backed by meter. meter is typically
// telemetry.Telemetry.Meter, which is a real Prometheus-backed meter when
// telemetry is enabled and a no-op meter otherwise.
func New(meter metric.Meter) (*Recorder, error) {
	hits, err := meter.Int64Counter("bufferpool.page.hits",
		metric.WithDescription("pages served from an already-resident frame"))
	if err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}
	misses, err := meter.Int64Counter("bufferpool.page.misses",
		metric.WithDescription("pages fetched from disk because they were not resident"))
	if err != nil {
		return nil, fmt.Errorf("creating misses counter: %w", err)
	}
	evictions, err := meter.Int64Counter("bufferpool.frame.evictions",
		metric.WithDescription("frames reclaimed from a resident page to admit another"))
	if err != nil {
		return nil, fmt.Errorf("creating evictions counter: %w", err)
	}
	pinned, err := meter.Int64UpDownCounter("bufferpool.frame.pinned",
		metric.WithDescription("frames currently pinned by at least one guard"))
	if err != nil {
		return nil, fmt.Errorf("creating pinned counter: %w", err)
	}

	return &Recorder{hits: hits, misses: misses, evictions: evictions, pinned: pinned}, nil
}

func (r *Recorder) Hit(ctx context.Context) {
	if r == nil {
		return
	}
	r.hits.Add(ctx, 1)
}

func (r *Recorder) Miss(ctx context.Context) {
	if r == nil {
		return
	}
	r.misses.Add(ctx, 1)
}

func (r *Recorder) Eviction(ctx context.Context) {
	if r == nil {
		return
	}
	r.evictions.Add(ctx, 1)
}

func (r *Recorder) FramePinned(ctx context.Context) {
	if r == nil {
		return
	}
	r.pinned.Add(ctx, 1)
}

func (r *Recorder) FrameUnpinned(ctx context.Context) {
	if r == nil {
		return
	}
	r.pinned.Add(ctx, -1)
}

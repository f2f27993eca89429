package router

import (
	"context"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/mesh"
)

// Call is one Dispatch invocation as the router received it.
type Call struct {
	Glyphs         []glyph.Glyph
	Priority       float64
	RoutingContext map[string]any
}

// RecordingRouter records every call and every signal it would have sent.
// It is always available and never fails.
type RecordingRouter struct {
	base

	recMu   sync.Mutex
	calls   []Call
	signals []mesh.Signal
}

// NewRecordingRouter creates a recording router with cfg's gating.
func NewRecordingRouter(cfg Config, logger *zap.Logger) *RecordingRouter {
	return &RecordingRouter{base: newBase(cfg, logger)}
}

// Dispatch records the call, then applies the usual gating.
func (r *RecordingRouter) Dispatch(ctx context.Context, glyphs []glyph.Glyph, priority float64, routingCtx map[string]any) error {
	gs := make([]glyph.Glyph, len(glyphs))
	for i, g := range glyphs {
		gs[i] = g.Clone()
	}
	r.recMu.Lock()
	r.calls = append(r.calls, Call{Glyphs: gs, Priority: priority, RoutingContext: maps.Clone(routingCtx)})
	r.recMu.Unlock()

	return r.dispatch(ctx, r, glyphs, priority, routingCtx)
}

// Status reports counters. A recording router is always available.
func (r *RecordingRouter) Status() Status {
	return r.status(true)
}

// Calls returns the recorded calls, oldest first.
func (r *RecordingRouter) Calls() []Call {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	return slices.Clone(r.calls)
}

// Signals returns the signals that passed every gate.
func (r *RecordingRouter) Signals() []mesh.Signal {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	return slices.Clone(r.signals)
}

// Clear drops recorded calls and signals. Counters are left alone.
func (r *RecordingRouter) Clear() {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	r.calls = nil
	r.signals = nil
}

func (r *RecordingRouter) available() bool { return true }

func (r *RecordingRouter) send(_ context.Context, sigs []mesh.Signal) (int, error) {
	r.recMu.Lock()
	defer r.recMu.Unlock()
	r.signals = append(r.signals, sigs...)
	return len(sigs), nil
}

package router

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/mesh"
)

// #region interface

// Router dispatches glyphs to a downstream consumer.
type Router interface {
	Dispatch(ctx context.Context, glyphs []glyph.Glyph, priority float64, routingCtx map[string]any) error
	Status() Status
	ResetStatistics()
}

// transport is what a concrete router contributes to base.dispatch.
type transport interface {
	available() bool
	// send delivers sigs in order and reports how many went out before any error.
	send(ctx context.Context, sigs []mesh.Signal) (int, error)
}

// #endregion interface

// #region base

// base holds config, counters and the shared gating logic.
type base struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu            sync.Mutex
	sent          int
	failed        int
	totalPriority float64
	perKey        map[string]int
}

func newBase(cfg Config, logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	return base{
		cfg:    cfg,
		logger: logger.Named("router"),
		now:    time.Now,
		perKey: make(map[string]int),
	}
}

// #endregion base

// #region dispatch

func (b *base) dispatch(ctx context.Context, t transport, glyphs []glyph.Glyph, priority float64, routingCtx map[string]any) error {
	if math.IsNaN(priority) {
		priority = 0
	}
	if !b.cfg.EnableRouting {
		b.decision("routing disabled", priority, len(glyphs))
		return nil
	}
	if !t.available() {
		b.logger.Warn("downstream unavailable, dropping glyphs",
			zap.Int("glyphs", len(glyphs)), zap.Float64("priority", priority))
		return nil
	}
	if priority < b.cfg.PriorityThreshold {
		b.decision("below priority threshold", priority, len(glyphs))
		return nil
	}
	if len(glyphs) == 0 {
		b.decision("no glyphs", priority, 0)
		return nil
	}
	if limit := b.cfg.MaxGlyphsPerCall; limit > 0 && len(glyphs) > limit {
		b.decision("truncated", priority, len(glyphs))
		glyphs = glyphs[:limit]
	}

	sigs := b.buildSignals(glyphs, priority, routingCtx)

	if b.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.CallTimeout)
		defer cancel()
	}

	n, err := t.send(ctx, sigs)
	n = max(0, min(n, len(sigs)))
	if err == nil && n < len(sigs) {
		err = fmt.Errorf("%w: %d of %d", ErrShortBatch, n, len(sigs))
	}
	b.record(sigs[:n], priority, err != nil)

	if err != nil {
		derr := &DispatchError{Sent: n, Err: err}
		if n < len(sigs) {
			derr.Key = sigs[n].Payload.GlyphKey
		}
		b.logger.Warn("dispatch failed",
			zap.String("glyph_key", derr.Key), zap.Int("sent", n), zap.Error(err))
		if b.cfg.FallbackOnError {
			return nil
		}
		return derr
	}

	b.decision("dispatched", priority, n)
	return nil
}

func (b *base) decision(reason string, priority float64, glyphs int) {
	fields := []zap.Field{
		zap.String("reason", reason),
		zap.Float64("priority", priority),
		zap.Int("glyphs", glyphs),
	}
	if b.cfg.LogDecisions {
		b.logger.Info("routing decision", fields...)
		return
	}
	b.logger.Debug("routing decision", fields...)
}

// #endregion dispatch

// #region signals

func (b *base) buildSignals(glyphs []glyph.Glyph, priority float64, routingCtx map[string]any) []mesh.Signal {
	ts := b.now().UTC()
	sigs := make([]mesh.Signal, 0, len(glyphs))
	for _, g := range glyphs {
		sigs = append(sigs, mesh.Signal{
			SignalID:        uuid.NewString(),
			SignalType:      mesh.SignalType,
			SourceModule:    mesh.SourceModule,
			TargetModule:    mesh.TargetModule,
			Timestamp:       ts,
			DriftScore:      1 - priority,
			CollapseHash:    CollapseHash(g),
			ConfidenceScore: clampConfidence(priority),
			DiagnosticEvent: DiagnosticEvent(g.Key),
			Payload: mesh.Payload{
				GlyphKey:       g.Key,
				GlyphAttrs:     maps.Clone(g.Attrs),
				Priority:       priority,
				RoutingContext: maps.Clone(routingCtx),
			},
		})
	}
	return sigs
}

// #endregion signals

// #region stats

func (b *base) record(sent []mesh.Signal, priority float64, failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range sent {
		b.sent++
		b.totalPriority += priority
		b.perKey[s.Payload.GlyphKey]++
	}
	if failed {
		b.failed++
	}
}

func (b *base) status(available bool) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		Available: available,
		Enabled:   b.cfg.EnableRouting,
		Sent:      b.sent,
		Failed:    b.failed,
		PerKey:    maps.Clone(b.perKey),
		Config:    b.cfg,
	}
	if total := b.sent + b.failed; total > 0 {
		st.FailureRate = float64(b.failed) / float64(total)
	}
	if b.sent > 0 {
		st.AveragePriority = b.totalPriority / float64(b.sent)
	}
	return st
}

// ResetStatistics zeroes all counters.
func (b *base) ResetStatistics() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = 0
	b.failed = 0
	b.totalPriority = 0
	b.perKey = make(map[string]int)
}

// #endregion stats

package router

import (
	"context"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/mesh"
)

// MeshRouter forwards glyph signals to a mesh.Consumer.
type MeshRouter struct {
	base
	consumer mesh.Consumer
}

// NewMeshRouter creates a router over consumer. A nil consumer yields a
// router that is permanently unavailable.
func NewMeshRouter(cfg Config, consumer mesh.Consumer, logger *zap.Logger) *MeshRouter {
	return &MeshRouter{base: newBase(cfg, logger), consumer: consumer}
}

// Dispatch gates glyphs and forwards the survivors as signals.
func (r *MeshRouter) Dispatch(ctx context.Context, glyphs []glyph.Glyph, priority float64, routingCtx map[string]any) error {
	return r.dispatch(ctx, r, glyphs, priority, routingCtx)
}

// Status reports counters and whether the consumer is reachable.
func (r *MeshRouter) Status() Status {
	return r.status(r.available())
}

func (r *MeshRouter) available() bool {
	if r.consumer == nil {
		return false
	}
	if a, ok := r.consumer.(mesh.Availability); ok {
		return a.Available()
	}
	return true
}

func (r *MeshRouter) send(ctx context.Context, sigs []mesh.Signal) (int, error) {
	if r.cfg.Batching {
		if bc, ok := r.consumer.(mesh.BatchConsumer); ok {
			return bc.SendBatch(ctx, sigs)
		}
	}
	for i, sig := range sigs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := r.consumer.Send(ctx, sig); err != nil {
			return i, err
		}
	}
	return len(sigs), nil
}

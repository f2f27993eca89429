package mesh

import (
	"context"
	"time"
)

// #region constants

const (
	SignalType   = "phenomenal_glyph"
	SourceModule = "aka_qualia"
	TargetModule = "symbolic_mesh"
)

// #endregion constants

// #region signal

// Payload is the glyph-specific body of a routing signal.
type Payload struct {
	GlyphKey       string         `json:"glyph_key"`
	GlyphAttrs     map[string]any `json:"glyph_attrs"`
	Priority       float64        `json:"priority"`
	RoutingContext map[string]any `json:"routing_context"`
}

// Signal is the routing signal sent to the symbolic mesh.
type Signal struct {
	SignalID        string    `json:"signal_id"`
	SignalType      string    `json:"signal_type"`
	SourceModule    string    `json:"source_module"`
	TargetModule    string    `json:"target_module"`
	Timestamp       time.Time `json:"timestamp"`
	DriftScore      float64   `json:"drift_score"`
	CollapseHash    string    `json:"collapse_hash"`
	ConfidenceScore float64   `json:"confidence_score"`
	DiagnosticEvent string    `json:"diagnostic_event"`
	Payload         Payload   `json:"payload"`
}

// #endregion signal

// #region consumer-interfaces

// Consumer receives routing signals. Implementations may block on I/O and
// must honor ctx cancellation.
type Consumer interface {
	Send(ctx context.Context, sig Signal) error
}

// BatchConsumer accepts several signals in one call and reports how many
// were accepted before any error.
type BatchConsumer interface {
	Consumer
	SendBatch(ctx context.Context, sigs []Signal) (int, error)
}

// Availability is implemented by consumers that can report readiness.
type Availability interface {
	Available() bool
}

// #endregion consumer-interfaces

package router

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/mesh"
)

// New builds a Router of the given kind. consumer is ignored for the
// recording kinds.
func New(kind Kind, cfg Config, consumer mesh.Consumer, logger *zap.Logger) (Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch kind {
	case KindMesh:
		return NewMeshRouter(cfg, consumer, logger), nil
	case KindRecording, KindNoop:
		return NewRecordingRouter(cfg, logger), nil
	default:
		return nil, &ConfigError{Field: "kind", Value: string(kind)}
	}
}

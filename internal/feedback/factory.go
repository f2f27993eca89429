package feedback

import (
	"go.uber.org/zap"

	"github.com/danielpatrickdp/aka-qualia/internal/palette"
)

// New builds a Hook for cfg.Mode. A remote hook owns a connection; callers
// release it through io.Closer.
func New(cfg Config, mapper *palette.Mapper, logger *zap.Logger) (Hook, error) {
	switch cfg.Mode {
	case ModeLocal, "":
		return NewLocalHook(mapper), nil
	case ModeRemote:
		if cfg.BaseAddr == "" {
			return nil, &ConfigError{Field: "base_addr", Value: ""}
		}
		h, err := NewRemoteHook(cfg.BaseAddr, cfg.Timeout, logger)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, &ConfigError{Field: "mode", Value: string(cfg.Mode)}
	}
}

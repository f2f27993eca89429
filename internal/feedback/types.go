package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region hints

// Source values reported in Hints.
const (
	SourceLocal    = "local"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Hints are narrative rendering directives derived from a scene and its policy.
type Hints struct {
	Tempo       float64  `json:"tempo"`
	PaletteHint string   `json:"palette_hint"`
	Ops         []string `json:"ops"`
	Source      string   `json:"source,omitempty"`
}

// FallbackHints is returned when no feedback backend could answer.
func FallbackHints() Hints {
	return Hints{Tempo: 1.0, Ops: []string{}, Source: SourceFallback}
}

// #endregion hints

// #region hook

// Hook applies a regulation policy to a scene. Implementations never fail:
// backend errors degrade to FallbackHints.
type Hook interface {
	ApplyPolicy(ctx context.Context, scene qualia.PhenomenalScene, pol policy.RegulationPolicy) Hints
}

// #endregion hook

// #region config

// Mode selects a Hook implementation.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Config selects and configures the feedback hook.
type Config struct {
	Mode     Mode          `yaml:"mode" json:"mode"`
	BaseAddr string        `yaml:"base_addr" json:"base_addr"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns a local hook configuration.
func DefaultConfig() Config {
	return Config{
		Mode:    ModeLocal,
		Timeout: 1500 * time.Millisecond,
	}
}

// #endregion config

// #region errors

// ErrUnavailable marks a remote feedback call that failed or timed out.
var ErrUnavailable = errors.New("feedback backend unavailable")

// ConfigError reports an unknown mode or a remote mode without an address.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("feedback config: invalid %s %q", e.Field, e.Value)
}

// #endregion errors

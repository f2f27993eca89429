// Package config loads runtime configuration for akaq.
// Precedence, highest first: environment (AKA_*), YAML file, defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/logging"
	"github.com/danielpatrickdp/aka-qualia/internal/router"
)

// #region types

// Config holds all akaq configuration.
type Config struct {
	RouterKind router.Kind   `yaml:"router_kind" json:"router_kind"`
	Router     router.Config `yaml:"router" json:"router"`

	Mesh MeshConfig `yaml:"mesh" json:"mesh"`

	Feedback feedback.Config `yaml:"feedback" json:"feedback"`

	Ledger LedgerConfig `yaml:"ledger" json:"ledger"`

	Log logging.Config `yaml:"log" json:"log"`

	// Culture is applied to scenes whose context names none.
	Culture string `yaml:"culture" json:"culture"`

	// WeightedPriority dispatches with the glyph-weighted routing weight.
	WeightedPriority bool `yaml:"weighted_priority" json:"weighted_priority"`
}

// MeshConfig points at the symbolic mesh endpoint.
type MeshConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LedgerConfig holds the run ledger location. Empty disables the ledger.
type LedgerConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ErrInvalid marks a configuration value that failed validation.
var ErrInvalid = errors.New("invalid config")

// #endregion types

// #region defaults

// Default returns the default configuration: a recording router, the
// local feedback hook, no ledger.
func Default() *Config {
	return &Config{
		RouterKind: router.KindRecording,
		Router:     router.DefaultConfig(),
		Feedback:   feedback.DefaultConfig(),
		Log:        logging.DefaultConfig(),
	}
}

// #endregion defaults

// #region load

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty), and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays YAML onto cfg. Unknown keys are rejected.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// #endregion load

// #region env

// applyEnv applies AKA_* environment overrides.
func applyEnv(cfg *Config) error {
	var err error
	setBool := func(name string, dst *bool) {
		if v := os.Getenv(name); v != "" && err == nil {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, v, perr)
				return
			}
			*dst = b
		}
	}
	setInt := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" && err == nil {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, v, perr)
				return
			}
			*dst = n
		}
	}
	setFloat := func(name string, dst *float64) {
		if v := os.Getenv(name); v != "" && err == nil {
			f, perr := strconv.ParseFloat(v, 64)
			if perr != nil {
				err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, v, perr)
				return
			}
			*dst = f
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v := os.Getenv(name); v != "" && err == nil {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, v, perr)
				return
			}
			*dst = d
		}
	}
	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			*dst = v
		}
	}

	setBool("AKA_ROUTING_ENABLED", &cfg.Router.EnableRouting)
	if v := strings.TrimSpace(os.Getenv("AKA_ROUTER_KIND")); v != "" {
		cfg.RouterKind = router.Kind(v)
	}
	setInt("AKA_ROUTER_MAX_GLYPHS", &cfg.Router.MaxGlyphsPerCall)
	setFloat("AKA_ROUTER_PRIORITY_THRESHOLD", &cfg.Router.PriorityThreshold)
	setBool("AKA_ROUTER_BATCHING", &cfg.Router.Batching)
	setDuration("AKA_ROUTER_TIMEOUT", &cfg.Router.CallTimeout)
	setBool("AKA_ROUTER_FALLBACK_ON_ERROR", &cfg.Router.FallbackOnError)
	setBool("AKA_ROUTER_LOG_DECISIONS", &cfg.Router.LogDecisions)
	setString("AKA_MESH_ADDR", &cfg.Mesh.Addr)
	if v := strings.TrimSpace(os.Getenv("AKA_FEEDBACK_MODE")); v != "" {
		cfg.Feedback.Mode = feedback.Mode(v)
	}
	setString("AKA_FEEDBACK_ADDR", &cfg.Feedback.BaseAddr)
	setDuration("AKA_FEEDBACK_TIMEOUT", &cfg.Feedback.Timeout)
	setString("AKA_LEDGER_PATH", &cfg.Ledger.Path)
	setString("AKA_LOG_LEVEL", &cfg.Log.Level)
	setString("AKA_CULTURE", &cfg.Culture)
	setBool("AKA_WEIGHTED_PRIORITY", &cfg.WeightedPriority)
	return err
}

// #endregion env

// #region validate

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if err := c.Router.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.RouterKind {
	case router.KindMesh:
		if c.Mesh.Addr == "" {
			return fmt.Errorf("%w: router_kind mesh needs mesh.addr", ErrInvalid)
		}
	case router.KindRecording, router.KindNoop:
	default:
		return fmt.Errorf("%w: router_kind %q", ErrInvalid, c.RouterKind)
	}
	switch c.Feedback.Mode {
	case feedback.ModeLocal, "":
	case feedback.ModeRemote:
		if c.Feedback.BaseAddr == "" {
			return fmt.Errorf("%w: feedback mode remote needs feedback.base_addr", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: feedback mode %q", ErrInvalid, c.Feedback.Mode)
	}
	if c.Feedback.Timeout < 0 {
		return fmt.Errorf("%w: feedback timeout %v", ErrInvalid, c.Feedback.Timeout)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// #endregion validate

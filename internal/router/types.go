package router

import (
	"errors"
	"fmt"
	"time"
)

// #region kind

// Kind selects a Router implementation.
type Kind string

const (
	KindMesh      Kind = "mesh"      // forwards to a mesh.Consumer
	KindRecording Kind = "recording" // records calls, never fails
	KindNoop      Kind = "noop"      // alias of KindRecording
)

// #endregion kind

// #region config

// Config holds dispatch policy. Zero MaxGlyphsPerCall means no truncation.
type Config struct {
	EnableRouting     bool          `yaml:"enable_routing" json:"enable_routing"`
	MaxGlyphsPerCall  int           `yaml:"max_glyphs_per_call" json:"max_glyphs_per_call"`
	PriorityThreshold float64       `yaml:"priority_threshold" json:"priority_threshold"`
	Batching          bool          `yaml:"batching" json:"batching"` // advisory
	CallTimeout       time.Duration `yaml:"call_timeout" json:"call_timeout"`
	FallbackOnError   bool          `yaml:"fallback_on_error" json:"fallback_on_error"` // true swallows send errors
	LogDecisions      bool          `yaml:"log_decisions" json:"log_decisions"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableRouting:     true,
		MaxGlyphsPerCall:  10,
		PriorityThreshold: 0.3,
		Batching:          false,
		CallTimeout:       2 * time.Second,
		FallbackOnError:   true,
		LogDecisions:      false,
	}
}

// Validate rejects configurations no router can honor.
func (c Config) Validate() error {
	if c.MaxGlyphsPerCall < 0 {
		return &ConfigError{Field: "max_glyphs_per_call", Value: fmt.Sprint(c.MaxGlyphsPerCall)}
	}
	if c.PriorityThreshold < 0 || c.PriorityThreshold > 1 {
		return &ConfigError{Field: "priority_threshold", Value: fmt.Sprint(c.PriorityThreshold)}
	}
	if c.CallTimeout < 0 {
		return &ConfigError{Field: "call_timeout", Value: c.CallTimeout.String()}
	}
	return nil
}

// #endregion config

// #region status

// Status is a snapshot of router state and statistics.
type Status struct {
	Available       bool           `json:"available"`
	Enabled         bool           `json:"enabled"`
	Sent            int            `json:"sent"`
	Failed          int            `json:"failed"`
	FailureRate     float64        `json:"failure_rate"`
	AveragePriority float64        `json:"average_priority"`
	PerKey          map[string]int `json:"per_key"`
	Config          Config         `json:"config"`
}

// #endregion status

// #region errors

// ConfigError reports an unusable router kind or configuration value.
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("router config: invalid %s %q", e.Field, e.Value)
}

// DispatchError reports a send that failed mid-pass. Sent signals were
// delivered before the failure and are not rolled back.
type DispatchError struct {
	Key  string
	Sent int
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s failed after %d sent: %v", e.Key, e.Sent, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// ErrShortBatch marks a batch the consumer accepted only part of without
// reporting an error.
var ErrShortBatch = errors.New("short batch accept")

// #endregion errors

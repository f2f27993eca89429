package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/ledger"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
	"github.com/danielpatrickdp/aka-qualia/internal/router"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	Config      FixtureConfig `json:"config"`
	Cases       []Case        `json:"cases"`
}

// FixtureConfig overrides replay options. Absent fields keep defaults.
type FixtureConfig struct {
	PriorityThreshold *float64 `json:"priority_threshold,omitempty"`
	MaxGlyphsPerCall  *int     `json:"max_glyphs_per_call,omitempty"`
	WeightedPriority  bool     `json:"weighted_priority,omitempty"`
}

// Case is one scene plus what it should produce.
type Case struct {
	Name   string                 `json:"name"`
	Scene  qualia.PhenomenalScene `json:"scene"`
	Expect *Expectation           `json:"expect,omitempty"`
}

// Expectation lists checked outputs. Nil fields are not checked; an empty
// Glyphs list asserts that no glyph fires.
type Expectation struct {
	Glyphs        []string `json:"glyphs"`
	Priority      *float64 `json:"priority,omitempty"`
	Dispatched    *int     `json:"dispatched,omitempty"`
	Actions       []string `json:"actions,omitempty"`
	ColorContrast *string  `json:"color_contrast,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file. Scenes are validated
// while decoding.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToOptions applies the fixture overrides to DefaultOptions.
func (fc FixtureConfig) ToOptions() Options {
	opts := DefaultOptions()
	if fc.PriorityThreshold != nil {
		opts.Router.PriorityThreshold = *fc.PriorityThreshold
	}
	if fc.MaxGlyphsPerCall != nil {
		opts.Router.MaxGlyphsPerCall = *fc.MaxGlyphsPerCall
	}
	opts.WeightedPriority = fc.WeightedPriority
	return opts
}

// #endregion fixture-loader

// #region export

// FixtureFromRuns turns ledger runs into a regression fixture whose
// expectations are the recorded glyph keys and priorities. Run order is kept.
func FixtureFromRuns(description string, runs []ledger.Run) *Fixture {
	f := &Fixture{Description: description, Cases: make([]Case, 0, len(runs))}
	for _, run := range runs {
		p := run.Priority
		f.Cases = append(f.Cases, Case{
			Name:  run.RunID,
			Scene: run.Scene,
			Expect: &Expectation{
				Glyphs:   glyph.KeysOf(run.Glyphs),
				Priority: &p,
			},
		})
	}
	return f
}

// #endregion export

// defaultRouterConfig is used for replays: routing always enabled, no
// timeouts since the recording router never blocks.
func defaultRouterConfig() router.Config {
	cfg := router.DefaultConfig()
	cfg.CallTimeout = 0
	return cfg
}

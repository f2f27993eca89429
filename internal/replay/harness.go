package replay

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/palette"
	"github.com/danielpatrickdp/aka-qualia/internal/pipeline"
	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/router"
)

// #region types

// Options configures a replay run.
type Options struct {
	Router           router.Config
	WeightedPriority bool
	Palette          *palette.Mapper
}

// DefaultOptions returns the production router defaults without a timeout.
func DefaultOptions() Options {
	return Options{Router: defaultRouterConfig()}
}

// CaseResult captures what one case produced.
type CaseResult struct {
	Name          string                  `json:"name"`
	Glyphs        []string                `json:"glyphs"`
	Priority      float64                 `json:"priority"`
	RoutingWeight float64                 `json:"routing_weight"`
	Dispatched    int                     `json:"dispatched"`
	Policy        policy.RegulationPolicy `json:"policy"`
	Hints         feedback.Hints          `json:"hints"`
	Err           string                  `json:"error,omitempty"`
	Mismatches    []string                `json:"mismatches,omitempty"`
}

// Passed reports a case that ran and met every expectation.
func (r CaseResult) Passed() bool { return r.Err == "" && len(r.Mismatches) == 0 }

// Summary provides aggregate stats from a replay run.
type Summary struct {
	TotalCases        int            `json:"total_cases"`
	Passed            int            `json:"passed"`
	Mismatched        int            `json:"mismatched"`
	Errors            int            `json:"errors"`
	Dispatched        int            `json:"dispatched"`
	GlyphCounts       map[string]int `json:"glyph_counts"`
	MeanPriority      float64        `json:"mean_priority"`
	MeanRoutingWeight float64        `json:"mean_routing_weight"`
}

// #endregion types

// #region replay

// Replay runs each case through an in-memory pipeline with a recording
// router and the local feedback hook. Output is deterministic for a fixed
// set of cases.
func Replay(cases []Case, opts Options) []CaseResult {
	rec := router.NewRecordingRouter(opts.Router, nil)
	p := pipeline.New(pipeline.Options{
		Router:           rec,
		Palette:          opts.Palette,
		WeightedPriority: opts.WeightedPriority,
	})

	results := make([]CaseResult, 0, len(cases))
	for _, c := range cases {
		before := len(rec.Signals())
		res, err := p.Process(context.Background(), c.Scene)
		if err != nil {
			results = append(results, CaseResult{Name: c.Name, Err: err.Error()})
			continue
		}
		cr := CaseResult{
			Name:          c.Name,
			Glyphs:        glyph.KeysOf(res.Glyphs),
			Priority:      res.Priority,
			RoutingWeight: res.RoutingWeight,
			Dispatched:    len(rec.Signals()) - before,
			Policy:        res.Policy,
			Hints:         res.Hints,
		}
		cr.Mismatches = check(c.Expect, cr)
		results = append(results, cr)
	}
	return results
}

func check(want *Expectation, got CaseResult) []string {
	if want == nil {
		return nil
	}
	var out []string
	if want.Glyphs != nil && !slices.Equal(want.Glyphs, got.Glyphs) {
		out = append(out, fmt.Sprintf("glyphs: want %v, got %v", want.Glyphs, got.Glyphs))
	}
	if want.Priority != nil && math.Abs(*want.Priority-got.Priority) > 1e-9 {
		out = append(out, fmt.Sprintf("priority: want %.4f, got %.4f", *want.Priority, got.Priority))
	}
	if want.Dispatched != nil && *want.Dispatched != got.Dispatched {
		out = append(out, fmt.Sprintf("dispatched: want %d, got %d", *want.Dispatched, got.Dispatched))
	}
	if want.Actions != nil && !slices.Equal(want.Actions, got.Policy.Actions) {
		out = append(out, fmt.Sprintf("actions: want %v, got %v", want.Actions, got.Policy.Actions))
	}
	if want.ColorContrast != nil && *want.ColorContrast != got.Policy.ColorContrast {
		out = append(out, fmt.Sprintf("color_contrast: want %q, got %q", *want.ColorContrast, got.Policy.ColorContrast))
	}
	return out
}

// Summarize computes aggregate stats from replay results. Means cover cases
// that ran without error.
func Summarize(results []CaseResult) Summary {
	s := Summary{
		TotalCases:  len(results),
		GlyphCounts: make(map[string]int),
	}
	var ran int
	for _, r := range results {
		if r.Err != "" {
			s.Errors++
			continue
		}
		ran++
		if len(r.Mismatches) > 0 {
			s.Mismatched++
		} else {
			s.Passed++
		}
		s.Dispatched += r.Dispatched
		s.MeanPriority += r.Priority
		s.MeanRoutingWeight += r.RoutingWeight
		for _, k := range r.Glyphs {
			s.GlyphCounts[k]++
		}
	}
	if ran > 0 {
		s.MeanPriority /= float64(ran)
		s.MeanRoutingWeight /= float64(ran)
	}
	return s
}

// #endregion replay

package priority

import (
	"math"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region weights

const (
	gravityWeight = 0.7
	riskWeight    = 0.3

	// Weighted variant modifiers.
	highPriorityBoost = 1.1
	urgencyFloor      = 0.6
	urgencyBoost      = 0.1
)

// #endregion weights

// #region compute

// Compute returns the canonical dispatch priority:
// clamp(0, 1, narrative_gravity*0.7 + risk.score*0.3).
// Monotonic non-decreasing in both inputs; NaN inputs yield 0.
func Compute(scene qualia.PhenomenalScene) float64 {
	return FromInputs(scene.Proto.NarrativeGravity, scene.Risk.Score)
}

// FromInputs applies the canonical formula to raw values.
func FromInputs(gravity, risk float64) float64 {
	return clamp(gravity*gravityWeight + risk*riskWeight)
}

// #endregion compute

// #region weighted

// Weighted is a glyph-aware routing weight. It is not guaranteed monotonic
// and must not stand in for Compute where the dispatch contract is tested.
func Weighted(scene qualia.PhenomenalScene, glyphs []glyph.Glyph) float64 {
	w := Compute(scene)
	if glyph.Has(glyphs, glyph.KeyVigilance) || glyph.Has(glyphs, glyph.KeyRedThreshold) {
		w *= highPriorityBoost
	}
	for _, g := range glyphs {
		if g.Key != glyph.KeyGroundingHint {
			continue
		}
		if u, ok := g.Attrs["grounding_urgency"].(float64); ok && u >= urgencyFloor {
			w += urgencyBoost * u
		}
		break
	}
	return clamp(w)
}

// #endregion weighted

// #region helpers

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers

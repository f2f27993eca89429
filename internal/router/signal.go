package router

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
)

// #region diagnostic-events

// DefaultDiagnosticEvent tags signals for keys without a dedicated event.
const DefaultDiagnosticEvent = "glyph_observed"

var diagnosticEvents = map[string]string{
	glyph.KeyVigilance:     "affect_vigilance",
	glyph.KeyRedThreshold:  "red_threshold_crossed",
	glyph.KeyApproachAvoid: "approach_avoid_conflict",
	glyph.KeyGroundingHint: "grounding_required",
	glyph.KeySootheAnchor:  "soothe_anchor_set",
}

// DiagnosticEvent returns the diagnostic tag for a glyph key.
func DiagnosticEvent(key string) string {
	if ev, ok := diagnosticEvents[key]; ok {
		return ev
	}
	return DefaultDiagnosticEvent
}

// #endregion diagnostic-events

// #region collapse-hash

// CollapseHash returns the first 16 hex chars of sha256(key + attrs JSON).
// encoding/json sorts map keys, so the digest is stable across runs.
func CollapseHash(g glyph.Glyph) string {
	sum := sha256.Sum256([]byte(g.Key + canonicalAttrs(g.Attrs)))
	return hex.EncodeToString(sum[:])[:16]
}

// canonicalAttrs falls back to a sorted key=value rendering when the attrs
// hold values JSON rejects (NaN, channels).
func canonicalAttrs(attrs map[string]any) string {
	if attrs == nil {
		attrs = map[string]any{}
	}
	if data, err := json.Marshal(attrs); err == nil {
		return string(data)
	}
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		fmt.Fprintf(&b, "%s=%v;", k, attrs[k])
	}
	return b.String()
}

// #endregion collapse-hash

// #region helpers

func clampConfidence(p float64) float64 {
	if math.IsNaN(p) || p < 0.01 {
		return 0.01
	}
	if p > 0.99 {
		return 0.99
	}
	return p
}

// #endregion helpers

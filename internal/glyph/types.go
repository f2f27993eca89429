package glyph

import "maps"

// #region keys

// Namespace prefixes every canonical glyph key.
const Namespace = "aka:"

// Canonical glyph keys, in rule evaluation order.
const (
	KeyVigilance     = "aka:vigilance"
	KeyRedThreshold  = "aka:red_threshold"
	KeyApproachAvoid = "aka:approach_avoid"
	KeyGroundingHint = "aka:grounding_hint"
	KeySootheAnchor  = "aka:soothe_anchor"
)

// Keys lists the canonical keys in rule evaluation order.
var Keys = []string{KeyVigilance, KeyRedThreshold, KeyApproachAvoid, KeyGroundingHint, KeySootheAnchor}

// #endregion keys

// #region glyph

// Glyph is a symbolic marker emitted by a classification rule, carrying the
// evidence that triggered it.
type Glyph struct {
	Key   string         `json:"key"`
	Attrs map[string]any `json:"attrs"`
}

// Clone returns a copy with its own attrs map.
func (g Glyph) Clone() Glyph {
	return Glyph{Key: g.Key, Attrs: maps.Clone(g.Attrs)}
}

// Has reports whether any glyph in gs carries key.
func Has(gs []Glyph, key string) bool {
	for _, g := range gs {
		if g.Key == key {
			return true
		}
	}
	return false
}

// KeysOf returns the keys of gs in order.
func KeysOf(gs []Glyph) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Key
	}
	return out
}

// #endregion glyph

package palette

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// #region mapper

type culture struct {
	table map[string]entry
	keys  []string // longest first, for keyword fallback
	best  entry    // highest calmScore
	calm  entry    // highest SootheBias
}

// Mapper resolves color tokens against per-culture bias tables.
// A Mapper is read-only after construction and safe for concurrent use.
type Mapper struct {
	cultures map[string]*culture
}

// NewMapper builds a Mapper with the default and ja culture tables.
func NewMapper() *Mapper {
	return &Mapper{cultures: map[string]*culture{
		DefaultCulture: newCulture(defaultTable()),
		"ja":           newCulture(jaTable()),
	}}
}

var std = NewMapper()

// Default returns the shared package Mapper.
func Default() *Mapper { return std }

func newCulture(table map[string]entry) *culture {
	c := &culture{table: table}
	for k := range table {
		c.keys = append(c.keys, k)
	}
	slices.SortFunc(c.keys, func(a, b string) int {
		if d := cmp.Compare(len(b), len(a)); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	// strict comparison over alphabetical order: ties keep the first name
	first := true
	for _, k := range sortedAlpha(c.keys) {
		e := table[k]
		if first || e.bias.calmScore() > c.best.bias.calmScore() {
			c.best = e
		}
		if first || e.bias.SootheBias > c.calm.bias.SootheBias {
			c.calm = e
		}
		first = false
	}
	return c
}

func sortedAlpha(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return out
}

// Cultures returns the known culture names, sorted.
func (m *Mapper) Cultures() []string {
	names := make([]string, 0, len(m.cultures))
	for n := range m.cultures {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// #endregion mapper

// #region lookup

// resolveCulture maps "ja-JP" and "JA" to "ja"; unknown cultures fall back to default.
func (m *Mapper) resolveCulture(name string) (string, *culture) {
	name = strings.ToLower(strings.TrimSpace(name))
	if c, ok := m.cultures[name]; ok {
		return name, c
	}
	if i := strings.IndexAny(name, "-_"); i > 0 {
		if c, ok := m.cultures[name[:i]]; ok {
			return name[:i], c
		}
	}
	return DefaultCulture, m.cultures[DefaultCulture]
}

func (c *culture) lookup(token string) (entry, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return entry{}, false
	}
	segs := strings.FieldsFunc(token, func(r rune) bool { return r == '/' || r == ' ' })
	for _, s := range segs {
		if e, ok := c.table[s]; ok {
			return e, true
		}
	}
	for _, k := range c.keys {
		if strings.Contains(token, k) {
			return c.table[k], true
		}
	}
	return entry{}, false
}

func (m *Mapper) lookup(token, cultureName string) (entry, *culture, bool) {
	name, c := m.resolveCulture(cultureName)
	if e, ok := c.lookup(token); ok {
		return e, c, true
	}
	if name != DefaultCulture {
		if e, ok := m.cultures[DefaultCulture].lookup(token); ok {
			return e, c, true
		}
	}
	return entry{}, c, false
}

// #endregion lookup

// #region map-colorfield

// MapColorfield returns the bias weights of token in culture.
// Unknown tokens yield NeutralBias.
func (m *Mapper) MapColorfield(token, cultureName string) ColorBias {
	if e, _, ok := m.lookup(token, cultureName); ok {
		return e.bias
	}
	return NeutralBias
}

// #endregion map-colorfield

// #region safe-palette

// SafePaletteRecommendation returns token's canonical form when it already reads
// as safe, otherwise the culture's most calming, grounding color.
func (m *Mapper) SafePaletteRecommendation(token, cultureName string) string {
	e, c, ok := m.lookup(token, cultureName)
	if ok && e.bias.safe() {
		return e.token
	}
	return c.best.token
}

// CalmingToken returns the culture's most soothing color token.
func (m *Mapper) CalmingToken(cultureName string) string {
	_, c := m.resolveCulture(cultureName)
	return c.calm.token
}

// #endregion safe-palette

// #region harmony

// PaletteHarmony scores how well two tokens sit together, in [0, 1].
// Identical tokens score 1; tokens with opposing threat/soothe dominance score low.
func (m *Mapper) PaletteHarmony(a, b, cultureName string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1.0
	}
	ba := m.MapColorfield(a, cultureName)
	bb := m.MapColorfield(b, cultureName)
	spread := math.Max(math.Abs(ba.ThreatBias-bb.ThreatBias),
		math.Max(math.Abs(ba.SootheBias-bb.SootheBias), math.Abs(ba.GroundingBias-bb.GroundingBias)))
	h := 1 - spread
	if ba.threatDominant() != bb.threatDominant() {
		h *= 0.5
	}
	return math.Max(0, math.Min(1, h))
}

// #endregion harmony

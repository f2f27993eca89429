package glyph

import (
	"slices"
	"strings"
	"unicode"
)

// #region canonical-forms

type canonicalForm struct {
	key    string
	words  []string // sorted
	joined []string // compressed spellings, either word order
}

var canonicalForms = buildForms()

// aliases maps compressed alternate spellings to canonical keys.
var aliases = map[string]string{
	"vigilant":          KeyVigilance,
	"hypervigilance":    KeyVigilance,
	"redline":           KeyRedThreshold,
	"approachavoidance": KeyApproachAvoid,
	"grounding":         KeyGroundingHint,
	"groundinghints":    KeyGroundingHint,
	"soothinganchor":    KeySootheAnchor,
}

func buildForms() []canonicalForm {
	forms := make([]canonicalForm, 0, len(Keys))
	for _, k := range Keys {
		words := strings.Split(strings.TrimPrefix(k, Namespace), "_")
		reversed := slices.Clone(words)
		slices.Reverse(reversed)
		sorted := slices.Clone(words)
		slices.Sort(sorted)
		forms = append(forms, canonicalForm{
			key:    k,
			words:  sorted,
			joined: []string{strings.Join(words, ""), strings.Join(reversed, "")},
		})
	}
	return forms
}

// #endregion canonical-forms

// #region normalize

// Normalize rewrites each glyph key to its canonical "aka:<name>" form.
// Unknown keys pass through unchanged and attrs are copied verbatim.
func Normalize(glyphs []Glyph) []Glyph {
	out := make([]Glyph, len(glyphs))
	for i, g := range glyphs {
		c := g.Clone()
		c.Key = NormalizeKey(g.Key)
		out[i] = c
	}
	return out
}

// NormalizeKey canonicalizes a single key. Case, punctuation, whitespace,
// word order and the aka namespace prefix are ignored when matching.
func NormalizeKey(key string) string {
	if slices.Contains(Keys, key) {
		return key
	}
	words := strings.FieldsFunc(strings.ToLower(key), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) > 1 && words[0] == "aka" {
		words = words[1:]
	}
	if len(words) == 0 {
		return key
	}
	if k, ok := matchWords(words); ok {
		return k
	}
	return key
}

func matchWords(words []string) (string, bool) {
	sorted := slices.Clone(words)
	slices.Sort(sorted)
	joined := strings.Join(words, "")
	candidates := []string{joined}
	if rest, ok := strings.CutPrefix(joined, "aka"); ok && rest != "" {
		candidates = append(candidates, rest)
	}
	for _, f := range canonicalForms {
		if slices.Equal(sorted, f.words) {
			return f.key, true
		}
		for _, c := range candidates {
			if slices.Contains(f.joined, c) {
				return f.key, true
			}
		}
	}
	for _, c := range candidates {
		if k, ok := aliases[c]; ok {
			return k, true
		}
	}
	return "", false
}

// #endregion normalize

package glyph

import (
	"math"
	"slices"
	"strings"

	"github.com/danielpatrickdp/aka-qualia/internal/palette"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region thresholds

const (
	vigilanceArousal   = 0.6
	vigilanceTone      = -0.2
	redArousal         = 0.7
	redGravity         = 0.5
	approachAvoidFloor = 0.5
	groundingClarity   = 0.4
	groundingEmbodied  = 0.3
	sootheTone         = 0.2
	sootheArousal      = 0.5
)

// redMarkers are the red-family colorfield segments, Latin and non-Latin.
var redMarkers = []string{"red", "crimson", "scarlet", "aka", "akai", "赤", "紅"}

// #endregion thresholds

// #region classifier

// Classifier maps scenes to glyphs. It holds no mutable state and is safe
// for concurrent use.
type Classifier struct {
	palette *palette.Mapper
}

// NewClassifier creates a Classifier. mapper may be nil (uses palette.Default()).
func NewClassifier(mapper *palette.Mapper) *Classifier {
	if mapper == nil {
		mapper = palette.Default()
	}
	return &Classifier{palette: mapper}
}

var std = NewClassifier(nil)

// Classify runs the default classifier.
func Classify(scene qualia.PhenomenalScene) []Glyph {
	return std.Classify(scene)
}

// Classify evaluates the five rules in fixed order and returns the glyphs that
// fired. A neutral scene yields an empty, non-nil slice.
func (c *Classifier) Classify(scene qualia.PhenomenalScene) []Glyph {
	p := scene.Proto
	glyphs := make([]Glyph, 0, len(Keys))

	// 1. Vigilance: aroused and negative
	if p.Arousal >= vigilanceArousal && p.Tone <= vigilanceTone {
		glyphs = append(glyphs, Glyph{Key: KeyVigilance, Attrs: map[string]any{
			"arousal":       p.Arousal,
			"tone":          p.Tone,
			"clarity":       p.Clarity,
			"risk_score":    scene.Risk.Score,
			"risk_severity": string(scene.Risk.Severity),
		}})
	}

	// 2. Red threshold: red-family color, or aroused with heavy narrative
	if hasRedMarker(p.Colorfield) || (p.Arousal > redArousal && p.NarrativeGravity > redGravity) {
		glyphs = append(glyphs, Glyph{Key: KeyRedThreshold, Attrs: map[string]any{
			"narrative_gravity": p.NarrativeGravity,
			"embodiment":        p.Embodiment,
			"colorfield":        p.Colorfield,
			"arousal":           p.Arousal,
			"temporal_feel":     string(p.TemporalFeel),
			"agency_feel":       string(p.AgencyFeel),
		}})
	}

	// 3. Approach/avoid: only when the producer supplied a score
	if score, ok := scene.ContextFloat(qualia.ContextApproachAvoid); ok && score >= approachAvoidFloor {
		glyphs = append(glyphs, Glyph{Key: KeyApproachAvoid, Attrs: map[string]any{
			"score":             score,
			"tone":              p.Tone,
			"agency_feel":       string(p.AgencyFeel),
			"narrative_gravity": p.NarrativeGravity,
		}})
	}

	// 4. Grounding hint: elevated risk or a thin sense of clarity/body
	if scene.Risk.Severity.AtLeast(qualia.SeverityModerate) || p.Clarity < groundingClarity || p.Embodiment < groundingEmbodied {
		glyphs = append(glyphs, Glyph{Key: KeyGroundingHint, Attrs: map[string]any{
			"suggested_palette": c.suggestedPalette(scene),
			"clarity":           p.Clarity,
			"embodiment":        p.Embodiment,
			"risk_severity":     string(scene.Risk.Severity),
			"grounding_urgency": 1 - math.Min(p.Clarity, p.Embodiment),
		}})
	}

	// 5. Soothe anchor: positive and settled
	if p.Tone >= sootheTone && p.Arousal <= sootheArousal {
		glyphs = append(glyphs, Glyph{Key: KeySootheAnchor, Attrs: map[string]any{
			"tone":            p.Tone,
			"arousal":         p.Arousal,
			"colorfield":      p.Colorfield,
			"embodiment":      p.Embodiment,
			"temporal_feel":   string(p.TemporalFeel),
			"soothe_strength": p.Tone * (1 - p.Arousal),
		}})
	}

	return glyphs
}

// #endregion classifier

// #region helpers

func (c *Classifier) suggestedPalette(scene qualia.PhenomenalScene) string {
	token := scene.Proto.Colorfield
	if safe, ok := scene.ContextString(qualia.ContextSafePalette); ok {
		token = safe
	}
	return c.palette.SafePaletteRecommendation(token, scene.Culture())
}

// hasRedMarker reports whether any segment of the colorfield is a red-family name.
func hasRedMarker(colorfield string) bool {
	segs := strings.FieldsFunc(strings.ToLower(colorfield), func(r rune) bool {
		return strings.ContainsRune("/-_:. ", r)
	})
	for _, s := range segs {
		if slices.Contains(redMarkers, s) {
			return true
		}
	}
	return false
}

// #endregion helpers

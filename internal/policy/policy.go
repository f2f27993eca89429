package policy

import (
	"math"

	"github.com/danielpatrickdp/aka-qualia/internal/palette"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region actions

// Action tags, appended in this order when their conditions hold.
const (
	ActionBreathing  = "breathing"
	ActionPause      = "pause"
	ActionReframe    = "reframe"
	ActionFocusShift = "focus-shift"
	ActionSublimate  = "sublimate"
)

// #endregion actions

// #region regulation-policy

// RegulationPolicy carries pacing, gain, color and action directives for a scene.
type RegulationPolicy struct {
	Gain          float64  `json:"gain"` // [0.5, 2.0]
	Pace          float64  `json:"pace"` // typically [0.3, 1.5]
	ColorContrast string   `json:"color_contrast,omitempty"`
	Actions       []string `json:"actions"`
}

// HasColorContrast reports whether a contrast color was set.
func (p RegulationPolicy) HasColorContrast() bool { return p.ColorContrast != "" }

// #endregion regulation-policy

// #region generator

// Generator derives regulation policies from scenes.
type Generator struct {
	palette *palette.Mapper
}

// NewGenerator creates a Generator. mapper may be nil (uses palette.Default()).
func NewGenerator(mapper *palette.Mapper) *Generator {
	if mapper == nil {
		mapper = palette.Default()
	}
	return &Generator{palette: mapper}
}

var std = NewGenerator(nil)

// Generate runs the default generator.
func Generate(scene qualia.PhenomenalScene) RegulationPolicy {
	return std.Generate(scene)
}

// Generate is pure: the same scene always yields the same policy.
func (g *Generator) Generate(scene qualia.PhenomenalScene) RegulationPolicy {
	p := scene.Proto
	pol := RegulationPolicy{
		Pace:    pace(p),
		Gain:    math.Max(0.5, math.Min(2.0, p.Clarity+p.NarrativeGravity)),
		Actions: []string{},
	}

	if p.Arousal > 0.7 {
		pol.Actions = append(pol.Actions, ActionBreathing)
	}
	if p.Tone < -0.3 {
		pol.Actions = append(pol.Actions, ActionPause, ActionReframe)
	}
	if p.Clarity < 0.4 {
		pol.Actions = append(pol.Actions, ActionFocusShift)
	}
	if p.NarrativeGravity > 0.7 && p.Tone < 0 {
		pol.Actions = append(pol.Actions, ActionSublimate)
	}

	if scene.Risk.Score > 0.5 {
		pol.ColorContrast = g.palette.CalmingToken(scene.Culture())
	}
	return pol
}

func pace(p qualia.ProtoQualia) float64 {
	switch p.TemporalFeel {
	case qualia.TemporalUrgent:
		return math.Min(1.5, 0.8+p.Arousal*0.7)
	case qualia.TemporalSuspended:
		return math.Max(0.3, 0.6-p.Arousal*0.3)
	default:
		return 1.0
	}
}

// #endregion generator

package feedback

import (
	"context"

	"github.com/danielpatrickdp/aka-qualia/internal/palette"
	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region ops

// Rendering ops emitted by LocalHook.
const (
	OpBreathPacing   = "breath_pacing"
	OpInsertPause    = "insert_pause"
	OpReframe        = "reframe_narrative"
	OpShiftFocus     = "shift_focus"
	OpSublimate      = "sublimate_imagery"
	OpAmplify        = "amplify"
	OpAttenuate      = "attenuate"
	OpContrastPrefix = "contrast:"
)

var actionOps = map[string]string{
	policy.ActionBreathing:  OpBreathPacing,
	policy.ActionPause:      OpInsertPause,
	policy.ActionReframe:    OpReframe,
	policy.ActionFocusShift: OpShiftFocus,
	policy.ActionSublimate:  OpSublimate,
}

// renderOp maps a policy action to its op; unknown actions pass through.
func renderOp(action string) string {
	if op, ok := actionOps[action]; ok {
		return op
	}
	return action
}

// #endregion ops

// #region local-hook

// LocalHook computes hints in-process.
type LocalHook struct {
	palette *palette.Mapper
}

// NewLocalHook creates a LocalHook. mapper may be nil (uses palette.Default()).
func NewLocalHook(mapper *palette.Mapper) *LocalHook {
	if mapper == nil {
		mapper = palette.Default()
	}
	return &LocalHook{palette: mapper}
}

// ApplyPolicy is pure. Tempo tracks the policy pace.
func (h *LocalHook) ApplyPolicy(_ context.Context, scene qualia.PhenomenalScene, pol policy.RegulationPolicy) Hints {
	hint := scene.Proto.Colorfield
	if pol.HasColorContrast() || scene.Risk.Severity.AtLeast(qualia.SeverityModerate) {
		token := scene.Proto.Colorfield
		if sp, ok := scene.ContextString(qualia.ContextSafePalette); ok {
			token = sp
		}
		hint = h.palette.SafePaletteRecommendation(token, scene.Culture())
	}

	ops := make([]string, 0, len(pol.Actions)+2)
	for _, a := range pol.Actions {
		ops = append(ops, renderOp(a))
	}
	switch {
	case pol.Gain > 1.2:
		ops = append(ops, OpAmplify)
	case pol.Gain < 0.8:
		ops = append(ops, OpAttenuate)
	}
	if pol.HasColorContrast() {
		ops = append(ops, OpContrastPrefix+pol.ColorContrast)
	}

	return Hints{
		Tempo:       pol.Pace,
		PaletteHint: hint,
		Ops:         ops,
		Source:      SourceLocal,
	}
}

// #endregion local-hook

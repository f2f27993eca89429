package qualia

import "time"

// #region temporal-feel

// TemporalFeel is the felt texture of time within a scene.
type TemporalFeel string

const (
	TemporalMundane   TemporalFeel = "mundane"
	TemporalUrgent    TemporalFeel = "urgent"
	TemporalElastic   TemporalFeel = "elastic"
	TemporalSuspended TemporalFeel = "suspended"
	TemporalTimeless  TemporalFeel = "timeless"
)

// TemporalFeels lists every valid TemporalFeel in declaration order.
var TemporalFeels = []TemporalFeel{
	TemporalMundane, TemporalUrgent, TemporalElastic, TemporalSuspended, TemporalTimeless,
}

// #endregion temporal-feel

// #region agency-feel

// AgencyFeel is the felt locus of agency within a scene.
type AgencyFeel string

const (
	AgencyActive     AgencyFeel = "active"
	AgencyPassive    AgencyFeel = "passive"
	AgencyShared     AgencyFeel = "shared"
	AgencyForced     AgencyFeel = "forced"
	AgencyEffortless AgencyFeel = "effortless"
)

// AgencyFeels lists every valid AgencyFeel in declaration order.
var AgencyFeels = []AgencyFeel{
	AgencyActive, AgencyPassive, AgencyShared, AgencyForced, AgencyEffortless,
}

// #endregion agency-feel

// #region severity

// Severity is a coarse bucketing of a risk score.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Severities lists every valid Severity from least to most severe.
var Severities = []Severity{SeverityNone, SeverityLow, SeverityModerate, SeverityHigh}

// #endregion severity

// #region proto-qualia

// ProtoQualia is a momentary affective/cognitive snapshot.
type ProtoQualia struct {
	Tone             float64      `json:"tone"`       // [-1, 1]
	Arousal          float64      `json:"arousal"`    // [0, 1]
	Clarity          float64      `json:"clarity"`    // [0, 1]
	Embodiment       float64      `json:"embodiment"` // [0, 1]
	Colorfield       string       `json:"colorfield"` // culture-namespaced token, e.g. "aka/red"
	TemporalFeel     TemporalFeel `json:"temporal_feel"`
	AgencyFeel       AgencyFeel   `json:"agency_feel"`
	NarrativeGravity float64      `json:"narrative_gravity"` // [0, 1]
}

// #endregion proto-qualia

// #region risk-profile

// RiskProfile carries a risk score and its severity bucket. Severity is supplied
// alongside Score; callers keep the two consistent (see SeverityForScore).
type RiskProfile struct {
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons,omitempty"`
	Severity Severity `json:"severity"`
}

// #endregion risk-profile

// #region scene

// PhenomenalScene aggregates one snapshot submitted for classification.
// The core never mutates or retains a scene.
type PhenomenalScene struct {
	Proto          ProtoQualia    `json:"proto"`
	Subject        string         `json:"subject"`
	Object         string         `json:"object"`
	Context        map[string]any `json:"context,omitempty"`
	Risk           RiskProfile    `json:"risk"`
	TransformChain []string       `json:"transform_chain,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// Well-known context keys.
const (
	ContextApproachAvoid = "approach_avoid_score"
	ContextSafePalette   = "safe_palette"
	ContextCulture       = "culture"
)

// #endregion scene

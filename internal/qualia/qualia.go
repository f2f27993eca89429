package qualia

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"
)

// ErrInvalid marks a value rejected at construction time.
var ErrInvalid = errors.New("invalid qualia")

// #region enum-validation

// Valid reports whether t is one of the declared temporal feels.
func (t TemporalFeel) Valid() bool { return slices.Contains(TemporalFeels, t) }

// Valid reports whether a is one of the declared agency feels.
func (a AgencyFeel) Valid() bool { return slices.Contains(AgencyFeels, a) }

// Valid reports whether s is one of the declared severities.
func (s Severity) Valid() bool { return slices.Contains(Severities, s) }

// AtLeast reports whether s is as severe as other or more.
func (s Severity) AtLeast(other Severity) bool {
	return slices.Index(Severities, s) >= slices.Index(Severities, other)
}

func (t *TemporalFeel) UnmarshalText(b []byte) error {
	v := TemporalFeel(b)
	if !v.Valid() {
		return fmt.Errorf("%w: temporal_feel %q", ErrInvalid, string(b))
	}
	*t = v
	return nil
}

func (a *AgencyFeel) UnmarshalText(b []byte) error {
	v := AgencyFeel(b)
	if !v.Valid() {
		return fmt.Errorf("%w: agency_feel %q", ErrInvalid, string(b))
	}
	*a = v
	return nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v := Severity(b)
	if !v.Valid() {
		return fmt.Errorf("%w: severity %q", ErrInvalid, string(b))
	}
	*s = v
	return nil
}

// SeverityForScore buckets a risk score: <0.25 none, <0.5 low, <0.75 moderate, else high.
func SeverityForScore(score float64) Severity {
	switch {
	case score < 0.25:
		return SeverityNone
	case score < 0.5:
		return SeverityLow
	case score < 0.75:
		return SeverityModerate
	default:
		return SeverityHigh
	}
}

// #endregion enum-validation

// #region constructors

// NewProtoQualia validates and returns a ProtoQualia.
func NewProtoQualia(tone, arousal, clarity, embodiment float64, colorfield string, temporal TemporalFeel, agency AgencyFeel, gravity float64) (ProtoQualia, error) {
	p := ProtoQualia{
		Tone:             tone,
		Arousal:          arousal,
		Clarity:          clarity,
		Embodiment:       embodiment,
		Colorfield:       colorfield,
		TemporalFeel:     temporal,
		AgencyFeel:       agency,
		NarrativeGravity: gravity,
	}
	if err := p.Validate(); err != nil {
		return ProtoQualia{}, err
	}
	return p, nil
}

// NewRiskProfile validates and returns a RiskProfile. Reasons are copied.
func NewRiskProfile(score float64, severity Severity, reasons ...string) (RiskProfile, error) {
	r := RiskProfile{Score: score, Severity: severity, Reasons: slices.Clone(reasons)}
	if err := r.Validate(); err != nil {
		return RiskProfile{}, err
	}
	return r, nil
}

// NewScene validates its parts and returns a scene that owns copies of
// the context map and transform chain. A zero timestamp is set to now.
func NewScene(proto ProtoQualia, risk RiskProfile, subject, object string, context map[string]any, chain []string, ts time.Time) (PhenomenalScene, error) {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	s := PhenomenalScene{
		Proto:          proto,
		Subject:        subject,
		Object:         object,
		Context:        maps.Clone(context),
		Risk:           RiskProfile{Score: risk.Score, Severity: risk.Severity, Reasons: slices.Clone(risk.Reasons)},
		TransformChain: slices.Clone(chain),
		Timestamp:      ts,
	}
	if err := s.Validate(); err != nil {
		return PhenomenalScene{}, err
	}
	return s, nil
}

// #endregion constructors

// #region validate

// Validate checks ranges and enum membership.
func (p ProtoQualia) Validate() error {
	if err := checkRange("tone", p.Tone, -1, 1); err != nil {
		return err
	}
	if err := checkRange("arousal", p.Arousal, 0, 1); err != nil {
		return err
	}
	if err := checkRange("clarity", p.Clarity, 0, 1); err != nil {
		return err
	}
	if err := checkRange("embodiment", p.Embodiment, 0, 1); err != nil {
		return err
	}
	if err := checkRange("narrative_gravity", p.NarrativeGravity, 0, 1); err != nil {
		return err
	}
	if !p.TemporalFeel.Valid() {
		return fmt.Errorf("%w: temporal_feel %q", ErrInvalid, p.TemporalFeel)
	}
	if !p.AgencyFeel.Valid() {
		return fmt.Errorf("%w: agency_feel %q", ErrInvalid, p.AgencyFeel)
	}
	return nil
}

// Validate checks the score range and severity membership.
func (r RiskProfile) Validate() error {
	if err := checkRange("risk.score", r.Score, 0, 1); err != nil {
		return err
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("%w: severity %q", ErrInvalid, r.Severity)
	}
	return nil
}

// Validate checks the proto and risk parts.
func (s PhenomenalScene) Validate() error {
	if err := s.Proto.Validate(); err != nil {
		return err
	}
	return s.Risk.Validate()
}

func checkRange(name string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %s=%v outside [%v, %v]", ErrInvalid, name, v, lo, hi)
	}
	return nil
}

// #endregion validate

// #region json

// UnmarshalJSON decodes and validates a scene.
func (s *PhenomenalScene) UnmarshalJSON(data []byte) error {
	type sceneAlias PhenomenalScene
	var a sceneAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	decoded := PhenomenalScene(a)
	if err := decoded.Validate(); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// ToMap converts the scene to a generic map, e.g. for protobuf Struct payloads.
func (s PhenomenalScene) ToMap() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal scene map: %w", err)
	}
	return m, nil
}

// SceneFromMap is the inverse of ToMap. The decoded scene is validated.
func SceneFromMap(m map[string]any) (PhenomenalScene, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return PhenomenalScene{}, fmt.Errorf("marshal scene map: %w", err)
	}
	var s PhenomenalScene
	if err := json.Unmarshal(data, &s); err != nil {
		return PhenomenalScene{}, fmt.Errorf("decode scene: %w", err)
	}
	return s, nil
}

// #endregion json

// #region context-accessors

// ContextFloat returns a numeric context value. Absent or non-numeric values report false.
func (s PhenomenalScene) ContextFloat(key string) (float64, bool) {
	v, ok := s.Context[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ContextString returns a non-empty string context value.
func (s PhenomenalScene) ContextString(key string) (string, bool) {
	v, ok := s.Context[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Culture returns the palette culture named in the context, or "default".
func (s PhenomenalScene) Culture() string {
	if c, ok := s.ContextString(ContextCulture); ok {
		return c
	}
	return "default"
}

// #endregion context-accessors

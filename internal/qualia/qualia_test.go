package qualia

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

// #region constructor-tests

func TestNewProtoQualia_Valid(t *testing.T) {
	p, err := NewProtoQualia(-0.5, 0.9, 0.6, 0.5, "aka/red", TemporalUrgent, AgencyForced, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Colorfield != "aka/red" {
		t.Errorf("expected colorfield aka/red, got %q", p.Colorfield)
	}
}

func TestNewProtoQualia_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		tone     float64
		arousal  float64
		temporal TemporalFeel
		agency   AgencyFeel
	}{
		{"tone-high", 1.5, 0.5, TemporalMundane, AgencyActive},
		{"tone-low", -1.1, 0.5, TemporalMundane, AgencyActive},
		{"arousal-negative", 0, -0.1, TemporalMundane, AgencyActive},
		{"arousal-nan", 0, math.NaN(), TemporalMundane, AgencyActive},
		{"bad-temporal", 0, 0.5, TemporalFeel("hurried"), AgencyActive},
		{"bad-agency", 0, 0.5, TemporalMundane, AgencyFeel("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProtoQualia(tt.tone, tt.arousal, 0.5, 0.5, "blue", tt.temporal, tt.agency, 0.5)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestNewRiskProfile(t *testing.T) {
	if _, err := NewRiskProfile(1.2, SeverityHigh); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for score 1.2, got %v", err)
	}
	if _, err := NewRiskProfile(0.4, Severity("extreme")); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for unknown severity, got %v", err)
	}
	r, err := NewRiskProfile(0.4, SeverityLow, "fatigue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.Reasons) != 1 || r.Reasons[0] != "fatigue" {
		t.Errorf("expected reasons [fatigue], got %v", r.Reasons)
	}
}

func TestNewScene_CopiesCallerState(t *testing.T) {
	proto, _ := NewProtoQualia(0.3, 0.2, 0.8, 0.7, "ao/blue", TemporalMundane, AgencyShared, 0.2)
	risk, _ := NewRiskProfile(0.1, SeverityNone)
	ctx := map[string]any{"safe_palette": "midori"}
	chain := []string{"ingest"}

	s, err := NewScene(proto, risk, "self", "sea", ctx, chain, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx["safe_palette"] = "aka"
	chain[0] = "mutated"

	if got, _ := s.ContextString("safe_palette"); got != "midori" {
		t.Errorf("scene context aliased caller map: got %q", got)
	}
	if s.TransformChain[0] != "ingest" {
		t.Errorf("scene chain aliased caller slice: got %q", s.TransformChain[0])
	}
	if s.Timestamp.IsZero() {
		t.Error("expected zero timestamp to be filled")
	}
}

// #endregion constructor-tests

// #region severity-tests

func TestSeverityForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Severity
	}{
		{0, SeverityNone},
		{0.24, SeverityNone},
		{0.25, SeverityLow},
		{0.5, SeverityModerate},
		{0.75, SeverityHigh},
		{1, SeverityHigh},
	}
	for _, tt := range tests {
		if got := SeverityForScore(tt.score); got != tt.want {
			t.Errorf("SeverityForScore(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSeverityAtLeast(t *testing.T) {
	if !SeverityHigh.AtLeast(SeverityModerate) {
		t.Error("high should be at least moderate")
	}
	if SeverityLow.AtLeast(SeverityModerate) {
		t.Error("low should not be at least moderate")
	}
}

// #endregion severity-tests

// #region json-tests

const sceneJSON = `{
	"proto": {"tone": -0.6, "arousal": 0.9, "clarity": 0.5, "embodiment": 0.6,
		"colorfield": "aka/red", "temporal_feel": "urgent", "agency_feel": "forced", "narrative_gravity": 0.8},
	"subject": "self", "object": "deadline",
	"context": {"approach_avoid_score": 0.7},
	"risk": {"score": 0.8, "reasons": ["overload"], "severity": "high"},
	"timestamp": "2026-01-01T00:00:00Z"
}`

func TestSceneUnmarshalJSON(t *testing.T) {
	var s PhenomenalScene
	if err := json.Unmarshal([]byte(sceneJSON), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Proto.TemporalFeel != TemporalUrgent {
		t.Errorf("expected urgent, got %q", s.Proto.TemporalFeel)
	}
	if v, ok := s.ContextFloat(ContextApproachAvoid); !ok || v != 0.7 {
		t.Errorf("expected approach_avoid_score 0.7, got %v (%v)", v, ok)
	}
}

func TestSceneUnmarshalJSON_RejectsBadEnum(t *testing.T) {
	bad := `{"proto": {"tone": 0, "arousal": 0, "clarity": 0, "embodiment": 0, "colorfield": "",
		"temporal_feel": "sideways", "agency_feel": "active", "narrative_gravity": 0},
		"risk": {"score": 0, "severity": "none"}}`
	var s PhenomenalScene
	if err := json.Unmarshal([]byte(bad), &s); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSceneUnmarshalJSON_RejectsOutOfRange(t *testing.T) {
	bad := `{"proto": {"tone": 0, "arousal": 3, "clarity": 0, "embodiment": 0, "colorfield": "",
		"temporal_feel": "mundane", "agency_feel": "active", "narrative_gravity": 0},
		"risk": {"score": 0, "severity": "none"}}`
	var s PhenomenalScene
	if err := json.Unmarshal([]byte(bad), &s); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSceneMapRoundTrip(t *testing.T) {
	var s PhenomenalScene
	if err := json.Unmarshal([]byte(sceneJSON), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	m, err := s.ToMap()
	if err != nil {
		t.Fatalf("ToMap: %v", err)
	}
	back, err := SceneFromMap(m)
	if err != nil {
		t.Fatalf("SceneFromMap: %v", err)
	}
	if back.Proto != s.Proto {
		t.Errorf("proto mismatch: %+v vs %+v", back.Proto, s.Proto)
	}
	if !back.Timestamp.Equal(s.Timestamp) {
		t.Errorf("timestamp mismatch: %v vs %v", back.Timestamp, s.Timestamp)
	}
}

// #endregion json-tests

// #region context-tests

func TestContextAccessors(t *testing.T) {
	s := PhenomenalScene{Context: map[string]any{
		"f64": 0.5, "f32": float32(0.25), "int": 2, "num": json.Number("0.75"),
		"str": "x", "empty": "", "culture": "ja",
	}}
	for key, want := range map[string]float64{"f64": 0.5, "f32": 0.25, "int": 2, "num": 0.75} {
		if got, ok := s.ContextFloat(key); !ok || got != want {
			t.Errorf("ContextFloat(%q) = %v,%v want %v", key, got, ok, want)
		}
	}
	if _, ok := s.ContextFloat("str"); ok {
		t.Error("string value should not read as float")
	}
	if _, ok := s.ContextFloat("missing"); ok {
		t.Error("missing key should report false")
	}
	if _, ok := s.ContextString("empty"); ok {
		t.Error("empty string should report false")
	}
	if s.Culture() != "ja" {
		t.Errorf("expected culture ja, got %q", s.Culture())
	}
	if (PhenomenalScene{}).Culture() != "default" {
		t.Error("expected default culture for empty context")
	}
}

// #endregion context-tests

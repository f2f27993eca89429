package glyph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeKey_Aliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aka:vigilance", KeyVigilance},
		{"AKA:VIGILANCE", KeyVigilance},
		{"aka_vigilance", KeyVigilance},
		{"vigilance", KeyVigilance},
		{"vigi\u200blance", KeyVigilance},
		{"aka:red-threshold", KeyRedThreshold},
		{"aka:RED_THRESHOLD", KeyRedThreshold},
		{"aka:threshold_red", KeyRedThreshold},
		{"aka: red  threshold ", KeyRedThreshold},
		{"redthreshold", KeyRedThreshold},
		{"akaredthreshold", KeyRedThreshold},
		{"aka:avoid-approach", KeyApproachAvoid},
		{"Approach Avoid", KeyApproachAvoid},
		{"approach-avoidance", KeyApproachAvoid},
		{"aka.grounding.hint", KeyGroundingHint},
		{"HintGrounding", KeyGroundingHint},
		{"aka:soothe_anchor", KeySootheAnchor},
		{"Soothe-Anchor", KeySootheAnchor},
		{"aka:anchorsoothe", KeySootheAnchor},
		{"aka:vigilant", KeyVigilance},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeKey(tt.in); got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeKey_UnknownPassesThrough(t *testing.T) {
	for _, k := range []string{"aka:unknown", "custom:vigilance", "aka", "", "???", "mesh/red_threshold_v2"} {
		if got := NormalizeKey(k); got != k {
			t.Errorf("NormalizeKey(%q) = %q, want unchanged", k, got)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := []Glyph{
		{Key: "AKA:RED_THRESHOLD", Attrs: map[string]any{"arousal": 0.9}},
		{Key: "aka:soothe-anchor", Attrs: map[string]any{"tone": 0.4}},
		{Key: "x:other", Attrs: nil},
	}
	once := Normalize(in)
	twice := Normalize(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("normalize not idempotent (-once +twice):\n%s", diff)
	}
	want := []string{KeyRedThreshold, KeySootheAnchor, "x:other"}
	if diff := cmp.Diff(want, KeysOf(once)); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_AttrsUntouched(t *testing.T) {
	in := []Glyph{{Key: "Vigilance", Attrs: map[string]any{"arousal": 0.7, "risk_severity": "high"}}}
	out := Normalize(in)
	if diff := cmp.Diff(in[0].Attrs, out[0].Attrs); diff != "" {
		t.Fatalf("attrs changed (-in +out):\n%s", diff)
	}
	out[0].Attrs["arousal"] = 0.1
	if in[0].Attrs["arousal"] != 0.7 {
		t.Error("normalized glyph shares attrs map with input")
	}
	if in[0].Key != "Vigilance" {
		t.Error("input key mutated")
	}
}

func TestNormalize_ClassifierOutputIsFixedPoint(t *testing.T) {
	glyphs := Classify(threatScene())
	if diff := cmp.Diff(glyphs, Normalize(glyphs)); diff != "" {
		t.Fatalf("canonical output changed by normalize (-classify +normalize):\n%s", diff)
	}
}

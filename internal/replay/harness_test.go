package replay

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// helper: a scene that fires vigilance, red_threshold and grounding_hint.
func threatCase(name string) Case {
	return Case{
		Name: name,
		Scene: qualia.PhenomenalScene{
			Proto: qualia.ProtoQualia{
				Tone: -0.6, Arousal: 0.9, Clarity: 0.5, Embodiment: 0.6, Colorfield: "aka/red",
				TemporalFeel: qualia.TemporalUrgent, AgencyFeel: qualia.AgencyForced, NarrativeGravity: 0.8,
			},
			Risk: qualia.RiskProfile{Score: 0.8, Severity: qualia.SeverityHigh},
		},
	}
}

func ptr[T any](v T) *T { return &v }

// #region replay-tests

func TestReplay_MismatchReported(t *testing.T) {
	c := threatCase("wrong-expectations")
	c.Expect = &Expectation{
		Glyphs:        []string{glyph.KeySootheAnchor},
		Priority:      ptr(0.1),
		Dispatched:    ptr(0),
		ColorContrast: ptr(""),
	}

	results := Replay([]Case{c}, DefaultOptions())
	if len(results[0].Mismatches) != 4 {
		t.Errorf("expected 4 mismatches, got %v", results[0].Mismatches)
	}
	if results[0].Passed() {
		t.Error("expected case to fail")
	}
}

func TestReplay_NoExpectationPasses(t *testing.T) {
	results := Replay([]Case{threatCase("free")}, DefaultOptions())
	if !results[0].Passed() {
		t.Errorf("expected pass without expectations, got %v", results[0].Mismatches)
	}
}

func TestReplay_InvalidSceneIsError(t *testing.T) {
	c := threatCase("bad")
	c.Scene.Proto.Tone = -3
	results := Replay([]Case{c}, DefaultOptions())
	if results[0].Err == "" {
		t.Fatal("expected an error for out-of-range tone")
	}
	if s := Summarize(results); s.Errors != 1 || s.Passed != 0 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestReplay_TruncationOverride(t *testing.T) {
	opts := DefaultOptions()
	opts.Router.MaxGlyphsPerCall = 1
	results := Replay([]Case{threatCase("truncated")}, opts)
	if results[0].Dispatched != 1 {
		t.Errorf("expected 1 dispatched, got %d", results[0].Dispatched)
	}
	if len(results[0].Glyphs) != 3 {
		t.Errorf("truncation must not touch classified glyphs, got %v", results[0].Glyphs)
	}
}

func TestReplay_Deterministic(t *testing.T) {
	cases := []Case{threatCase("a"), threatCase("b")}
	first := Replay(cases, DefaultOptions())
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(first, Replay(cases, DefaultOptions())); diff != "" {
			t.Fatalf("iteration %d drift (-want +got):\n%s", i, diff)
		}
	}
}

// #endregion replay-tests

// #region summary-tests

func TestSummarize(t *testing.T) {
	results := []CaseResult{
		{Name: "a", Glyphs: []string{glyph.KeyVigilance, glyph.KeyRedThreshold}, Priority: 0.8, RoutingWeight: 0.9, Dispatched: 2},
		{Name: "b", Glyphs: []string{glyph.KeyVigilance}, Priority: 0.4, RoutingWeight: 0.5, Dispatched: 1, Mismatches: []string{"x"}},
		{Name: "c", Err: "invalid"},
	}
	s := Summarize(results)

	want := Summary{
		TotalCases:        3,
		Passed:            1,
		Mismatched:        1,
		Errors:            1,
		Dispatched:        3,
		GlyphCounts:       map[string]int{glyph.KeyVigilance: 2, glyph.KeyRedThreshold: 1},
		MeanPriority:      0.6,
		MeanRoutingWeight: 0.7,
	}
	if diff := cmp.Diff(want, s, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.TotalCases != 0 || s.MeanPriority != 0 || len(s.GlyphCounts) != 0 {
		t.Errorf("unexpected empty summary: %+v", s)
	}
}

// #endregion summary-tests

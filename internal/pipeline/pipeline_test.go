package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/ledger"
	"github.com/danielpatrickdp/aka-qualia/internal/mesh"
	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
	"github.com/danielpatrickdp/aka-qualia/internal/router"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// #region helpers

func makeScene(mod func(*qualia.PhenomenalScene)) qualia.PhenomenalScene {
	s := qualia.PhenomenalScene{
		Proto: qualia.ProtoQualia{
			Tone: 0.1, Arousal: 0.4, Clarity: 0.6, Embodiment: 0.6, Colorfield: "gray",
			TemporalFeel: qualia.TemporalMundane, AgencyFeel: qualia.AgencyActive, NarrativeGravity: 0.3,
		},
		Risk:    qualia.RiskProfile{Score: 0.2, Severity: qualia.SeverityNone},
		Subject: "self",
		Object:  "door",
	}
	if mod != nil {
		mod(&s)
	}
	return s
}

func threatScene() qualia.PhenomenalScene {
	return makeScene(func(s *qualia.PhenomenalScene) {
		s.Proto.Arousal, s.Proto.Tone = 0.9, -0.6
		s.Proto.Colorfield = "aka/red"
		s.Proto.NarrativeGravity = 0.8
		s.Proto.Clarity = 0.5
		s.Proto.TemporalFeel = qualia.TemporalUrgent
		s.Risk = qualia.RiskProfile{Score: 0.8, Severity: qualia.SeverityHigh}
	})
}

func calmScene() qualia.PhenomenalScene {
	return makeScene(func(s *qualia.PhenomenalScene) {
		s.Proto.Tone, s.Proto.Arousal = 0.6, 0.2
		s.Proto.Colorfield = "blue"
		s.Risk = qualia.RiskProfile{Score: 0.1, Severity: qualia.SeverityNone}
	})
}

type failingConsumer struct{}

func (failingConsumer) Send(context.Context, mesh.Signal) error { return errors.New("mesh down") }

type fallbackHook struct{}

func (fallbackHook) ApplyPolicy(context.Context, qualia.PhenomenalScene, policy.RegulationPolicy) feedback.Hints {
	return feedback.FallbackHints()
}

// slowHook answers after a delay, or with fallback hints if its context was
// cancelled in the meantime.
type slowHook struct{ delay time.Duration }

func (h slowHook) ApplyPolicy(ctx context.Context, _ qualia.PhenomenalScene, pol policy.RegulationPolicy) feedback.Hints {
	time.Sleep(h.delay)
	if ctx.Err() != nil {
		return feedback.FallbackHints()
	}
	return feedback.Hints{Tempo: pol.Pace, Ops: []string{}, Source: feedback.SourceLocal}
}

func memLedger(t *testing.T) *ledger.Store {
	t.Helper()
	s, err := ledger.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// #endregion helpers

// #region process-tests

func TestProcess_ThreatScene(t *testing.T) {
	rec := router.NewRecordingRouter(router.DefaultConfig(), nil)
	p := New(Options{Router: rec})

	res, err := p.Process(context.Background(), threatScene())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !glyph.Has(res.Glyphs, glyph.KeyVigilance) || !glyph.Has(res.Glyphs, glyph.KeyRedThreshold) {
		t.Errorf("expected vigilance and red_threshold, got %v", glyph.KeysOf(res.Glyphs))
	}
	if math.Abs(res.Priority-0.8) > 1e-9 {
		t.Errorf("expected priority 0.8, got %v", res.Priority)
	}
	if res.RoutingWeight < res.Priority {
		t.Errorf("expected routing weight >= priority, got %v", res.RoutingWeight)
	}
	if math.Abs(res.Policy.Pace-1.43) > 1e-9 || !res.Policy.HasColorContrast() {
		t.Errorf("unexpected policy: %+v", res.Policy)
	}
	if res.Hints.Source != feedback.SourceLocal || res.Hints.Tempo != res.Policy.Pace {
		t.Errorf("unexpected hints: %+v", res.Hints)
	}
	if got := len(rec.Signals()); got != len(res.Glyphs) {
		t.Errorf("expected %d signals, got %d", len(res.Glyphs), got)
	}
	if res.RunID == "" || res.DispatchErr != nil {
		t.Errorf("unexpected run id %q / dispatch err %v", res.RunID, res.DispatchErr)
	}
}

func TestProcess_CalmSceneBelowThreshold(t *testing.T) {
	rec := router.NewRecordingRouter(router.DefaultConfig(), nil)
	p := New(Options{Router: rec})

	res, err := p.Process(context.Background(), calmScene())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if diff := cmp.Diff([]string{glyph.KeySootheAnchor}, glyph.KeysOf(res.Glyphs)); diff != "" {
		t.Errorf("glyph mismatch (-want +got):\n%s", diff)
	}
	if res.Priority >= 0.3 {
		t.Errorf("expected priority below 0.3, got %v", res.Priority)
	}
	if len(rec.Signals()) != 0 {
		t.Errorf("expected no signals, got %d", len(rec.Signals()))
	}
	if len(rec.Calls()) != 1 {
		t.Errorf("expected dispatch still called once, got %d", len(rec.Calls()))
	}
}

func TestProcess_RoutingContext(t *testing.T) {
	rec := router.NewRecordingRouter(router.DefaultConfig(), nil)
	res, _ := New(Options{Router: rec}).Process(context.Background(), threatScene())

	want := map[string]any{
		"run_id":        res.RunID,
		"subject":       "self",
		"object":        "door",
		"culture":       "default",
		"risk_severity": "high",
	}
	if diff := cmp.Diff(want, rec.Calls()[0].RoutingContext); diff != "" {
		t.Errorf("routing context mismatch (-want +got):\n%s", diff)
	}
}

func TestProcess_DefaultCulture(t *testing.T) {
	rec := router.NewRecordingRouter(router.DefaultConfig(), nil)
	p := New(Options{Router: rec, DefaultCulture: "ja"})

	scene := threatScene()
	scene.Context = map[string]any{"source": "dream-log"}
	if _, err := p.Process(context.Background(), scene); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := rec.Calls()[0].RoutingContext["culture"]; got != "ja" {
		t.Errorf("expected default culture ja, got %v", got)
	}
	if _, ok := scene.Context[qualia.ContextCulture]; ok {
		t.Error("caller context must not be mutated")
	}

	named := threatScene()
	named.Context = map[string]any{qualia.ContextCulture: "en"}
	if _, err := p.Process(context.Background(), named); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if got := rec.Calls()[1].RoutingContext["culture"]; got != "en" {
		t.Errorf("explicit culture must win, got %v", got)
	}
}

func TestProcess_InvalidScene(t *testing.T) {
	bad := makeScene(func(s *qualia.PhenomenalScene) { s.Proto.Arousal = 1.5 })
	_, err := New(Options{}).Process(context.Background(), bad)
	if !errors.Is(err, qualia.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestProcess_Deterministic(t *testing.T) {
	p := New(Options{})
	first, _ := p.Process(context.Background(), threatScene())
	for i := 0; i < 5; i++ {
		got, _ := p.Process(context.Background(), threatScene())
		if diff := cmp.Diff(first.Glyphs, got.Glyphs); diff != "" {
			t.Fatalf("iteration %d glyph mismatch (-want +got):\n%s", i, diff)
		}
		if got.Priority != first.Priority || got.RoutingWeight != first.RoutingWeight {
			t.Fatalf("iteration %d priority drift", i)
		}
	}
}

func TestProcess_WeightedPriority(t *testing.T) {
	// canonical 0.245 stays below threshold; vigilance and grounding lift it to ~0.34
	s := makeScene(func(s *qualia.PhenomenalScene) {
		s.Proto.Arousal, s.Proto.Tone = 0.65, -0.3
		s.Proto.Clarity = 0.3
		s.Proto.NarrativeGravity = 0.2
		s.Risk = qualia.RiskProfile{Score: 0.35, Severity: qualia.SeverityLow}
	})

	canonical := router.NewRecordingRouter(router.DefaultConfig(), nil)
	New(Options{Router: canonical}).Process(context.Background(), s)
	if len(canonical.Signals()) != 0 {
		t.Errorf("expected canonical priority to stay below threshold")
	}

	weighted := router.NewRecordingRouter(router.DefaultConfig(), nil)
	res, _ := New(Options{Router: weighted, WeightedPriority: true}).Process(context.Background(), s)
	if len(weighted.Signals()) == 0 {
		t.Errorf("expected weighted priority %v to dispatch", res.RoutingWeight)
	}
	if got := weighted.Calls()[0].Priority; got != res.RoutingWeight {
		t.Errorf("expected dispatch priority %v, got %v", res.RoutingWeight, got)
	}
}

// #endregion process-tests

// #region failure-tests

func TestProcess_DispatchErrorSurfaced(t *testing.T) {
	cfg := router.DefaultConfig()
	cfg.FallbackOnError = false
	store := memLedger(t)
	p := New(Options{Router: router.NewMeshRouter(cfg, failingConsumer{}, nil), Ledger: store})

	res, err := p.Process(context.Background(), threatScene())
	if err != nil {
		t.Fatalf("Process returned dispatch failure: %v", err)
	}
	var derr *router.DispatchError
	if !errors.As(res.DispatchErr, &derr) {
		t.Fatalf("expected *router.DispatchError, got %v", res.DispatchErr)
	}
	if res.Hints.Source != feedback.SourceLocal {
		t.Errorf("feedback should not be affected by dispatch failure, got %+v", res.Hints)
	}

	run, err := store.Get(res.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if run.DispatchError == "" {
		t.Error("expected dispatch error persisted")
	}
	events, _ := store.Events(res.RunID)
	if len(events) != 1 || events[0].Kind != ledger.EventDispatchFailed {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestProcess_DispatchErrorDoesNotCancelFeedback(t *testing.T) {
	cfg := router.DefaultConfig()
	cfg.FallbackOnError = false
	p := New(Options{
		Router:   router.NewMeshRouter(cfg, failingConsumer{}, nil),
		Feedback: slowHook{delay: 20 * time.Millisecond},
	})

	res, err := p.Process(context.Background(), threatScene())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.DispatchErr == nil {
		t.Fatal("expected dispatch error from the group")
	}
	if res.Hints.Source != feedback.SourceLocal {
		t.Errorf("feedback was cancelled by dispatch failure: %+v", res.Hints)
	}
}

func TestProcess_FeedbackFallbackLogged(t *testing.T) {
	store := memLedger(t)
	p := New(Options{Feedback: fallbackHook{}, Ledger: store})

	res, err := p.Process(context.Background(), calmScene())
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	events, _ := store.Events(res.RunID)
	if len(events) != 1 || events[0].Kind != ledger.EventFeedbackFallback {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestProcess_LedgerFailureNotReturned(t *testing.T) {
	store := memLedger(t)
	store.Close()
	p := New(Options{Ledger: store})

	if _, err := p.Process(context.Background(), calmScene()); err != nil {
		t.Errorf("expected ledger failure to be swallowed, got %v", err)
	}
}

func TestProcess_LedgerRoundTrip(t *testing.T) {
	store := memLedger(t)
	p := New(Options{Ledger: store})

	res, _ := p.Process(context.Background(), threatScene())
	run, err := store.Get(res.RunID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(glyph.KeysOf(res.Glyphs), glyph.KeysOf(run.Glyphs)); diff != "" {
		t.Errorf("glyph keys mismatch (-want +got):\n%s", diff)
	}
	if run.Priority != res.Priority || run.Hints.Tempo != res.Hints.Tempo {
		t.Errorf("stored run differs: %+v", run)
	}
}

// #endregion failure-tests

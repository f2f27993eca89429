package pipeline

// #region imports
import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/ledger"
	"github.com/danielpatrickdp/aka-qualia/internal/palette"
	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/priority"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
	"github.com/danielpatrickdp/aka-qualia/internal/router"
)

// #endregion

// #region options

// Options wires the pipeline's collaborators. Every field is optional.
type Options struct {
	Router   router.Router   // nil: recording router with default config
	Feedback feedback.Hook   // nil: local hook
	Palette  *palette.Mapper // nil: palette.Default()
	Ledger   *ledger.Store   // nil: runs are not persisted
	Logger   *zap.Logger

	// WeightedPriority dispatches with the glyph-weighted routing weight
	// instead of the canonical priority. The weighted value is not monotonic
	// in its inputs once glyph boosts apply.
	WeightedPriority bool

	// DefaultCulture is set as the scene's culture when its context names
	// none. Empty leaves scenes untouched.
	DefaultCulture string
}

// #endregion

// #region result

// Result aggregates every stage output for one scene.
type Result struct {
	RunID         string                  `json:"run_id"`
	Glyphs        []glyph.Glyph           `json:"glyphs"`
	Priority      float64                 `json:"priority"`
	RoutingWeight float64                 `json:"routing_weight"`
	Policy        policy.RegulationPolicy `json:"policy"`
	Hints         feedback.Hints          `json:"hints"`
	DispatchErr   error                   `json:"-"`
}

// #endregion

// #region pipeline-struct

// Pipeline runs classification, priority and policy, then dispatch and
// feedback concurrently.
type Pipeline struct {
	classifier *glyph.Classifier
	policies   *policy.Generator
	router     router.Router
	hook       feedback.Hook
	ledger     *ledger.Store
	logger     *zap.Logger
	weighted   bool
	culture    string
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mapper := opts.Palette
	if mapper == nil {
		mapper = palette.Default()
	}
	r := opts.Router
	if r == nil {
		r = router.NewRecordingRouter(router.DefaultConfig(), logger)
	}
	hook := opts.Feedback
	if hook == nil {
		hook = feedback.NewLocalHook(mapper)
	}
	return &Pipeline{
		classifier: glyph.NewClassifier(mapper),
		policies:   policy.NewGenerator(mapper),
		router:     r,
		hook:       hook,
		ledger:     opts.Ledger,
		logger:     logger.Named("pipeline"),
		weighted:   opts.WeightedPriority,
		culture:    opts.DefaultCulture,
	}
}

// Router returns the router used for dispatch.
func (p *Pipeline) Router() router.Router { return p.router }

// #endregion

// #region process

// Process runs every stage for scene. The only error is an invalid scene;
// dispatch failures surface in Result.DispatchErr and feedback failures as
// fallback hints.
func (p *Pipeline) Process(ctx context.Context, scene qualia.PhenomenalScene) (Result, error) {
	if err := scene.Validate(); err != nil {
		return Result{}, fmt.Errorf("process scene: %w", err)
	}

	scene = p.withCulture(scene)
	res := Result{RunID: uuid.New().String()}

	// Pure stages.
	res.Glyphs = glyph.Normalize(p.classifier.Classify(scene))
	res.Priority = priority.Compute(scene)
	res.RoutingWeight = priority.Weighted(scene, res.Glyphs)
	res.Policy = p.policies.Generate(scene)

	dispatchPriority := res.Priority
	if p.weighted {
		dispatchPriority = res.RoutingWeight
	}

	// I/O stages. The group has no shared context, so a dispatch error never
	// cancels feedback. Feedback degrades to fallback hints and never errors.
	var g errgroup.Group
	g.Go(func() error {
		return p.router.Dispatch(ctx, res.Glyphs, dispatchPriority, routingContext(res.RunID, scene))
	})
	g.Go(func() error {
		res.Hints = p.hook.ApplyPolicy(ctx, scene, res.Policy)
		return nil
	})
	res.DispatchErr = g.Wait()

	p.logger.Debug("scene processed",
		zap.String("run_id", res.RunID),
		zap.Strings("glyphs", glyph.KeysOf(res.Glyphs)),
		zap.Float64("priority", res.Priority),
		zap.Float64("routing_weight", res.RoutingWeight),
		zap.String("hints_source", res.Hints.Source),
	)

	if p.ledger != nil {
		p.record(scene, res)
	}
	return res, nil
}

// withCulture returns scene with the default culture filled in. The caller's
// context map is never mutated.
func (p *Pipeline) withCulture(scene qualia.PhenomenalScene) qualia.PhenomenalScene {
	if p.culture == "" {
		return scene
	}
	if _, ok := scene.ContextString(qualia.ContextCulture); ok {
		return scene
	}
	ctx := make(map[string]any, len(scene.Context)+1)
	for k, v := range scene.Context {
		ctx[k] = v
	}
	ctx[qualia.ContextCulture] = p.culture
	scene.Context = ctx
	return scene
}

func routingContext(runID string, scene qualia.PhenomenalScene) map[string]any {
	return map[string]any{
		"run_id":        runID,
		"subject":       scene.Subject,
		"object":        scene.Object,
		"culture":       scene.Culture(),
		"risk_severity": string(scene.Risk.Severity),
	}
}

// #endregion

// #region record

// record persists the run. Failures are logged, never returned.
func (p *Pipeline) record(scene qualia.PhenomenalScene, res Result) {
	run := ledger.Run{
		RunID:         res.RunID,
		Scene:         scene,
		Glyphs:        res.Glyphs,
		Priority:      res.Priority,
		RoutingWeight: res.RoutingWeight,
		Policy:        res.Policy,
		Hints:         res.Hints,
	}
	if res.DispatchErr != nil {
		run.DispatchError = res.DispatchErr.Error()
	}
	if _, err := p.ledger.Record(run); err != nil {
		p.logger.Warn("ledger record failed", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}

	var events []ledger.Event
	if res.DispatchErr != nil {
		events = append(events, ledger.Event{RunID: res.RunID, Kind: ledger.EventDispatchFailed, Detail: res.DispatchErr.Error()})
	}
	if res.Hints.Source == feedback.SourceFallback {
		events = append(events, ledger.Event{RunID: res.RunID, Kind: ledger.EventFeedbackFallback})
	}
	for _, ev := range events {
		if err := p.ledger.LogEvent(ev); err != nil {
			p.logger.Warn("ledger event failed", zap.String("run_id", res.RunID), zap.String("kind", ev.Kind), zap.Error(err))
		}
	}
}

// #endregion

package ledger

import (
	"errors"
	"time"

	"github.com/danielpatrickdp/aka-qualia/internal/feedback"
	"github.com/danielpatrickdp/aka-qualia/internal/glyph"
	"github.com/danielpatrickdp/aka-qualia/internal/policy"
	"github.com/danielpatrickdp/aka-qualia/internal/qualia"
)

// #region run
// Run is one processed scene with every stage output.
type Run struct {
	RunID         string                  `json:"run_id"`
	Scene         qualia.PhenomenalScene  `json:"scene"`
	Glyphs        []glyph.Glyph           `json:"glyphs"`
	Priority      float64                 `json:"priority"`
	RoutingWeight float64                 `json:"routing_weight"`
	Policy        policy.RegulationPolicy `json:"policy"`
	Hints         feedback.Hints          `json:"hints"`
	DispatchError string                  `json:"dispatch_error,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}
// #endregion run

// #region event
// Event kinds written by the pipeline.
const (
	EventDispatchFailed   = "dispatch_failed"
	EventFeedbackFallback = "feedback_fallback"
)

// Event is a single row in the run_events table.
type Event struct {
	RunID     string
	Kind      string
	Detail    string
	CreatedAt time.Time
}
// #endregion event

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Package planner defines the shared Planner trait every planning
// algorithm (potential-field, A*/sampling, BIT*) implements, plus the
// Stats result type and the error kinds planners and the Executive share.
package planner

import (
	"time"

	"github.com/pkg/errors"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// ErrPlanFailure is returned (non-fatally) when a planner exhausts its
// budget without finding any solution; it still returns Stats with an empty
// Plan rather than propagating an error in most call sites, but the
// sentinel is available for callers that want to distinguish "no plan"
// from "crashed".
var ErrPlanFailure = errors.New("planner: exhausted budget with no plan")

// Stats is the result of one Plan call.
type Stats struct {
	Plan       dubins.Plan
	Samples    []dubins.State
	Generated  int // vertices/candidates generated
	Expanded   int // vertices expanded/popped from the open set
	Iterations int
	FinalCost  float64
}

// Planner is the single shared entry point every planning algorithm
// implements. Implementations must return within budget of wall time (a
// hard bound); anytime planners track remaining time internally and return
// their best incumbent rather than overrunning. If no solution is found,
// Stats.Plan.Empty() is true.
type Planner interface {
	Plan(
		ribbons *ribbon.Manager,
		start dubins.State,
		cfg config.Config,
		previous dubins.Plan,
		budget time.Duration,
		dynObs obstacle.DynamicObstaclesManager,
	) Stats
}

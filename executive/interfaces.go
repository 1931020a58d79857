package executive

import (
	"time"

	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// Controller is the downstream model-predictive controller: it receives a
// plan and the ideal planning period, and reports the vehicle state at which
// the next plan must begin. It is external to this module; callers supply a
// concrete implementation wired to the transport layer.
type Controller interface {
	PublishPlan(plan dubins.Plan, planningTimeIdeal time.Duration) (dubins.State, error)
}

// Publisher is the visualisation/telemetry sink. Every method is
// best-effort: the Executive never fails a cycle because a publish call
// errors, and implementations are expected to log their own failures.
type Publisher interface {
	PublishStats(stats planner.Stats, collisionPenalty float64, lastPlanAchievable bool)
	PublishTaskLevelStats(wallClock time.Duration, cumulativeCollisionPenalty, totalPenalty, uncoveredLength float64)
	DisplayTrajectory(samples []dubins.State, clearPrevious, dangerous bool)
	DisplayRibbons(ribbons []ribbon.Ribbon)
	AllDone()
}

// NoopPublisher discards every call; useful as a default when no
// visualisation sink is wired.
type NoopPublisher struct{}

func (NoopPublisher) PublishStats(planner.Stats, float64, bool) {}

func (NoopPublisher) PublishTaskLevelStats(time.Duration, float64, float64, float64) {}

func (NoopPublisher) DisplayTrajectory([]dubins.State, bool, bool) {}

func (NoopPublisher) DisplayRibbons([]ribbon.Ribbon) {}

func (NoopPublisher) AllDone() {}

var _ Publisher = NoopPublisher{}

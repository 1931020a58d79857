// Package executive implements the real-time replanning loop: it repeatedly
// invokes a planner under a wall-clock budget, maintains ribbon coverage
// state, splices old and new plans at the vehicle's projected future
// position, and exchanges plans with a downstream trajectory controller.
package executive

import (
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/utils"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/planner/astar"
	"github.com/CCOMJHC/alex-path-planner/planner/bitstar"
	"github.com/CCOMJHC/alex-path-planner/planner/potentialfield"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// planningTimeOverhead is subtracted from the ideal planning period to get
// the actual budget handed to the planner, covering fixed bookkeeping cost
// (snapshotting, publishing, sleeping) the Executive itself incurs.
const planningTimeOverhead = 100 * time.Millisecond

// radiusShrinkStep/radiusShrinkMax bound the cumulative turning-radius
// shrink applied each cycle (protocol step 8); the shrink resets to zero
// whenever a plan is dropped as not achieved (step 14).
const (
	radiusShrinkStep = 0.5
	radiusShrinkMax  = 3.0
)

// consecutiveFailureLimit is how many back-to-back empty plans trigger a
// timeHorizon halving (protocol step 15).
const consecutiveFailureLimit = 2

// deviationTolerance bounds how far the controller's reported state may sit
// from the plan's sampled state at the same time before the plan is judged
// undriven and dropped (protocol step 14).
const deviationTolerance = 1.0 // metres

// collisionPenaltyWeight and timePenaltyFactor scale the task-level stats
// publication on exit.
const (
	collisionPenaltyWeight = 1.0
	timePenaltyFactor      = 0.1
)

// ribbonMinLength is the uncovered remainder, in metres, below which a
// ribbon counts as finished; residues shorter than this are survey noise,
// not work worth a manoeuvre.
const ribbonMinLength = 1.0

// Executive owns the authoritative ribbon manager, dynamic-obstacle
// managers, map handle and last vehicle state, and drives the replanning
// loop. Planners and the controller never see shared state directly: every
// cycle snapshots under lock and releases before calling out.
type Executive struct {
	logger golog.Logger
	clock  clock.Clock

	controller Controller
	publisher  Publisher
	mapLoader  *obstacle.Loader

	planners map[config.WhichPlanner]planner.Planner

	stateMu sync.Mutex
	stateCV *sync.Cond
	state   PlannerState
	// stateFlag mirrors state for State(), so a status read never contends
	// with a transition holding stateMu.
	stateFlag atomic.Int32

	ribbonsMu sync.Mutex
	ribbons   *ribbon.Manager

	mapMu  sync.Mutex
	mapRef *obstacle.Map

	obsMu    sync.Mutex
	binary   *obstacle.BinaryDynamicObstaclesManager
	gaussian *obstacle.GaussianDynamicObstaclesManager

	lastStateMu sync.Mutex
	lastState   dubins.State

	cfgMu sync.Mutex
	cfg   config.Config

	// cycle-to-cycle bookkeeping, touched only by the worker goroutine.
	previousPlan       dubins.Plan
	pendingStartState  *dubins.State // nil == no continuation state (sentinel)
	lastPlanAchievable bool
	failureCount       int
	radiusShrink       float64

	collisions  collisionStats
	trialStart  time.Time
	trialCycles int
}

// New constructs an Executive in the Inactive state with the default
// planner set (potential-field, A*, BIT*). mapLoader may be nil if no Loader
// watches a map file; RefreshMap loads from disk without it.
func New(logger golog.Logger, clk clock.Clock, controller Controller, publisher Publisher, mapLoader *obstacle.Loader) *Executive {
	if clk == nil {
		clk = clock.New()
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if logger == nil {
		logger = golog.NewDevelopmentLogger("executive")
	}
	cfg := config.Default()
	e := &Executive{
		logger:     logger,
		clock:      clk,
		controller: controller,
		publisher:  publisher,
		mapLoader:  mapLoader,
		ribbons:    ribbon.NewManager(heuristicKind(cfg.Heuristic), cfg.K, cfg.CoverageTurningRadius),
		binary:     obstacle.NewBinaryDynamicObstaclesManager(),
		gaussian:   &obstacle.GaussianDynamicObstaclesManager{},
		mapRef:     obstacle.EmptyMap(),
		cfg:        cfg,
		planners: map[config.WhichPlanner]planner.Planner{
			config.PotentialField: potentialfield.New(),
			config.AStar:          astar.New(),
			config.BitStar:        bitstar.New(),
		},
	}
	e.stateCV = sync.NewCond(&e.stateMu)
	return e
}

// Ribbons returns the manager instance the Executive mutates under
// ribbonsMu; callers (the transport layer) must not retain unguarded
// references into its Ribbons slice.
func (e *Executive) Ribbons() *ribbon.Manager { return e.ribbons }

// AddRibbon appends a ribbon to the coverage set. The coverage width comes
// from the configured lineWidth; the inbound event carries endpoints only.
func (e *Executive) AddRibbon(x1, y1, x2, y2 float64) {
	width := e.snapshotConfig().LineWidth
	e.ribbonsMu.Lock()
	defer e.ribbonsMu.Unlock()
	e.ribbons.Add(x1, y1, x2, y2, width, ribbonMinLength)
}

// ClearRibbons removes every ribbon.
func (e *Executive) ClearRibbons() {
	e.ribbonsMu.Lock()
	defer e.ribbonsMu.Unlock()
	e.ribbons.Clear()
}

// UpdateCovered marks coverage along the chord from the last known vehicle
// pose to (x,y), then records the new pose as last-known.
func (e *Executive) UpdateCovered(x, y, heading, speed, t float64) {
	e.lastStateMu.Lock()
	prev := e.lastState
	e.lastState = dubins.State{X: x, Y: y, Heading: heading, Speed: speed, Time: t}
	e.lastStateMu.Unlock()

	e.ribbonsMu.Lock()
	defer e.ribbonsMu.Unlock()
	e.ribbons.CoverBetween(prev.X, prev.Y, x, y, false)
}

// UpdateDynamicObstacleBinary upserts a binary obstacle observation.
func (e *Executive) UpdateDynamicObstacleBinary(o obstacle.BinaryObstacle) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.binary.Update(o)
}

// UpdateDynamicObstacleGaussian upserts a Gaussian obstacle observation.
func (e *Executive) UpdateDynamicObstacleGaussian(o obstacle.GaussianObstacle) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.gaussian.Update(o)
}

// SetMap installs a map handle directly (inbound setMap event).
func (e *Executive) SetMap(m *obstacle.Map) {
	e.mapMu.Lock()
	defer e.mapMu.Unlock()
	e.mapRef = m
}

// RefreshMap spawns a detached load of the map at path, georeferenced by
// lat/lon, and installs the result once parsed. Load failures leave the
// current map unchanged.
func (e *Executive) RefreshMap(path string, lat, lon float64) {
	utils.PanicCapturingGo(func() {
		m, err := obstacle.LoadMap(path, lat, lon, 1)
		if err != nil {
			e.logger.Warnw("map refresh failed, keeping previous map", "path", path, "error", err)
			return
		}
		e.SetMap(m)
	})
}

// SetConfiguration decodes raw into the active configuration and pushes the
// ribbon-facing settings (heuristic kind, K, coverage radius, line width)
// through to the master ribbon manager.
func (e *Executive) SetConfiguration(raw map[string]interface{}) error {
	e.cfgMu.Lock()
	cfg, err := config.Decode(e.cfg, raw)
	if err != nil {
		e.cfgMu.Unlock()
		return err
	}
	e.cfg = cfg
	e.cfgMu.Unlock()

	e.ribbonsMu.Lock()
	defer e.ribbonsMu.Unlock()
	e.ribbons.Heuristic = heuristicKind(cfg.Heuristic)
	e.ribbons.K = cfg.K
	e.ribbons.DefaultRadius = cfg.CoverageTurningRadius
	e.ribbons.SetWidth(cfg.LineWidth)
	return nil
}

// heuristicKind maps the wire heuristic key (0..4) onto a
// ribbon.HeuristicKind, falling back to MaxDistance for out-of-range values.
func heuristicKind(v int) ribbon.HeuristicKind {
	if v < int(ribbon.MaxDistance) || v > int(ribbon.TspDubinsNoSplitKRibbons) {
		return ribbon.MaxDistance
	}
	return ribbon.HeuristicKind(v)
}

// SetPlanningTime overrides the planner search horizon (config's
// timeHorizon key) directly, without going through SetConfiguration.
func (e *Executive) SetPlanningTime(seconds float64) {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	e.cfg.TimeHorizon = seconds
}

// State returns the current lifecycle state. Lock-free: callers polling
// status (e.g. a UI refresh loop) never contend with a cycle's transitions.
func (e *Executive) State() PlannerState {
	return PlannerState(e.stateFlag.Load())
}

// setState must be called with stateMu held; it keeps stateFlag in sync with
// state for lock-free reads via State().
func (e *Executive) setState(s PlannerState) {
	e.state = s
	e.stateFlag.Store(int32(s))
}

// StartPlanner transitions Inactive->Running and spawns the worker.
// Double-start while already Running is a no-op. If called while Cancelled,
// it waits up to cancelDrainTimeout for the worker to reach Inactive; on
// timeout it refuses to start.
func (e *Executive) StartPlanner() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	switch e.state {
	case Running:
		return nil
	case Cancelled:
		// Poll rather than block on the condition variable directly: the
		// clock may be a mock in tests, and a plain Cond.Wait would never
		// observe a simulated deadline.
		deadline := e.clock.Now().Add(cancelDrainTimeout)
		for e.state == Cancelled {
			if e.clock.Now().After(deadline) {
				return ErrCancelTimeout
			}
			e.stateMu.Unlock()
			e.clock.Sleep(10 * time.Millisecond)
			e.stateMu.Lock()
		}
	}

	e.setState(Running)
	e.trialStart = e.clock.Now()
	e.trialCycles = 0
	e.collisions = collisionStats{}
	utils.PanicCapturingGo(e.run)
	return nil
}

// CancelPlanner transitions Running->Cancelled; a no-op otherwise.
func (e *Executive) CancelPlanner() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state == Running {
		e.setState(Cancelled)
	}
}

// Terminate cancels the planner and waits (best-effort, bounded) for it to
// reach Inactive.
func (e *Executive) Terminate() {
	e.CancelPlanner()
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	deadline := e.clock.Now().Add(cancelDrainTimeout)
	for e.state != Inactive && e.clock.Now().Before(deadline) {
		e.stateMu.Unlock()
		e.clock.Sleep(10 * time.Millisecond)
		e.stateMu.Lock()
	}
}

// run is the long-lived worker goroutine: protocol steps 1-15, cycling
// until cancelled or the mission completes. Any panic escaping a cycle
// (other than a planner's own panic, which invokePlanner already recovers
// as an empty plan) transitions the Executive to Inactive before
// re-raising, so the loop never gets stuck mid-cycle and StartPlanner can
// still be called again afterward.
func (e *Executive) run() {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorw("planning worker panicked", "err", ErrUnknownFatal, "recovered", r)
			e.stateMu.Lock()
			e.setState(Inactive)
			e.stateCV.Broadcast()
			e.stateMu.Unlock()
			panic(r)
		}
	}()
	for {
		e.stateMu.Lock()
		if e.state == Cancelled {
			e.setState(Inactive)
			e.stateCV.Broadcast()
			e.stateMu.Unlock()
			e.publishTaskLevelStats()
			return
		}
		e.stateMu.Unlock()

		if e.runCycle() {
			e.stateMu.Lock()
			e.setState(Inactive)
			e.stateCV.Broadcast()
			e.stateMu.Unlock()
			e.publishTaskLevelStats()
			return
		}
	}
}

// runCycle executes one iteration of the per-cycle protocol:
//
//	 1. record the cycle start time
//	 2. bail out if cancelled
//	 3. stop with AllDone once every ribbon is covered
//	 4. publish a ribbon snapshot for display (best-effort)
//	 5. derive the start state: the controller's continuation state if one
//	    exists, else the last known vehicle state pushed one period ahead
//	 6. try-acquire a freshly loaded map; warn (but continue) if the start
//	    state sits in a blocked cell
//	 7. splice the retained plan into a suffix at the start time, or clear
//	    it when plan reuse is disabled
//	 8. shrink the turning radii by a bounded cumulative step
//	 9. record the instantaneous collision penalty at the last known state
//	10. deep-clone ribbons/obstacles/map and attribute the projected
//	    covered strip on the clone
//	11. invoke the planner with the remaining budget (skipped for BIT*
//	    holding a non-empty plan)
//	12. publish stats, then sleep out the remainder of the period
//	13. publish half-second display samples
//	14. hand the plan to the controller; drop it if the reported state has
//	    deviated from it, else retain it as next cycle's seed
//	15. on an empty plan, count the failure and halve the time horizon
//	    after too many in a row
//
// It returns true if the worker should stop (mission complete).
func (e *Executive) runCycle() bool {
	cycleStart := e.clock.Now()
	e.trialCycles++
	cycleID := uuid.New()

	e.stateMu.Lock()
	cancelled := e.state == Cancelled
	e.stateMu.Unlock()
	if cancelled {
		return false // run() re-checks and exits cleanly on next loop
	}

	e.ribbonsMu.Lock()
	done := e.ribbons.Done()
	e.ribbonsMu.Unlock()
	if done {
		e.publisher.AllDone()
		return true
	}

	e.ribbonsMu.Lock()
	e.publisher.DisplayRibbons(append([]ribbon.Ribbon(nil), e.ribbons.Ribbons...))
	e.ribbonsMu.Unlock()

	cfg := e.snapshotConfig()
	ideal := time.Duration(cfg.TimeHorizon * float64(time.Second))
	if ideal <= 0 {
		ideal = 60 * time.Second
	}

	startState := e.deriveStartState(ideal)

	if newMap, ok := e.tryAcquireMap(); ok {
		e.mapMu.Lock()
		e.mapRef = newMap
		e.mapMu.Unlock()
	}
	e.mapMu.Lock()
	mapRef := e.mapRef
	e.mapMu.Unlock()
	if mapRef != nil && mapRef.IsBlocked(startState.X, startState.Y) {
		e.logger.Warnw("derived start state lies in a blocked cell; continuing anyway", "cycleID", cycleID, "x", startState.X, "y", startState.Y)
	}

	if cfg.DisablePlanReuse {
		e.previousPlan = dubins.Plan{}
	} else {
		e.previousPlan.ChangeIntoSuffix(startState.Time)
	}

	cfg = e.applyRadiusShrink(cfg)

	activeObs := e.activeObstacleManager(cfg)
	e.lastStateMu.Lock()
	lastKnown := e.lastState
	e.lastStateMu.Unlock()
	if activeObs != nil {
		penalty := activeObs.CollisionCost(lastKnown.X, lastKnown.Y, lastKnown.Time, false)
		e.collisions.add(penalty)
	}

	ribbonsSnapshot, obsSnapshot, mapSnapshot := e.snapshotForPlanning(cfg)
	ribbonsSnapshot.CoverBetween(lastKnown.X, lastKnown.Y, startState.X, startState.Y, false)
	cfg.Map = mapSnapshot
	cfg.Logger = e.logger

	remainingBudget := ideal - planningTimeOverhead - e.clock.Now().Sub(cycleStart)
	if remainingBudget < 0 {
		remainingBudget = 0
	}

	var stats planner.Stats
	skip := shouldSkipPlanning(cfg, e.previousPlan)
	if !skip {
		stats = e.invokePlanner(cfg, ribbonsSnapshot, startState, obsSnapshot, remainingBudget)
	} else {
		stats.Plan = e.previousPlan
	}

	e.publisher.PublishStats(stats, e.lastCollisionPenalty(), e.lastPlanAchievable)

	sleepUntil := cycleStart.Add(ideal - planningTimeOverhead)
	if d := sleepUntil.Sub(e.clock.Now()); d > 0 {
		e.clock.Sleep(d)
	}

	e.publisher.DisplayTrajectory(stats.Plan.HalfSecondSamples(), true, stats.Plan.Dangerous)

	if !stats.Plan.Empty() {
		e.failureCount = 0
		next, err := e.controller.PublishPlan(stats.Plan, ideal)
		if err != nil {
			e.logger.Errorw("cancelling planner", "cycleID", cycleID, "err", errors.Wrap(err, ErrControllerUnreachable.Error()))
			e.CancelPlanner()
			return false
		}
		sampled, err := stats.Plan.Sample(next.Time)
		achieved := err == nil && dist(sampled, next) <= deviationTolerance
		if achieved {
			e.previousPlan = stats.Plan
			e.lastPlanAchievable = true
		} else {
			e.previousPlan = dubins.Plan{}
			e.lastPlanAchievable = false
			e.radiusShrink = 0
		}
		e.pendingStartState = &next
	} else {
		e.failureCount++
		e.pendingStartState = nil
		e.logger.Debugw("cycle produced no plan", "cycleID", cycleID, "err", planner.ErrPlanFailure, "consecutiveFailures", e.failureCount)
		if e.failureCount > consecutiveFailureLimit {
			e.cfgMu.Lock()
			e.cfg.TimeHorizon = backOffTimeHorizon(e.cfg.TimeHorizon, e.cfg.TimeMinimum)
			e.cfgMu.Unlock()
			e.failureCount = 0
		}
	}

	return false
}

func dist(a, b dubins.State) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// shouldSkipPlanning implements protocol step 11's BIT*-specific carve-out:
// BIT* plans once to a goal pose rather than pursuing ribbon coverage
// directly, so once it holds a non-empty plan there is nothing to gain by
// replanning every cycle.
func shouldSkipPlanning(cfg config.Config, previous dubins.Plan) bool {
	return cfg.WhichPlanner == config.BitStar && !previous.Empty()
}

// backOffTimeHorizon implements protocol step 15: halve the horizon, clamped
// at the configured minimum.
func backOffTimeHorizon(horizon, minimum float64) float64 {
	horizon /= 2
	if horizon < minimum {
		horizon = minimum
	}
	return horizon
}

func (e *Executive) snapshotConfig() config.Config {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	return e.cfg
}

// deriveStartState implements protocol step 5: if a continuation state was
// left by the previous cycle, use it; otherwise extrapolate the last known
// vehicle state forward by the planning period.
func (e *Executive) deriveStartState(ideal time.Duration) dubins.State {
	if e.pendingStartState != nil {
		s := *e.pendingStartState
		e.pendingStartState = nil
		return s
	}
	e.lastStateMu.Lock()
	last := e.lastState
	e.lastStateMu.Unlock()
	dt := ideal.Seconds() - planningTimeOverhead.Seconds()
	if dt < 0 {
		dt = 0
	}
	return last.Push(dt)
}

func (e *Executive) tryAcquireMap() (*obstacle.Map, bool) {
	if e.mapLoader == nil {
		return nil, false
	}
	return e.mapLoader.TryAcquire()
}

// applyRadiusShrink implements protocol step 8: grow the cumulative shrink by
// one step (up to radiusShrinkMax) and take it off both turning radii,
// floored at 1. runCycle resets the shrink when a plan is not achieved.
func (e *Executive) applyRadiusShrink(cfg config.Config) config.Config {
	if e.radiusShrink < radiusShrinkMax {
		e.radiusShrink += radiusShrinkStep
	}
	cfg.TurningRadius -= e.radiusShrink
	cfg.CoverageTurningRadius -= e.radiusShrink
	if cfg.TurningRadius < 1 {
		cfg.TurningRadius = 1
	}
	if cfg.CoverageTurningRadius < 1 {
		cfg.CoverageTurningRadius = 1
	}
	return cfg
}

// activeObstacleManager returns a deep-cloned snapshot of whichever obstacle
// manager is active, so the instantaneous collision-penalty read (step 9)
// never races a concurrent transport-thread Update.
func (e *Executive) activeObstacleManager(cfg config.Config) obstacle.DynamicObstaclesManager {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	if cfg.UseGaussianDynamicObstacles {
		return e.gaussian.Clone()
	}
	return e.binary.Clone()
}

// snapshotForPlanning implements protocol step 10: deep-clone the ribbon
// manager, the active obstacle manager, and the map handle, so the planner
// never observes torn shared state.
func (e *Executive) snapshotForPlanning(cfg config.Config) (*ribbon.Manager, obstacle.DynamicObstaclesManager, *obstacle.Map) {
	e.ribbonsMu.Lock()
	ribbonsSnapshot := e.ribbons.Clone()
	e.ribbonsMu.Unlock()
	// cfg here is the cycle's own copy, radius shrink already applied, so
	// the heuristic sees the same turning radius the planner will use.
	ribbonsSnapshot.Heuristic = heuristicKind(cfg.Heuristic)
	ribbonsSnapshot.K = cfg.K
	ribbonsSnapshot.DefaultRadius = cfg.CoverageTurningRadius

	e.obsMu.Lock()
	var obsSnapshot obstacle.DynamicObstaclesManager
	if cfg.UseGaussianDynamicObstacles {
		obsSnapshot = e.gaussian.Clone()
	} else if !cfg.IgnoreDynamicObstacles {
		obsSnapshot = e.binary.Clone()
	}
	e.obsMu.Unlock()

	e.mapMu.Lock()
	mapSnapshot := e.mapRef
	e.mapMu.Unlock()

	return ribbonsSnapshot, obsSnapshot, mapSnapshot
}

func (e *Executive) invokePlanner(cfg config.Config, ribbons *ribbon.Manager, start dubins.State, obs obstacle.DynamicObstaclesManager, budget time.Duration) (stats planner.Stats) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorw("planner panicked; treating as empty plan", "recovered", r)
			stats = planner.Stats{}
		}
	}()
	p, ok := e.planners[cfg.WhichPlanner]
	if !ok {
		p = e.planners[config.AStar]
	}
	return p.Plan(ribbons, start, cfg, e.previousPlan, budget, obs)
}

func (e *Executive) lastCollisionPenalty() float64 {
	if len(e.collisions.samples) == 0 {
		return 0
	}
	return e.collisions.samples[len(e.collisions.samples)-1]
}

// publishTaskLevelStats implements the exit-time stats publication: wall
// clock elapsed, accumulated collision penalty weighted, a time penalty
// scaled by wall clock, and remaining uncovered ribbon length.
func (e *Executive) publishTaskLevelStats() {
	wallClock := e.clock.Now().Sub(e.trialStart)
	cumulative := e.collisions.cumulative() * collisionPenaltyWeight
	timePenalty := wallClock.Seconds() * timePenaltyFactor
	e.ribbonsMu.Lock()
	uncovered := e.ribbons.GetTotalUncoveredLength()
	e.ribbonsMu.Unlock()
	mean, stdDev := e.collisions.meanAndStdDev()
	e.logger.Infow("task complete",
		"cycles", e.trialCycles,
		"wallClock", wallClock,
		"collisionPenaltyMean", mean,
		"collisionPenaltyStdDev", stdDev,
	)
	e.publisher.PublishTaskLevelStats(wallClock, cumulative, cumulative+timePenalty, uncovered)
}

package executive

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// spyPlanner counts invocations and always returns a fixed Stats.
type spyPlanner struct {
	mu    sync.Mutex
	calls int
	stats planner.Stats
}

func (s *spyPlanner) Plan(ribbons *ribbon.Manager, start dubins.State, cfg config.Config,
	previous dubins.Plan, budget time.Duration, dynObs obstacle.DynamicObstaclesManager) planner.Stats {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.stats
}

func (s *spyPlanner) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeController reports whatever state its reply func computes for the
// given plan/ideal-period pair.
type fakeController struct {
	reply func(plan dubins.Plan, ideal time.Duration) (dubins.State, error)
}

func (f *fakeController) PublishPlan(plan dubins.Plan, ideal time.Duration) (dubins.State, error) {
	return f.reply(plan, ideal)
}

func onTimeSegmentPlan(startTime float64) dubins.Plan {
	word, ok := dubins.ShortestPath([3]float64{0, 0, 0}, [3]float64{20, 0, 0}, 8)
	if !ok {
		panic("test fixture: no Dubins path between fixture endpoints")
	}
	seg := dubins.NewSegment(dubins.State{X: 0, Y: 0, Heading: 0, Speed: 1, Time: startTime}, word, 1, startTime)
	return dubins.Plan{Segments: []dubins.Segment{seg}}
}

func newTestExecutive() *Executive {
	mc := clock.NewMock()
	e := New(nil, mc, nil, nil, nil)
	e.AddRibbon(0, 0, 20, 0)
	return e
}

func TestSetConfigurationAppliesRibbonSettings(t *testing.T) {
	e := newTestExecutive()
	err := e.SetConfiguration(map[string]interface{}{
		"heuristic":             int(ribbon.TspPointRobotNoSplitKRibbons),
		"k":                     3,
		"coverageTurningRadius": 6.0,
		"lineWidth":             4.0,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.ribbons.Heuristic, test.ShouldEqual, ribbon.TspPointRobotNoSplitKRibbons)
	test.That(t, e.ribbons.K, test.ShouldEqual, 3)
	test.That(t, e.ribbons.DefaultRadius, test.ShouldEqual, 6.0)
	test.That(t, e.ribbons.Ribbons[0].Width, test.ShouldEqual, 4.0)
}

func TestBackOffTimeHorizon(t *testing.T) {
	h := 60.0
	h = backOffTimeHorizon(h, 15)
	test.That(t, h, test.ShouldEqual, 30.0)
	h = backOffTimeHorizon(h, 15)
	test.That(t, h, test.ShouldEqual, 15.0)
	h = backOffTimeHorizon(h, 15)
	test.That(t, h, test.ShouldEqual, 15.0) // clamped at the minimum
}

func TestShouldSkipPlanning(t *testing.T) {
	cfg := config.Default()
	cfg.WhichPlanner = config.BitStar
	test.That(t, shouldSkipPlanning(cfg, dubins.Plan{}), test.ShouldBeFalse)
	test.That(t, shouldSkipPlanning(cfg, onTimeSegmentPlan(0)), test.ShouldBeTrue)

	cfg.WhichPlanner = config.AStar
	test.That(t, shouldSkipPlanning(cfg, onTimeSegmentPlan(0)), test.ShouldBeFalse)
}

// TestFailureBackoffHalvesTimeHorizon drives runCycle directly with a
// planner that always returns an empty plan and a tiny time horizon (so the
// per-cycle sleep is always a no-op), and checks the timeHorizon halves
// every consecutiveFailureLimit+1 consecutive empty cycles, clamped at
// TimeMinimum.
func TestFailureBackoffHalvesTimeHorizon(t *testing.T) {
	e := newTestExecutive()
	const startingHorizon = 0.06
	e.cfg.TimeHorizon = startingHorizon
	e.cfg.TimeMinimum = 0.015
	e.planners[config.AStar] = &spyPlanner{}

	for i := 0; i < 3; i++ {
		done := e.runCycle()
		test.That(t, done, test.ShouldBeFalse)
	}
	test.That(t, e.cfg.TimeHorizon, test.ShouldAlmostEqual, startingHorizon/2)

	for i := 0; i < 3; i++ {
		done := e.runCycle()
		test.That(t, done, test.ShouldBeFalse)
	}
	test.That(t, e.cfg.TimeHorizon, test.ShouldAlmostEqual, startingHorizon/4)
}

// TestBitStarSkipsReplanOnceAchieved exercises the full cycle machinery: once
// BIT* has produced a plan the controller reports as achieved, the next
// cycle must not invoke the planner again.
func TestBitStarSkipsReplanOnceAchieved(t *testing.T) {
	e := newTestExecutive()
	e.cfg.WhichPlanner = config.BitStar
	e.cfg.TimeHorizon = 0.001

	plan := onTimeSegmentPlan(0)
	spy := &spyPlanner{stats: planner.Stats{Plan: plan}}
	e.planners[config.BitStar] = spy

	sampled, err := plan.Sample(plan.StartTime())
	test.That(t, err, test.ShouldBeNil)
	e.controller = &fakeController{
		reply: func(dubins.Plan, time.Duration) (dubins.State, error) {
			return sampled, nil
		},
	}

	test.That(t, e.runCycle(), test.ShouldBeFalse)
	test.That(t, spy.callCount(), test.ShouldEqual, 1)
	test.That(t, e.lastPlanAchievable, test.ShouldBeTrue)
	test.That(t, e.previousPlan.Empty(), test.ShouldBeFalse)

	test.That(t, e.runCycle(), test.ShouldBeFalse)
	test.That(t, spy.callCount(), test.ShouldEqual, 1)
}

// TestControllerDeviationDropsPlan exercises protocol step 14: when the
// controller reports a state far from the plan's sampled position, the plan
// is dropped and marked unachievable rather than retained into the next
// cycle.
func TestControllerDeviationDropsPlan(t *testing.T) {
	e := newTestExecutive()
	e.cfg.TimeHorizon = 0.001

	plan := onTimeSegmentPlan(0)
	e.planners[config.AStar] = &spyPlanner{stats: planner.Stats{Plan: plan}}

	far := dubins.State{X: 500, Y: 500, Heading: 0, Speed: 1, Time: plan.StartTime()}
	e.controller = &fakeController{
		reply: func(dubins.Plan, time.Duration) (dubins.State, error) {
			return far, nil
		},
	}

	test.That(t, e.runCycle(), test.ShouldBeFalse)
	test.That(t, e.lastPlanAchievable, test.ShouldBeFalse)
	test.That(t, e.previousPlan.Empty(), test.ShouldBeTrue)
}

// Lifecycle tests use a real clock: StartPlanner and Terminate poll via
// e.clock.Sleep internally, and a mock clock only advances when a test
// explicitly steps it, which these have no reason to do.
func newLifecycleTestExecutive() *Executive {
	return New(nil, clock.New(), nil, nil, nil)
}

func TestStartPlannerIsIdempotentWhileRunning(t *testing.T) {
	e := newLifecycleTestExecutive()
	e.stateMu.Lock()
	e.setState(Running)
	e.stateMu.Unlock()

	err := e.StartPlanner()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.State(), test.ShouldEqual, Running)
}

func TestTerminateReachesInactive(t *testing.T) {
	e := newLifecycleTestExecutive() // no ribbons added: AllDone on the first cycle
	err := e.StartPlanner()
	test.That(t, err, test.ShouldBeNil)
	e.Terminate()
	test.That(t, e.State(), test.ShouldEqual, Inactive)
}

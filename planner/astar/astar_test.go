package astar

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

func TestPlanCoversSingleRibbon(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	rm.Add(0, 0, 60, 0, 5, 1)

	p := New()
	cfg := config.Default()
	start := dubins.State{X: -10, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 500*time.Millisecond, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeFalse)
	test.That(t, stats.Generated > 0, test.ShouldBeTrue)
}

// TestTraversalOfPlanCoversRibbon simulates driving the returned plan by
// sweeping coverage along its half-second samples, and checks that actually
// finishes the ribbon: plans sweep ribbons end to end, not just touch an
// endpoint.
func TestTraversalOfPlanCoversRibbon(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	rm.Add(0, 0, 100, 0, 5, 1)

	p := New()
	cfg := config.Default()
	start := dubins.State{X: -20, Y: 0, Heading: 3.14159265 / 2, Speed: 2, Time: 0}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 900*time.Millisecond, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeFalse)

	samples := stats.Plan.HalfSecondSamples()
	test.That(t, len(samples) > 1, test.ShouldBeTrue)
	for i := 1; i < len(samples); i++ {
		rm.CoverBetween(samples[i-1].X, samples[i-1].Y, samples[i].X, samples[i].Y, false)
	}
	test.That(t, rm.Done(), test.ShouldBeTrue)
}

func TestPlanReturnsEmptyWhenNoRibbons(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	p := New()
	cfg := config.Default()
	start := dubins.State{X: 0, Y: 0, Heading: 0, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 200*time.Millisecond, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeTrue)
}

func TestPlanRespectsExpansionCap(t *testing.T) {
	rm := ribbon.NewManager(ribbon.TspDubinsNoSplitKRibbons, 3, 8)
	rm.Add(0, 0, 40, 0, 5, 1)
	rm.Add(0, 20, 40, 20, 5, 1)

	p := New()
	p.MaxExpansions = 5
	cfg := config.Default()
	start := dubins.State{X: -10, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, time.Second, nil)
	test.That(t, stats.Expanded <= 5, test.ShouldBeTrue)
}

// TestInitialSamplesSeedOpenSet caps both runs at a single expansion, so
// each generates the children of one vertex at most; the seeded run's open
// set also holds every initial sample, which raises its generated count.
func TestInitialSamplesSeedOpenSet(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	rm.Add(0, 0, 40, 0, 5, 1)

	start := dubins.State{X: -10, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	unseeded := New()
	unseeded.MaxExpansions = 1
	cfg := config.Default()
	cfg.InitialSamples = 0
	none := unseeded.Plan(rm, start, cfg, dubins.Plan{}, 200*time.Millisecond, nil)

	seeded := New()
	seeded.MaxExpansions = 1
	cfg.InitialSamples = 20
	some := seeded.Plan(rm, start, cfg, dubins.Plan{}, 200*time.Millisecond, nil)

	test.That(t, some.Generated, test.ShouldBeGreaterThan, none.Generated)
}

// TestPlanReturnsWithinBudget checks the wall-clock contract: the planner
// must come back within its budget plus a small epsilon, even with plenty of
// work left to do.
func TestPlanReturnsWithinBudget(t *testing.T) {
	rm := ribbon.NewManager(ribbon.TspDubinsNoSplitAllRibbons, 0, 8)
	for i := 0; i < 12; i++ {
		y := float64(i) * 15
		rm.Add(0, y, 200, y, 5, 1)
	}

	p := New()
	cfg := config.Default()
	start := dubins.State{X: -10, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	const budget = 100 * time.Millisecond
	began := time.Now()
	p.Plan(rm, start, cfg, dubins.Plan{}, budget, nil)
	test.That(t, time.Since(began), test.ShouldBeLessThan, budget+200*time.Millisecond)
}

func TestPlanAvoidsKnownDynamicObstacle(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	rm.Add(0, 0, 60, 0, 5, 1)

	dyn := obstacle.NewBinaryDynamicObstaclesManager()
	dyn.Update(obstacle.BinaryObstacle{MMSI: "1", X: 20, Y: 0, Yaw: 0, Speed: 0, Time: 0, Width: 4, Length: 10})

	p := New()
	cfg := config.Default()
	start := dubins.State{X: -10, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 500*time.Millisecond, dyn)
	test.That(t, stats.Plan.Empty(), test.ShouldBeFalse)
}

package bitstar

import (
	"math/rand"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

func TestPlanReachesNearestEndpoint(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	rm.Add(0, 0, 40, 0, 5, 1)

	p := &Planner{Rand: rand.New(rand.NewSource(42))}
	cfg := config.Default()
	start := dubins.State{X: -15, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 2*time.Second, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeFalse)
	test.That(t, stats.Generated > 0, test.ShouldBeTrue)
}

func TestPlanEmptyWithoutUncoveredRibbons(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	p := New()
	cfg := config.Default()
	start := dubins.State{X: 0, Y: 0, Heading: 0, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 200*time.Millisecond, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeTrue)
}

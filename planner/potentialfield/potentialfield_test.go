package potentialfield

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

func TestPlanFollowsRibbonAttraction(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	rm.Add(0, 0, 100, 0, 5, 1)

	p := New()
	cfg := config.Default()
	start := dubins.State{X: -20, Y: 0, Heading: 3.14159265 / 2, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 500*time.Millisecond, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeFalse)
	test.That(t, len(stats.Samples) > 0, test.ShouldBeTrue)
}

func TestPlanEmptyWhenNoRibbons(t *testing.T) {
	rm := ribbon.NewManager(ribbon.MaxDistance, 0, 8)
	p := New()
	cfg := config.Default()
	start := dubins.State{X: 0, Y: 0, Heading: 0, Speed: 2}

	stats := p.Plan(rm, start, cfg, dubins.Plan{}, 200*time.Millisecond, nil)
	test.That(t, stats.Plan.Empty(), test.ShouldBeTrue)
}

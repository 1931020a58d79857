package ribbon

import (
	"testing"

	"go.viam.com/test"

	"github.com/CCOMJHC/alex-path-planner/dubins"
)

func TestCoverBetweenFullSegmentMarksDone(t *testing.T) {
	m := NewManager(MaxDistance, 0, 8)
	m.Add(0, 0, 100, 0, 5, 1)

	m.CoverBetween(0, 0, 100, 0, false)
	test.That(t, m.Done(), test.ShouldBeTrue)
}

func TestCoverPointWithinWidth(t *testing.T) {
	r := NewRibbon(0, 0, 10, 0, 2, 0.5)
	ok := r.Cover(5, 0.5, true)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, r.UncoveredLength() < r.Length(), test.ShouldBeTrue)
}

func TestCoverPointOutsideWidthIgnored(t *testing.T) {
	r := NewRibbon(0, 0, 10, 0, 1, 0.5)
	ok := r.Cover(5, 5, true)
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, r.UncoveredLength(), test.ShouldEqual, r.Length())
}

func TestMaxDistanceHeuristic(t *testing.T) {
	m := NewManager(MaxDistance, 0, 8)
	m.Add(0, 0, 100, 0, 5, 1)
	cost := m.HeuristicCost(dubins.State{X: 0, Y: 0})
	test.That(t, cost, test.ShouldEqual, 100.0)
}

func TestHeuristicZeroWhenDone(t *testing.T) {
	m := NewManager(MaxDistance, 0, 8)
	m.Add(0, 0, 10, 0, 5, 1)
	m.CoverBetween(0, 0, 10, 0, false)
	cost := m.HeuristicCost(dubins.State{X: 0, Y: 0})
	test.That(t, cost, test.ShouldEqual, 0.0)
}

func TestTspPointRobotHeuristicPositive(t *testing.T) {
	m := NewManager(TspPointRobotNoSplitAllRibbons, 0, 8)
	m.Add(0, 0, 10, 0, 1, 0.1)
	m.Add(20, 0, 30, 0, 1, 0.1)
	cost := m.HeuristicCost(dubins.State{X: 0, Y: 0})
	test.That(t, cost, test.ShouldBeGreaterThan, 0)
}

func TestCloneSharesNoState(t *testing.T) {
	m := NewManager(MaxDistance, 0, 8)
	m.Add(0, 0, 10, 0, 2, 0.5)
	clone := m.Clone()
	clone.CoverBetween(0, 0, 10, 0, false)

	test.That(t, clone.Done(), test.ShouldBeTrue)
	test.That(t, m.Done(), test.ShouldBeFalse)
}

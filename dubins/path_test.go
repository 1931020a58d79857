package dubins

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestAllPathsStraightLine(t *testing.T) {
	start := [3]float64{0, 0, 0}
	end := [3]float64{10, 0, 0}
	paths := AllPaths(start, end, 1.0, true)
	test.That(t, len(paths), test.ShouldBeGreaterThanOrEqualTo, 1)
	test.That(t, paths[0].TotalLength, test.ShouldBeLessThan, 10.1)
}

func TestShortestPathFeasible(t *testing.T) {
	start := [3]float64{0, 0, math.Pi / 2}
	end := [3]float64{5, 5, 0}
	p, ok := ShortestPath(start, end, 2.0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p.TotalLength, test.ShouldBeGreaterThan, 0)
}

func TestShortestPathAmongWordSets(t *testing.T) {
	// close poses with a heading flip, where the CCC words compete
	start := [3]float64{0, 0, 0}
	end := [3]float64{1, 0, math.Pi}

	wide, ok := ShortestPathAmong(start, end, 5.0, true)
	test.That(t, ok, test.ShouldBeTrue)

	csc, ok := ShortestPathAmong(start, end, 5.0, false)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, csc.Type == RLR || csc.Type == LRL, test.ShouldBeFalse)

	// the widened set can never do worse than the restricted one
	test.That(t, wide.TotalLength <= csc.TotalLength, test.ShouldBeTrue)
}

func TestGeneratePointsReachesEnd(t *testing.T) {
	start := [3]float64{0, 0, 0}
	end := [3]float64{20, 10, math.Pi}
	p, ok := ShortestPath(start, end, 3.0)
	test.That(t, ok, test.ShouldBeTrue)

	pts := GeneratePoints(p, start[0], start[1], start[2], 0.5)
	test.That(t, len(pts) > 1, test.ShouldBeTrue)
	last := pts[len(pts)-1]
	test.That(t, math.Abs(last[0]-end[0]) < 1e-6, test.ShouldBeTrue)
	test.That(t, math.Abs(last[1]-end[1]) < 1e-6, test.ShouldBeTrue)
}

package obstacle

import (
	"testing"

	"go.viam.com/test"
)

func TestMapIsBlocked(t *testing.T) {
	m := &Map{
		Blocked: [][]bool{
			{false, false, true},
			{false, false, false},
		},
		CellSize: 1,
	}
	test.That(t, m.IsBlocked(2, 0), test.ShouldBeTrue)
	test.That(t, m.IsBlocked(0, 0), test.ShouldBeFalse)
	test.That(t, m.IsBlocked(100, 100), test.ShouldBeFalse)
}

func TestEmptyMapNeverBlocked(t *testing.T) {
	m := EmptyMap()
	test.That(t, m.IsBlocked(0, 0), test.ShouldBeFalse)
}

func TestLoadMapEmptyPath(t *testing.T) {
	m, err := LoadMap("", 0, 0, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.IsBlocked(0, 0), test.ShouldBeFalse)
}

func TestLoadMapUnsupportedFormat(t *testing.T) {
	_, err := LoadMap("chart.tif", 0, 0, 1)
	test.That(t, err, test.ShouldEqual, ErrUnsupportedMapFormat)
}

func TestBinaryCollisionInsideBox(t *testing.T) {
	b := NewBinaryDynamicObstaclesManager()
	b.Update(BinaryObstacle{MMSI: "1", X: 0, Y: 0, Width: 4, Length: 10, Speed: 0, Time: 0})

	test.That(t, b.CollisionExists(0, 0, 0, false), test.ShouldEqual, b.InsideCost)
	test.That(t, b.CollisionExists(100, 100, 0, false), test.ShouldEqual, 0.0)
}

func TestBinaryCollisionProjectsWithTime(t *testing.T) {
	b := NewBinaryDynamicObstaclesManager()
	b.Update(BinaryObstacle{MMSI: "1", X: 0, Y: 0, Width: 2, Length: 2, Speed: 5, Time: 0, Yaw: 0})

	// At t=10 the obstacle has moved 50m along +X.
	test.That(t, b.CollisionExists(50, 0, 10, false), test.ShouldEqual, b.InsideCost)
	test.That(t, b.CollisionExists(0, 0, 10, false), test.ShouldEqual, 0.0)
}

func TestGaussianPeakNearMean(t *testing.T) {
	g := &GaussianDynamicObstaclesManager{}
	g.Update(NewGaussianObstacle("1", 50, 0, 0, 0, 0))

	near := g.CollisionCost(50, 0, 0, false)
	far := g.CollisionCost(80, 0, 0, false)
	test.That(t, near, test.ShouldBeGreaterThan, far)
}

// TestGaussianPdfNormalised numerically integrates the density over a grid
// wide enough to capture effectively all of the default covariance's mass.
func TestGaussianPdfNormalised(t *testing.T) {
	g := &GaussianDynamicObstaclesManager{}
	g.Update(NewGaussianObstacle("1", 0, 0, 0, 0, 0))

	const step = 0.5
	var integral float64
	for x := -50.0; x <= 50.0; x += step {
		for y := -50.0; y <= 50.0; y += step {
			integral += g.CollisionCost(x, y, 0, false) * step * step
		}
	}
	test.That(t, integral > 0.99, test.ShouldBeTrue)
	test.That(t, integral < 1.01, test.ShouldBeTrue)
}

func TestGaussianProjectionMovesPeak(t *testing.T) {
	// heading 0 (compass, north) => yaw = pi/2, moves along +Y, not +X; use
	// heading pi/2 (east) so yaw = 0 and motion is along +X as the scenario
	// describes.
	g := &GaussianDynamicObstaclesManager{}
	obstacle := NewGaussianObstacle("1", 50, 0, 3.14159265/2, 2, 0)
	g.Update(obstacle)

	costAt70T10 := g.CollisionCost(70, 0, 10, false)
	costAt50T10 := g.CollisionCost(50, 0, 10, false)
	test.That(t, costAt70T10, test.ShouldBeGreaterThan, costAt50T10)
}

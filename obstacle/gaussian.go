package obstacle

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// defaultSigma is the covariance assumed for vessels that report no
// positional uncertainty of their own.
var defaultSigma = [2][2]float64{{30, 10}, {10, 30}}

// GaussianObstacle is a vessel modeled as a 2D Gaussian cost field rather
// than a hard footprint. Yaw is math convention, derived from compass
// heading via yaw = pi/2 - heading, matching the convention used throughout
// the dubins package.
type GaussianObstacle struct {
	MMSI      string
	Mean      [2]float64
	Sigma     [2][2]float64
	Yaw       float64
	Speed     float64
	Time      float64
	Intensity float64 // per-obstacle weight alpha
}

// NewGaussianObstacle builds an obstacle at (x,y) with the default
// covariance and intensity 1.
func NewGaussianObstacle(mmsi string, x, y, heading, speed, t float64) GaussianObstacle {
	return GaussianObstacle{
		MMSI:      mmsi,
		Mean:      [2]float64{x, y},
		Sigma:     defaultSigma,
		Yaw:       math.Pi/2 - heading,
		Speed:     speed,
		Time:      t,
		Intensity: 1,
	}
}

// Project translates Mean by speed*(t'-Time) along (cos yaw, sin yaw);
// Sigma is unchanged.
func (o GaussianObstacle) Project(tPrime float64) GaussianObstacle {
	dt := tPrime - o.Time
	cp := o
	cp.Mean[0] += o.Speed * dt * math.Cos(o.Yaw)
	cp.Mean[1] += o.Speed * dt * math.Sin(o.Yaw)
	cp.Time = tPrime
	return cp
}

// pdf evaluates the bivariate normal density at point p. The 2x2 inverse
// and determinant are the only genuinely matrix-shaped step here, so gonum
// is used for exactly that rather than hand-rolled 2x2 algebra.
func (o GaussianObstacle) pdf(p [2]float64) float64 {
	sigma := mat.NewDense(2, 2, []float64{
		o.Sigma[0][0], o.Sigma[0][1],
		o.Sigma[1][0], o.Sigma[1][1],
	})
	det := mat.Det(sigma)
	if det <= 0 {
		return 0
	}
	var inv mat.Dense
	if err := inv.Inverse(sigma); err != nil {
		return 0
	}

	diff := mat.NewVecDense(2, []float64{p[0] - o.Mean[0], p[1] - o.Mean[1]})
	var tmp mat.VecDense
	tmp.MulVec(&inv, diff)
	quad := mat.Dot(diff, &tmp)

	norm := 1 / (2 * math.Pi * math.Sqrt(det))
	return norm * math.Exp(-0.5*quad)
}

// GaussianDynamicObstaclesManager sums alpha*pdf(point; projectedObstacle(t))
// over all obstacles, returning a cost (not a probability).
type GaussianDynamicObstaclesManager struct {
	Obstacles []GaussianObstacle
}

// Update inserts or replaces the obstacle identified by mmsi.
func (g *GaussianDynamicObstaclesManager) Update(o GaussianObstacle) {
	for i, existing := range g.Obstacles {
		if existing.MMSI == o.MMSI {
			g.Obstacles[i] = o
			return
		}
	}
	g.Obstacles = append(g.Obstacles, o)
}

// CollisionCost returns the summed intensity-weighted density of every
// obstacle projected to time t, evaluated at (x,y). strict has no effect: the
// Gaussian model has no hard boundary to inflate, and the parameter exists
// only so this satisfies the shared DynamicObstaclesManager trait.
func (g *GaussianDynamicObstaclesManager) CollisionCost(x, y, t float64, strict bool) float64 {
	var total float64
	for _, o := range g.Obstacles {
		proj := o.Project(t)
		total += o.Intensity * proj.pdf([2]float64{x, y})
	}
	return total
}

// Clone returns a deep copy sharing no backing array with g.
func (g *GaussianDynamicObstaclesManager) Clone() *GaussianDynamicObstaclesManager {
	cp := &GaussianDynamicObstaclesManager{}
	if len(g.Obstacles) > 0 {
		cp.Obstacles = make([]GaussianObstacle, len(g.Obstacles))
		copy(cp.Obstacles, g.Obstacles)
	}
	return cp
}

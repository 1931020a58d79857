package obstacle

import "math"

// BinaryObstacle is an oriented rectangle moving at constant velocity.
type BinaryObstacle struct {
	MMSI   string
	X, Y   float64
	Yaw    float64 // math convention, radians CCW from +X
	Speed  float64
	Time   float64
	Width  float64
	Length float64
}

// projectedCenter returns the obstacle's center at time t, assuming constant
// heading and speed.
func (o BinaryObstacle) projectedCenter(t float64) (x, y float64) {
	dt := t - o.Time
	return o.X + o.Speed*dt*math.Cos(o.Yaw), o.Y + o.Speed*dt*math.Sin(o.Yaw)
}

// BinaryDynamicObstaclesManager models dynamic obstacles as oriented
// rectangles: CollisionExists returns a large positive cost inside the
// projected box at time t, 0 outside. strict inflates the box.
type BinaryDynamicObstaclesManager struct {
	Obstacles []BinaryObstacle

	// InsideCost is returned for points inside a projected obstacle box.
	InsideCost float64

	// StrictInflation multiplies half-width/half-length when strict is set.
	StrictInflation float64
}

// NewBinaryDynamicObstaclesManager returns a manager with a large default
// in-collision cost.
func NewBinaryDynamicObstaclesManager() *BinaryDynamicObstaclesManager {
	return &BinaryDynamicObstaclesManager{InsideCost: 1000, StrictInflation: 1.5}
}

// Update inserts or replaces the obstacle identified by mmsi.
func (b *BinaryDynamicObstaclesManager) Update(o BinaryObstacle) {
	for i, existing := range b.Obstacles {
		if existing.MMSI == o.MMSI {
			b.Obstacles[i] = o
			return
		}
	}
	b.Obstacles = append(b.Obstacles, o)
}

// CollisionExists returns InsideCost if (x,y) at time t falls within the
// projected oriented rectangle of any obstacle, else 0.
func (b *BinaryDynamicObstaclesManager) CollisionExists(x, y, t float64, strict bool) float64 {
	for _, o := range b.Obstacles {
		cx, cy := o.projectedCenter(t)
		// transform (x,y) into the obstacle's body frame
		dx, dy := x-cx, y-cy
		cos, sin := math.Cos(-o.Yaw), math.Sin(-o.Yaw)
		lx := dx*cos - dy*sin
		ly := dx*sin + dy*cos

		halfW, halfL := o.Width/2, o.Length/2
		if strict {
			halfW *= b.StrictInflation
			halfL *= b.StrictInflation
		}
		if math.Abs(lx) <= halfL && math.Abs(ly) <= halfW {
			return b.InsideCost
		}
	}
	return 0
}

// Clone returns a deep copy sharing no backing array with b.
func (b *BinaryDynamicObstaclesManager) Clone() *BinaryDynamicObstaclesManager {
	cp := &BinaryDynamicObstaclesManager{InsideCost: b.InsideCost, StrictInflation: b.StrictInflation}
	if len(b.Obstacles) > 0 {
		cp.Obstacles = make([]BinaryObstacle, len(b.Obstacles))
		copy(cp.Obstacles, b.Obstacles)
	}
	return cp
}

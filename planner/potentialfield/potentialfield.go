// Package potentialfield implements a short-horizon reactive planner: at
// each lookahead step it sums ribbon-attraction, static-obstacle-repulsion
// and dynamic-obstacle-repulsion forces and follows the net force direction.
package potentialfield

import (
	"math"
	"time"

	"github.com/golang/geo/r3"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// lookaheadSteps is the number of Dubins segments chained per Plan call.
const lookaheadSteps = 10

// lookaheadSegmentLength is the arc length, in metres, of each lookahead
// step's Dubins connection.
const lookaheadSegmentLength = 10.0

// forceFloor is the minimum net-force magnitude below which the planner
// stops extending the plan; if that happens on the first step, the returned
// plan is empty.
const forceFloor = 0.05

// Planner is the reactive potential-field planner.
type Planner struct {
	// StaticRepulsionSearchCells bounds how far (in grid cells) the nearest
	// blocked-cell search looks; 0 disables static repulsion entirely
	// (no map available).
	StaticRepulsionSearchCells int
}

// New returns a Planner with a reasonable default static-repulsion search
// radius.
func New() *Planner {
	return &Planner{StaticRepulsionSearchCells: 15}
}

var _ planner.Planner = (*Planner)(nil)

// Plan implements planner.Planner.
func (p *Planner) Plan(
	ribbons *ribbon.Manager,
	start dubins.State,
	cfg config.Config,
	previous dubins.Plan,
	budget time.Duration,
	dynObs obstacle.DynamicObstaclesManager,
) planner.Stats {
	deadline := time.Now().Add(budget)
	rho := cfg.CoverageTurningRadius
	if rho <= 0 {
		rho = cfg.TurningRadius
	}

	plan := dubins.Plan{}
	cur := start
	var stats planner.Stats

	for i := 0; i < lookaheadSteps; i++ {
		if time.Now().After(deadline) {
			break
		}
		force := p.netForce(ribbons, cur, cfg, dynObs)
		mag := force.Norm()
		stats.Iterations++
		if mag < forceFloor {
			break
		}
		if mag > 1000 {
			plan.Dangerous = true
		}

		heading := math.Atan2(force.X, force.Y) // compass: atan2(east-component, north-component)
		goalYaw := mathYaw(heading)
		endX := cur.X + lookaheadSegmentLength*math.Sin(heading)
		endY := cur.Y + lookaheadSegmentLength*math.Cos(heading)

		startPose := [3]float64{cur.X, cur.Y, mathYaw(cur.Heading)}
		endPose := [3]float64{endX, endY, goalYaw}
		word, ok := dubins.ShortestPathAmong(startPose, endPose, rho, cfg.UseBrownPaths)
		if !ok {
			break
		}

		speed := cfg.MaxSpeed
		if speed <= 0 {
			speed = 1
		}
		seg := dubins.Segment{Qi: startPose, Path: word, Speed: speed, Start: cur.Time}
		plan.Append(seg)
		stats.Generated++
		cur = seg.EndState()
	}

	if plan.Empty() {
		return planner.Stats{}
	}
	stats.Plan = plan
	stats.Samples = plan.HalfSecondSamples()
	stats.FinalCost = plan.EndTime() - plan.StartTime()
	return stats
}

func mathYaw(heading float64) float64 { return math.Pi/2 - heading }

// netForce sums ribbon attraction, static obstacle repulsion and dynamic
// obstacle repulsion at state s, returning the net force vector in the same
// Cartesian frame as State.X/Y (Z is always 0).
func (p *Planner) netForce(ribbons *ribbon.Manager, s dubins.State, cfg config.Config, dynObs obstacle.DynamicObstaclesManager) r3.Vector {
	var force r3.Vector
	for _, r := range ribbons.Ribbons {
		if r.Done() {
			continue
		}
		for _, e := range r.Endpoints() {
			towards := r3.Vector{X: e[0] - s.X, Y: e[1] - s.Y}
			d := towards.Norm()
			if d == 0 {
				continue
			}
			mag := 10 / d
			if d <= 0.5 && mag > 20 {
				mag = 20
			}
			force = force.Add(towards.Mul(mag / d))
		}
	}

	if cfg.Map != nil && p.StaticRepulsionSearchCells > 0 {
		if d, found := cfg.Map.DistanceToNearestBlocked(s.X, s.Y, p.StaticRepulsionSearchCells); found && d <= 7.5 {
			mag := math.Exp(-d / 15)
			// the force is applied along the vehicle's current heading, not
			// away from the blocked cell; a full gradient would require
			// sampling the grid on every step.
			force = force.Add(r3.Vector{X: mag * math.Sin(s.Heading), Y: mag * math.Cos(s.Heading)})
		}
	}

	if dynObs != nil && !cfg.IgnoreDynamicObstacles {
		if b, ok := dynObs.(*obstacle.BinaryDynamicObstaclesManager); ok {
			for _, o := range b.Obstacles {
				away := r3.Vector{X: s.X - o.X, Y: s.Y - o.Y}
				d := away.Norm()
				if d <= 0 {
					// coincident with the obstacle: no defined direction, so
					// shove hard along the current heading to break contact.
					force = force.Add(r3.Vector{X: 1000 * math.Sin(s.Heading), Y: 1000 * math.Cos(s.Heading)})
					continue
				}
				mag := math.Exp(-d/13) * o.Width * o.Length / 10
				force = force.Add(away.Mul(mag / d))
			}
		}
	}

	return force
}

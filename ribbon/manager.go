package ribbon

import (
	"fmt"
	"math"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/katalvlaran/lvlath/tsp"
	"github.com/samber/lo"

	"github.com/CCOMJHC/alex-path-planner/dubins"
)

// Manager holds the set of ribbons, a heuristic kind, a restriction count K
// (for the K-restricted heuristic kinds) and a default turning radius used
// by Dubins-weighted heuristics. It is fully value-cloneable: clones share
// no mutable state with the original.
type Manager struct {
	Ribbons       []Ribbon
	Heuristic     HeuristicKind
	K             int
	DefaultRadius float64
}

// NewManager constructs an empty Manager.
func NewManager(heuristic HeuristicKind, k int, defaultRadius float64) *Manager {
	return &Manager{Heuristic: heuristic, K: k, DefaultRadius: defaultRadius}
}

// Add appends a new, uncovered ribbon.
func (m *Manager) Add(x1, y1, x2, y2, width, minLength float64) {
	m.Ribbons = append(m.Ribbons, NewRibbon(x1, y1, x2, y2, width, minLength))
}

// Clear removes every ribbon.
func (m *Manager) Clear() {
	m.Ribbons = nil
}

// SetWidth applies a new coverage width to every ribbon. Already-covered
// intervals are left as recorded; the new width affects subsequent coverage
// tests only.
func (m *Manager) SetWidth(width float64) {
	if width <= 0 {
		return
	}
	for i := range m.Ribbons {
		m.Ribbons[i].Width = width
	}
}

// Cover marks every ribbon whose perpendicular distance to (x,y) is within
// coverage tolerance as covered at that point.
func (m *Manager) Cover(x, y float64, strict bool) {
	for i := range m.Ribbons {
		m.Ribbons[i].Cover(x, y, strict)
	}
}

// CoverBetween sweeps the chord (x1,y1)-(x2,y2) across every ribbon.
func (m *Manager) CoverBetween(x1, y1, x2, y2 float64, strict bool) {
	for i := range m.Ribbons {
		m.Ribbons[i].CoverBetween(x1, y1, x2, y2, strict)
	}
}

// Done reports whether every ribbon's uncovered length is below its
// minimum-length threshold.
func (m *Manager) Done() bool {
	for _, r := range m.Ribbons {
		if !r.Done() {
			return false
		}
	}
	return true
}

// GetTotalUncoveredLength sums the uncovered length across all ribbons not
// already Done.
func (m *Manager) GetTotalUncoveredLength() float64 {
	var total float64
	for _, r := range m.Ribbons {
		if r.Done() {
			continue
		}
		total += r.UncoveredLength()
	}
	return total
}

// Clone returns a deep copy sharing no mutable state with m.
func (m *Manager) Clone() *Manager {
	cp := &Manager{Heuristic: m.Heuristic, K: m.K, DefaultRadius: m.DefaultRadius}
	if len(m.Ribbons) > 0 {
		cp.Ribbons = make([]Ribbon, len(m.Ribbons))
		for i, r := range m.Ribbons {
			cp.Ribbons[i] = r.Clone()
		}
	}
	return cp
}

// uncoveredEndpoints returns (x,y) for every endpoint of every not-yet-done
// ribbon.
func (m *Manager) uncoveredEndpoints() [][2]float64 {
	var pts [][2]float64
	for _, r := range m.Ribbons {
		if r.Done() {
			continue
		}
		for _, e := range r.Endpoints() {
			pts = append(pts, e)
		}
	}
	return pts
}

// HeuristicCost estimates the cost-to-go from state to finish covering every
// remaining ribbon, per the configured HeuristicKind. None of these are
// proven admissible; they are search-guidance estimates only.
func (m *Manager) HeuristicCost(state dubins.State) float64 {
	pts := m.uncoveredEndpoints()
	if len(pts) == 0 {
		return 0
	}

	switch m.Heuristic {
	case MaxDistance:
		return maxDistanceHeuristic(state, pts)
	default:
		if m.Heuristic.isKRestricted() {
			pts = nearestK(state, pts, m.K)
		}
		cost, err := tspHeuristic(state, pts, m.Heuristic.usesDubins(), m.DefaultRadius)
		if err != nil {
			// Degrade to MaxDistance rather than fail search guidance outright;
			// this can only happen for pathological inputs (e.g. a single
			// remaining endpoint, which TSP can't tour).
			return maxDistanceHeuristic(state, pts)
		}
		return cost
	}
}

func maxDistanceHeuristic(state dubins.State, pts [][2]float64) float64 {
	var maxD float64
	for _, p := range pts {
		d := math.Hypot(p[0]-state.X, p[1]-state.Y)
		if d > maxD {
			maxD = d
		}
	}
	return maxD
}

func nearestK(state dubins.State, pts [][2]float64, k int) [][2]float64 {
	if k <= 0 || k >= len(pts) {
		return pts
	}
	sorted := make([][2]float64, len(pts))
	copy(sorted, pts)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && dist2(state, sorted[j]) < dist2(state, sorted[j-1]); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted[:k]
}

func dist2(state dubins.State, p [2]float64) float64 {
	dx, dy := p[0]-state.X, p[1]-state.Y
	return dx*dx + dy*dy
}

// tspHeuristic builds a complete distance matrix over state plus every point
// in pts, weighted either by straight-line distance or by Dubins
// shortest-path length at radius rho, and solves it with lvlath's TSP
// approximation, returning the tour cost (an estimate of the distance needed
// to visit every remaining ribbon endpoint starting from state). Dubins
// weights are symmetrised (same weight in both directions) since the
// Christofides solver requires a symmetric instance.
func tspHeuristic(state dubins.State, pts [][2]float64, useDubins bool, rho float64) (float64, error) {
	nodes := append([][3]float64{{state.X, state.Y, state.Heading}}, toPoseSlice(pts)...)
	if len(nodes) < 2 {
		return 0, fmt.Errorf("ribbon: tsp heuristic needs at least 2 nodes")
	}

	n := len(nodes)
	dist, err := matrix.NewDense(n, n)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := edgeWeight(nodes[i], nodes[j], useDubins, rho)
			if err := dist.Set(i, j, w); err != nil {
				return 0, err
			}
			if err := dist.Set(j, i, w); err != nil {
				return 0, err
			}
		}
	}

	res, err := tsp.TSPApprox(dist, tsp.DefaultOptions())
	if err != nil {
		return 0, err
	}
	return res.Cost, nil
}

func toPoseSlice(pts [][2]float64) [][3]float64 {
	return lo.Map(pts, func(p [2]float64, _ int) [3]float64 {
		return [3]float64{p[0], p[1], 0}
	})
}

func edgeWeight(a, b [3]float64, useDubins bool, rho float64) float64 {
	if !useDubins {
		return math.Hypot(a[0]-b[0], a[1]-b[1])
	}
	p, ok := dubins.ShortestPath(a, b, rho)
	if !ok {
		return math.Hypot(a[0]-b[0], a[1]-b[1])
	}
	return p.TotalLength
}

// Package astar implements a sampling-based planner: it grows a tree of
// Dubins-connected ribbon sweeps, guided by ribbon.Manager's heuristic
// cost-to-go, and returns the best incumbent found when its time budget
// expires.
package astar

import (
	"container/heap"
	"math"
	"math/rand"
	"time"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// vertex is one node in the search tree. Vertices are never mutated or
// reopened once created: expansion always appends new arena entries, so the
// tree is a plain append-only slice and parent pointers are stable indices.
type vertex struct {
	state          dubins.State
	parent         int // index into arena, -1 for the root
	g              float64
	coveredRibbons map[int]bool
	edgeFromParent []dubins.Segment
	dangerous      bool
}

// Planner is the A*/sampling planner.
type Planner struct {
	// MaxExpansions bounds search size independently of the wall-clock
	// budget, as a backstop against pathological heuristic behaviour.
	MaxExpansions int

	// Rand places the initial samples; nil uses a fixed-seed source so
	// repeated calls explore the same way.
	Rand *rand.Rand
}

// New returns a Planner with a generous default expansion cap.
func New() *Planner {
	return &Planner{MaxExpansions: 20000, Rand: rand.New(rand.NewSource(1))}
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
	speed := cfg.MaxSpeed
	if speed <= 0 {
		speed = 1
	}
	k := cfg.K
	if k <= 0 {
		k = 5
	}

	var stats planner.Stats
	maxExpansions := p.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = 20000
	}

	arena := []vertex{{state: start, parent: -1, g: 0, coveredRibbons: coveredSet(ribbons)}}
	rootH := residualHeuristic(ribbons, arena[0])
	open := &openQueue{}
	heap.Init(open)
	heap.Push(open, &openItem{vertex: 0, g: 0, h: rootH, order: 0})
	stats.Generated = 1

	bestIdx := 0
	bestH := rootH
	bestG := 0.0

	order := 1
	for _, seed := range p.initialSamples(ribbons, start, cfg, rho, speed, dynObs) {
		if time.Now().After(deadline) {
			break
		}
		seedIdx := len(arena)
		arena = append(arena, seed)
		stats.Generated++
		heap.Push(open, &openItem{vertex: seedIdx, g: seed.g, h: residualHeuristic(ribbons, seed), order: order})
		order++
	}
	for open.Len() > 0 {
		if time.Now().After(deadline) || stats.Expanded >= maxExpansions {
			break
		}
		item := heap.Pop(open).(*openItem)
		cur := arena[item.vertex]
		stats.Expanded++

		h := residualHeuristic(ribbons, cur)
		if h == 0 || len(cur.coveredRibbons) == len(ribbons.Ribbons) {
			bestIdx = item.vertex
			bestH, bestG = 0, cur.g
			break
		}
		if h < bestH || (h == bestH && cur.g < bestG) {
			bestIdx, bestH, bestG = item.vertex, h, cur.g
		}

		for _, tgt := range sweepTargets(ribbons, cur, k) {
			child, ok := expandSweep(cur, item.vertex, tgt, rho, speed, cfg, dynObs)
			if !ok {
				continue
			}
			childIdx := len(arena)
			arena = append(arena, child)
			stats.Generated++

			childH := residualHeuristic(ribbons, child)
			heap.Push(open, &openItem{vertex: childIdx, g: child.g, h: childH, order: order})
			order++
		}
	}

	return traceBack(arena, bestIdx, stats)
}

// coveredSet returns the indices of ribbons already fully covered before the
// search starts.
func coveredSet(ribbons *ribbon.Manager) map[int]bool {
	out := map[int]bool{}
	for i, r := range ribbons.Ribbons {
		if r.Done() {
			out[i] = true
		}
	}
	return out
}

// sweepTarget is one candidate coverage manoeuvre: enter ribbon `index` at
// `entry` and sweep its full length to `exit`.
type sweepTarget struct {
	index       int
	entry, exit [2]float64
}

// sweepTargets enumerates both sweep directions of every ribbon not yet
// covered along v's path, nearest entry first, truncated to k.
func sweepTargets(ribbons *ribbon.Manager, v vertex, k int) []sweepTarget {
	var targets []sweepTarget
	for i, r := range ribbons.Ribbons {
		if v.coveredRibbons[i] || r.Done() {
			continue
		}
		eps := r.Endpoints()
		targets = append(targets,
			sweepTarget{index: i, entry: eps[0], exit: eps[1]},
			sweepTarget{index: i, entry: eps[1], exit: eps[0]},
		)
	}
	for i := 1; i < len(targets); i++ {
		for j := i; j > 0 && dist2(v.state, targets[j].entry) < dist2(v.state, targets[j-1].entry); j-- {
			targets[j], targets[j-1] = targets[j-1], targets[j]
		}
	}
	if k < len(targets) {
		targets = targets[:k]
	}
	return targets
}

// expandSweep builds the child vertex reached by Dubins-transiting from cur
// to the target ribbon's entry endpoint (arriving aligned with the ribbon)
// and then sweeping straight along the ribbon to its exit endpoint. The edge
// is the transit segment followed by the sweep segment, so traversing the
// resulting plan genuinely passes over the ribbon's full length. Transit
// runs at the commanded max speed; the sweep itself runs at the slow
// (coverage) speed when one is configured.
func expandSweep(cur vertex, curIdx int, tgt sweepTarget, rho, speed float64, cfg config.Config, dynObs obstacle.DynamicObstaclesManager) (vertex, bool) {
	sweepLen := math.Hypot(tgt.exit[0]-tgt.entry[0], tgt.exit[1]-tgt.entry[1])
	entryYaw := math.Atan2(tgt.exit[1]-tgt.entry[1], tgt.exit[0]-tgt.entry[0])

	word, ok := dubins.ShortestPathAmong(
		[3]float64{cur.state.X, cur.state.Y, mathYaw(cur.state.Heading)},
		[3]float64{tgt.entry[0], tgt.entry[1], entryYaw},
		rho,
		cfg.UseBrownPaths,
	)
	if !ok {
		return vertex{}, false
	}
	transit := dubins.NewSegment(cur.state, word, speed, cur.state.Time)
	edge := []dubins.Segment{transit}

	end := transit.EndState()
	if sweepLen > 0 {
		sweepSpeed := cfg.SlowSpeed
		if sweepSpeed <= 0 {
			sweepSpeed = speed
		}
		sweep := dubins.Segment{
			Qi:    [3]float64{tgt.entry[0], tgt.entry[1], entryYaw},
			Path:  dubins.StraightPath(sweepLen, rho),
			Speed: sweepSpeed,
			Start: transit.End(),
		}
		edge = append(edge, sweep)
		end = sweep.EndState()
	}

	var edgeCost float64
	dangerous := cur.dangerous
	for _, seg := range edge {
		c, d := integratedEdgeCost(seg, cfg, dynObs)
		edgeCost += c
		dangerous = dangerous || d
	}

	covered := make(map[int]bool, len(cur.coveredRibbons)+1)
	for i := range cur.coveredRibbons {
		covered[i] = true
	}
	covered[tgt.index] = true

	return vertex{
		state:          end,
		parent:         curIdx,
		g:              cur.g + edgeCost,
		coveredRibbons: covered,
		edgeFromParent: edge,
		dangerous:      dangerous,
	}, true
}

// initialSamples seeds the open set with up to cfg.InitialSamples poses
// scattered over the uncovered work area, each reached from start by a
// single Dubins transit. Seeds give the search approach angles a pure
// sweep-endpoint expansion would never generate, at the price of one extra
// tree level.
func (p *Planner) initialSamples(ribbons *ribbon.Manager, start dubins.State, cfg config.Config, rho, speed float64, dynObs obstacle.DynamicObstaclesManager) []vertex {
	n := cfg.InitialSamples
	if n <= 0 {
		return nil
	}
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}

	minX, minY := start.X, start.Y
	maxX, maxY := start.X, start.Y
	any := false
	for _, r := range ribbons.Ribbons {
		if r.Done() {
			continue
		}
		for _, e := range r.Endpoints() {
			minX, maxX = math.Min(minX, e[0]), math.Max(maxX, e[0])
			minY, maxY = math.Min(minY, e[1]), math.Max(maxY, e[1])
			any = true
		}
	}
	if !any {
		return nil
	}
	minX, maxX = minX-2*rho, maxX+2*rho
	minY, maxY = minY-2*rho, maxY+2*rho

	seeds := make([]vertex, 0, n)
	for i := 0; i < n; i++ {
		pose := [3]float64{
			minX + rnd.Float64()*(maxX-minX),
			minY + rnd.Float64()*(maxY-minY),
			rnd.Float64() * 2 * math.Pi,
		}
		word, ok := dubins.ShortestPathAmong(
			[3]float64{start.X, start.Y, mathYaw(start.Heading)},
			pose,
			rho,
			cfg.UseBrownPaths,
		)
		if !ok {
			continue
		}
		transit := dubins.NewSegment(start, word, speed, start.Time)
		cost, dangerous := integratedEdgeCost(transit, cfg, dynObs)
		seeds = append(seeds, vertex{
			state:          transit.EndState(),
			parent:         0,
			g:              cost,
			coveredRibbons: coveredSet(ribbons),
			edgeFromParent: []dubins.Segment{transit},
			dangerous:      dangerous,
		})
	}
	return seeds
}

// residualHeuristic estimates cost-to-go from v by filtering ribbons already
// swept along v's path out of the heuristic's view.
func residualHeuristic(ribbons *ribbon.Manager, v vertex) float64 {
	if len(v.coveredRibbons) == len(ribbons.Ribbons) {
		return 0
	}
	residual := ribbons.Clone()
	for i := range residual.Ribbons {
		if v.coveredRibbons[i] {
			residual.Ribbons[i].MinLength = residual.Ribbons[i].Length() + 1
		}
	}
	return residual.HeuristicCost(v.state)
}

func dist2(s dubins.State, p [2]float64) float64 {
	dx, dy := p[0]-s.X, p[1]-s.Y
	return dx*dx + dy*dy
}

// integratedEdgeCost blends the segment's arc-length-in-time with dynamic
// obstacle collision cost sampled at CollisionCheckingIncrement along it.
func integratedEdgeCost(seg dubins.Segment, cfg config.Config, dynObs obstacle.DynamicObstaclesManager) (cost float64, dangerous bool) {
	cost = seg.End() - seg.Start
	if dynObs == nil || cfg.IgnoreDynamicObstacles {
		return cost, false
	}
	step := cfg.CollisionCheckingIncrement
	if step <= 0 {
		step = 0.5
	}
	for t := seg.Start; t <= seg.End(); t += step {
		st := seg.Sample(t)
		c := dynObs.CollisionCost(st.X, st.Y, t, true)
		if c > 0 {
			cost += c
			dangerous = true
		}
	}
	return cost, dangerous
}

// traceBack walks parent pointers from bestIdx back to the root, building
// the final Plan in forward order.
func traceBack(arena []vertex, bestIdx int, stats planner.Stats) planner.Stats {
	var chain []int
	for i := bestIdx; i >= 0; i = arena[i].parent {
		chain = append(chain, i)
		if arena[i].parent < 0 {
			break
		}
	}
	plan := dubins.Plan{}
	for i := len(chain) - 1; i >= 0; i-- {
		v := arena[chain[i]]
		for _, seg := range v.edgeFromParent {
			plan.Append(seg)
		}
		if v.dangerous {
			plan.Dangerous = true
		}
	}
	if plan.Empty() {
		return planner.Stats{Generated: stats.Generated, Expanded: stats.Expanded, Iterations: stats.Iterations}
	}
	stats.Plan = plan
	stats.Samples = plan.HalfSecondSamples()
	stats.FinalCost = plan.EndTime() - plan.StartTime()
	return stats
}

func mathYaw(heading float64) float64 { return math.Pi/2 - heading }

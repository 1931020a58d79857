// Package bitstar implements a batch-informed tree search to a single goal
// pose: each batch of randomly sampled poses is connected by Dubins edges to
// every in-tree vertex within the sampling radius, each sample keeps its
// cheapest cost-to-come parent, and once an incumbent solution exists the
// sampling disc is sized from that solution's cost.
package bitstar

import (
	"context"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/CCOMJHC/alex-path-planner/config"
	"github.com/CCOMJHC/alex-path-planner/dubins"
	"github.com/CCOMJHC/alex-path-planner/obstacle"
	"github.com/CCOMJHC/alex-path-planner/planner"
	"github.com/CCOMJHC/alex-path-planner/ribbon"
)

// batchSize is the number of new samples drawn each round.
const batchSize = 40

// maxConcurrentEdges bounds how many edge costs are evaluated at once; edge
// evaluation integrates dynamic-obstacle cost along the candidate Dubins
// curve and is the expensive step in a batch.
const maxConcurrentEdges = 8

// node is one sample in the tree. goal is always node index 1 (start is 0).
type node struct {
	state     dubins.State
	parent    int // -1 if unconnected/root
	g         float64
	inTree    bool
	dangerous bool // true if the edge from parent crossed non-zero obstacle cost
}

// Planner is the BIT* planner.
type Planner struct {
	// Rand seeds the sampler; nil uses a fresh source seeded with 1 on every
	// call.
	Rand *rand.Rand
}

// New returns a Planner using a fixed-seed (1) random source.
func New() *Planner {
	return &Planner{Rand: rand.New(rand.NewSource(1))}
}

var _ planner.Planner = (*Planner)(nil)

// Plan implements planner.Planner. The goal pose is the nearest uncovered
// ribbon endpoint to start: BIT* plans once to a single goal, in contrast to
// the multi-endpoint coverage the other two planners pursue directly, so the
// nearest endpoint stands in as that single target.
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

	goalXY, ok := nearestUncoveredEndpoint(ribbons, start)
	if !ok {
		return planner.Stats{}
	}

	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}

	nodes := []node{
		{state: start, parent: -1, g: 0, inTree: true},
		{state: dubins.State{X: goalXY[0], Y: goalXY[1], Heading: start.Heading, Speed: speed}, parent: -1, g: math.Inf(1)},
	}
	const startIdx, goalIdx = 0, 1

	minDist := math.Hypot(goalXY[0]-start.X, goalXY[1]-start.Y)
	centerX, centerY := (start.X+goalXY[0])/2, (start.Y+goalXY[1])/2

	edges := make([]dubins.Segment, 2) // parallel to nodes, edge from parent
	edges[0] = dubins.Segment{}

	var stats planner.Stats
	bestCost := math.Inf(1)

	sem := semaphore.NewWeighted(maxConcurrentEdges)
	ctx := context.Background()

	for time.Now().Before(deadline) {
		// sampling disc: centred midway between start and goal, with radius
		// half of bestCost plus one turning radius once a solution exists,
		// and 2.5x the start-goal distance in place of bestCost before then.
		ellipseMajor := bestCost
		if math.IsInf(ellipseMajor, 1) {
			ellipseMajor = minDist * 2.5
		}
		radius := ellipseMajor/2 + rho

		type sampleResult struct {
			x, y float64
		}
		batch := make([]sampleResult, 0, batchSize)
		for i := 0; i < batchSize; i++ {
			ang := rnd.Float64() * 2 * math.Pi
			r := rnd.Float64() * radius
			batch = append(batch, sampleResult{centerX + r*math.Cos(ang), centerY + r*math.Sin(ang)})
		}

		type candidate struct {
			idx       int
			parentIdx int
			seg       dubins.Segment
			cost      float64
			dangerous bool
		}

		base := len(nodes)
		for _, s := range batch {
			nodes = append(nodes, node{
				state: dubins.State{X: s.x, Y: s.y, Heading: start.Heading, Speed: speed},
				g:     math.Inf(1), parent: -1,
			})
			stats.Generated++
		}

		// try to connect every new sample to every in-tree vertex within a
		// neighborhood; this is the batch's edge set. Pairs are enumerated
		// up front so the results channel can be sized exactly, rather than
		// risking a goroutine blocked on a full channel.
		neighborhood := radius
		type pair struct{ newIdx, treeIdx int }
		var pairs []pair
		candidates := make([]int, 0, len(nodes)-base+1)
		for newIdx := base; newIdx < len(nodes); newIdx++ {
			candidates = append(candidates, newIdx)
		}
		if !nodes[goalIdx].inTree {
			candidates = append(candidates, goalIdx)
		}
		for _, newIdx := range candidates {
			for treeIdx := range nodes {
				if !nodes[treeIdx].inTree || treeIdx == newIdx {
					continue
				}
				d := math.Hypot(nodes[newIdx].state.X-nodes[treeIdx].state.X, nodes[newIdx].state.Y-nodes[treeIdx].state.Y)
				if d > neighborhood {
					continue
				}
				pairs = append(pairs, pair{newIdx, treeIdx})
			}
		}

		results := make(chan candidate, len(pairs))
		done := make(chan struct{}, len(pairs))
		for _, pr := range pairs {
			go func(newIdx, treeIdx int) {
				defer func() { done <- struct{}{} }()
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)

				word, ok := dubins.ShortestPathAmong(
					[3]float64{nodes[treeIdx].state.X, nodes[treeIdx].state.Y, mathYaw(nodes[treeIdx].state.Heading)},
					[3]float64{nodes[newIdx].state.X, nodes[newIdx].state.Y, mathYaw(nodes[treeIdx].state.Heading)},
					rho,
					cfg.UseBrownPaths,
				)
				if !ok {
					return
				}
				seg := dubins.NewSegment(nodes[treeIdx].state, word, speed, nodes[treeIdx].state.Time)
				cost, dangerous := edgeCost(seg, cfg, dynObs)
				results <- candidate{idx: newIdx, parentIdx: treeIdx, seg: seg, cost: cost, dangerous: dangerous}
			}(pr.newIdx, pr.treeIdx)
		}
		for range pairs {
			<-done
		}
		close(results)

		// relax: keep the cheapest g for each new vertex.
		best := make(map[int]candidate)
		for c := range results {
			cand := nodes[c.parentIdx].g + c.cost
			if existing, ok := best[c.idx]; !ok || cand < nodes[existing.parentIdx].g+existing.cost {
				best[c.idx] = c
			}
		}
		for idx, c := range best {
			g := nodes[c.parentIdx].g + c.cost
			if g < nodes[idx].g {
				nodes[idx].g = g
				nodes[idx].parent = c.parentIdx
				nodes[idx].inTree = true
				nodes[idx].dangerous = c.dangerous
				for len(edges) <= idx {
					edges = append(edges, dubins.Segment{})
				}
				edges[idx] = c.seg
				if idx == goalIdx && g < bestCost {
					bestCost = g
				}
			}
		}

		if !math.IsInf(bestCost, 1) {
			// count batches that end with a solution; after the fourth
			// (the one that found it plus three that shrink the sampling
			// disc) the search stops, even if budget remains.
			stats.Iterations++
			if stats.Iterations > 3 {
				break
			}
		}
	}

	return traceBack(nodes, edges, goalIdx, stats)
}

func nearestUncoveredEndpoint(ribbons *ribbon.Manager, start dubins.State) ([2]float64, bool) {
	var best [2]float64
	bestD := math.Inf(1)
	found := false
	for _, r := range ribbons.Ribbons {
		if r.Done() {
			continue
		}
		for _, e := range r.Endpoints() {
			d := math.Hypot(e[0]-start.X, e[1]-start.Y)
			if d < bestD {
				bestD, best, found = d, e, true
			}
		}
	}
	return best, found
}

// edgeCost blends travel time with dynamic-obstacle collision cost, weighted
// by DynamicObstacleCostFactor and a time-stdev term.
func edgeCost(seg dubins.Segment, cfg config.Config, dynObs obstacle.DynamicObstaclesManager) (cost float64, dangerous bool) {
	cost = seg.End() - seg.Start
	if dynObs == nil || cfg.IgnoreDynamicObstacles {
		return cost, false
	}
	step := cfg.CollisionCheckingIncrement
	if step <= 0 {
		step = 0.5
	}
	factor := cfg.DynamicObstacleCostFactor
	if factor == 0 {
		factor = 100000
	}
	for t := seg.Start; t <= seg.End(); t += step {
		st := seg.Sample(t)
		c := dynObs.CollisionCost(st.X, st.Y, t, true)
		if c > 0 {
			sigmaT := t - seg.Start
			weight := math.Pow(sigmaT, cfg.DynamicObstacleTimeStdevPower) * cfg.DynamicObstacleTimeStdevFactor
			cost += c * factor / 1000 * (1 + weight)
			dangerous = true
		}
	}
	return cost, dangerous
}

func traceBack(nodes []node, edges []dubins.Segment, goalIdx int, stats planner.Stats) planner.Stats {
	if math.IsInf(nodes[goalIdx].g, 1) {
		return planner.Stats{Generated: stats.Generated, Iterations: stats.Iterations}
	}
	var chain []int
	for i := goalIdx; i >= 0; i = nodes[i].parent {
		chain = append(chain, i)
		if nodes[i].parent < 0 {
			break
		}
	}
	plan := dubins.Plan{}
	var dangerous bool
	for i := len(chain) - 1; i >= 0; i-- {
		idx := chain[i]
		if idx < len(edges) && nodes[idx].parent >= 0 {
			plan.Append(edges[idx])
			if nodes[idx].dangerous {
				dangerous = true
			}
		}
	}
	plan.Dangerous = dangerous
	if plan.Empty() {
		return planner.Stats{Generated: stats.Generated, Iterations: stats.Iterations}
	}
	stats.Plan = plan
	stats.Samples = plan.HalfSecondSamples()
	stats.FinalCost = nodes[goalIdx].g
	return stats
}

func mathYaw(heading float64) float64 { return math.Pi/2 - heading }

// Package ribbon implements coverage accounting for the line segments
// ("ribbons") a vehicle must drive over, plus TSP-flavoured heuristic
// cost-to-go estimates used to guide search planners.
package ribbon

import "math"

// interval is a covered sub-range [lo, hi] of arc-length along a ribbon,
// lo <= hi, both within [0, length].
type interval struct {
	lo, hi float64
}

// Ribbon is an undirected line segment with a covered/uncovered interval set,
// a configurable width (the lateral tolerance for "covering" it), and a
// minimum-length threshold below which it is considered fully covered.
type Ribbon struct {
	X1, Y1, X2, Y2 float64
	Width          float64
	MinLength      float64

	covered []interval
}

// NewRibbon constructs an uncovered Ribbon.
func NewRibbon(x1, y1, x2, y2, width, minLength float64) Ribbon {
	return Ribbon{X1: x1, Y1: y1, X2: x2, Y2: y2, Width: width, MinLength: minLength}
}

// Length is the Euclidean length of the ribbon.
func (r Ribbon) Length() float64 {
	return math.Hypot(r.X2-r.X1, r.Y2-r.Y1)
}

// dir returns the unit vector from (X1,Y1) to (X2,Y2).
func (r Ribbon) dir() (dx, dy float64) {
	l := r.Length()
	if l == 0 {
		return 0, 0
	}
	return (r.X2 - r.X1) / l, (r.Y2 - r.Y1) / l
}

// project returns the arc-length position s along the ribbon of the
// perpendicular projection of (x,y), and the perpendicular distance.
func (r Ribbon) project(x, y float64) (s, dist float64) {
	dx, dy := r.dir()
	vx, vy := x-r.X1, y-r.Y1
	s = vx*dx + vy*dy
	px, py := r.X1+s*dx, r.Y1+s*dy
	dist = math.Hypot(x-px, y-py)
	return s, dist
}

// Cover marks the ribbon covered at the projection of (x,y) if the
// perpendicular distance is within half the configured width. strict
// requires the projected point to lie between the endpoints (0<=s<=length);
// non-strict clamps s into range instead of rejecting. Returns true if
// coverage was marked: false when the point is too far from the ribbon, or,
// under strict mode, when it projects outside the endpoints.
func (r *Ribbon) Cover(x, y float64, strict bool) bool {
	s, dist := r.project(x, y)
	if dist > r.Width/2 {
		return false
	}
	length := r.Length()
	if strict && (s < 0 || s > length) {
		return false
	}
	if s < 0 {
		s = 0
	}
	if s > length {
		s = length
	}
	r.markCovered(s-r.Width/2, s+r.Width/2)
	return true
}

// CoverBetween sweeps the chord (x1,y1)-(x2,y2) against this ribbon,
// covering the sub-range of the ribbon's own arc-length whose perpendicular
// distance to the chord stays within half the ribbon's width. It samples the
// chord at a density fine enough relative to the ribbon's width to avoid
// gaps, mirroring how a moving vehicle's track is treated as continuously
// covering whatever it passes within tolerance of.
func (r *Ribbon) CoverBetween(x1, y1, x2, y2 float64, strict bool) bool {
	chordLen := math.Hypot(x2-x1, y2-y1)
	if chordLen == 0 {
		return r.Cover(x1, y1, strict)
	}
	step := r.Width / 2
	if step <= 0 {
		step = chordLen
	}
	n := int(math.Ceil(chordLen / step))
	if n < 1 {
		n = 1
	}
	any := false
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		x := x1 + f*(x2-x1)
		y := y1 + f*(y2-y1)
		if r.Cover(x, y, strict) {
			any = true
		}
	}
	return any
}

// markCovered merges [lo,hi] (clamped to [0, Length()]) into the covered
// interval set, keeping it sorted and non-overlapping.
func (r *Ribbon) markCovered(lo, hi float64) {
	length := r.Length()
	if lo < 0 {
		lo = 0
	}
	if hi > length {
		hi = length
	}
	if lo >= hi {
		return
	}
	r.covered = append(r.covered, interval{lo, hi})
	r.normalizeCovered()
}

// normalizeCovered sorts and merges overlapping/adjacent covered intervals.
func (r *Ribbon) normalizeCovered() {
	if len(r.covered) < 2 {
		return
	}
	for i := 1; i < len(r.covered); i++ {
		for j := i; j > 0 && r.covered[j].lo < r.covered[j-1].lo; j-- {
			r.covered[j], r.covered[j-1] = r.covered[j-1], r.covered[j]
		}
	}
	merged := r.covered[:1]
	for _, iv := range r.covered[1:] {
		last := &merged[len(merged)-1]
		if iv.lo <= last.hi {
			if iv.hi > last.hi {
				last.hi = iv.hi
			}
			continue
		}
		merged = append(merged, iv)
	}
	r.covered = merged
}

// UncoveredLength returns the total arc-length of the ribbon not covered.
func (r Ribbon) UncoveredLength() float64 {
	total := r.Length()
	var covered float64
	for _, iv := range r.covered {
		covered += iv.hi - iv.lo
	}
	uncovered := total - covered
	if uncovered < 0 {
		uncovered = 0
	}
	return uncovered
}

// Done reports whether the uncovered remainder is below MinLength.
func (r Ribbon) Done() bool {
	return r.UncoveredLength() <= r.MinLength
}

// Endpoints returns the two ribbon endpoints.
func (r Ribbon) Endpoints() [2][2]float64 {
	return [2][2]float64{{r.X1, r.Y1}, {r.X2, r.Y2}}
}

// Clone returns a deep copy: the covered-interval slice shares no backing
// array with the original.
func (r Ribbon) Clone() Ribbon {
	cp := r
	if len(r.covered) > 0 {
		cp.covered = make([]interval, len(r.covered))
		copy(cp.covered, r.covered)
	}
	return cp
}

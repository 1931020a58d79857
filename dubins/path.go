package dubins

import "math"

// PathType enumerates the six classic Dubins words. Word letters denote
// turn-left (L), turn-right (R) and straight (S) sub-segments in order.
type PathType int

const (
	LSL PathType = iota
	LSR
	RSL
	RSR
	RLR
	LRL
	numPathTypes
)

func (t PathType) String() string {
	switch t {
	case LSL:
		return "LSL"
	case LSR:
		return "LSR"
	case RSL:
		return "RSL"
	case RSR:
		return "RSR"
	case RLR:
		return "RLR"
	case LRL:
		return "LRL"
	default:
		return "?"
	}
}

// wordDirections gives each word's three sub-segment directions: +1 for a
// left turn, -1 for a right turn, 0 for straight.
var wordDirections = [numPathTypes][3]int{
	LSL: {1, 0, 1},
	LSR: {1, 0, -1},
	RSL: {-1, 0, 1},
	RSR: {-1, 0, -1},
	RLR: {-1, 1, -1},
	LRL: {1, -1, 1},
}

// CandidatePath is one of the (up to six) Dubins words connecting a start and
// end pose at a given turning radius. Params are in radius-normalised units:
// for CSC words param[1] is a straight-line distance/rho, for CCC words all
// three are arc angles in radians. TotalLength = rho*(params[0]+params[1]+params[2])
// uniformly across word families.
type CandidatePath struct {
	Type        PathType
	Params      [3]float64
	TotalLength float64
	Rho         float64
}

// AllPaths computes every valid classic Dubins word from start to end at
// turning radius rho. Invalid words (geometrically infeasible for the given
// start/end/radius) are omitted. If sorted is true the result is ordered by
// ascending TotalLength.
func AllPaths(start, end [3]float64, rho float64, sorted bool) []CandidatePath {
	dx := end[0] - start[0]
	dy := end[1] - start[1]
	d := math.Hypot(dx, dy) / rho
	theta := mod2pi(math.Atan2(dy, dx))
	alpha := mod2pi(start[2] - theta)
	beta := mod2pi(end[2] - theta)

	var out []CandidatePath
	if p, ok := lsl(alpha, beta, d); ok {
		out = append(out, CandidatePath{LSL, p, rho * (p[0] + p[1] + p[2]), rho})
	}
	if p, ok := rsr(alpha, beta, d); ok {
		out = append(out, CandidatePath{RSR, p, rho * (p[0] + p[1] + p[2]), rho})
	}
	if p, ok := lsr(alpha, beta, d); ok {
		out = append(out, CandidatePath{LSR, p, rho * (p[0] + p[1] + p[2]), rho})
	}
	if p, ok := rsl(alpha, beta, d); ok {
		out = append(out, CandidatePath{RSL, p, rho * (p[0] + p[1] + p[2]), rho})
	}
	if p, ok := rlr(alpha, beta, d); ok {
		out = append(out, CandidatePath{RLR, p, rho * (p[0] + p[1] + p[2]), rho})
	}
	if p, ok := lrl(alpha, beta, d); ok {
		out = append(out, CandidatePath{LRL, p, rho * (p[0] + p[1] + p[2]), rho})
	}

	if sorted {
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && out[j].TotalLength < out[j-1].TotalLength; j-- {
				out[j], out[j-1] = out[j-1], out[j]
			}
		}
	}
	return out
}

// StraightPath returns the degenerate word for a pure straight run of the
// given length: an LSL with zero-angle turns. Useful for sweeping directly
// along a ribbon once the vehicle is aligned with it.
func StraightPath(length, rho float64) CandidatePath {
	return CandidatePath{Type: LSL, Params: [3]float64{0, length / rho, 0}, TotalLength: length, Rho: rho}
}

// ShortestPath returns the minimum-length feasible word, or ok=false if none
// of the six words is geometrically valid (can only happen for pathological
// inputs, e.g. d very close to the CCC feasibility boundary with NaN inputs).
func ShortestPath(start, end [3]float64, rho float64) (CandidatePath, bool) {
	paths := AllPaths(start, end, rho, true)
	if len(paths) == 0 {
		return CandidatePath{}, false
	}
	return paths[0], true
}

// ShortestPathAmong is ShortestPath restricted to a chosen word family:
// with includeCCC false only the four turn-straight-turn words are
// considered; true widens the candidate set to the RLR/LRL words as well,
// which only win for poses closer than about four turning radii.
func ShortestPathAmong(start, end [3]float64, rho float64, includeCCC bool) (CandidatePath, bool) {
	for _, p := range AllPaths(start, end, rho, true) {
		if !includeCCC && (p.Type == RLR || p.Type == LRL) {
			continue
		}
		return p, true
	}
	return CandidatePath{}, false
}

func lsl(alpha, beta, d float64) ([3]float64, bool) {
	pSq := 2 + d*d - 2*math.Cos(alpha-beta) + 2*d*(math.Sin(alpha)-math.Sin(beta))
	if pSq < 0 {
		return [3]float64{}, false
	}
	tmp := math.Atan2(math.Cos(beta)-math.Cos(alpha), d+math.Sin(alpha)-math.Sin(beta))
	t := mod2pi(-alpha + tmp)
	p := math.Sqrt(pSq)
	q := mod2pi(beta - tmp)
	return [3]float64{t, p, q}, true
}

func rsr(alpha, beta, d float64) ([3]float64, bool) {
	pSq := 2 + d*d - 2*math.Cos(alpha-beta) + 2*d*(math.Sin(beta)-math.Sin(alpha))
	if pSq < 0 {
		return [3]float64{}, false
	}
	tmp := math.Atan2(math.Cos(alpha)-math.Cos(beta), d-math.Sin(alpha)+math.Sin(beta))
	t := mod2pi(alpha - tmp)
	p := math.Sqrt(pSq)
	q := mod2pi(-beta + tmp)
	return [3]float64{t, p, q}, true
}

func lsr(alpha, beta, d float64) ([3]float64, bool) {
	pSq := -2 + d*d + 2*math.Cos(alpha-beta) + 2*d*(math.Sin(alpha)+math.Sin(beta))
	if pSq < 0 {
		return [3]float64{}, false
	}
	p := math.Sqrt(pSq)
	tmp := math.Atan2(-math.Cos(alpha)-math.Cos(beta), d+math.Sin(alpha)+math.Sin(beta)) - math.Atan2(-2.0, p)
	t := mod2pi(-alpha + tmp)
	q := mod2pi(-mod2pi(beta) + tmp)
	return [3]float64{t, p, q}, true
}

func rsl(alpha, beta, d float64) ([3]float64, bool) {
	pSq := -2 + d*d + 2*math.Cos(alpha-beta) - 2*d*(math.Sin(alpha)+math.Sin(beta))
	if pSq < 0 {
		return [3]float64{}, false
	}
	p := math.Sqrt(pSq)
	tmp := math.Atan2(math.Cos(alpha)+math.Cos(beta), d-math.Sin(alpha)-math.Sin(beta)) - math.Atan2(2.0, p)
	t := mod2pi(alpha - tmp)
	q := mod2pi(beta - tmp)
	return [3]float64{t, p, q}, true
}

func rlr(alpha, beta, d float64) ([3]float64, bool) {
	tmp := (6.0 - d*d + 2*math.Cos(alpha-beta) + 2*d*(math.Sin(alpha)-math.Sin(beta))) / 8.0
	if math.Abs(tmp) > 1 {
		return [3]float64{}, false
	}
	p := mod2pi(2*math.Pi - math.Acos(tmp))
	t := mod2pi(alpha - math.Atan2(math.Cos(alpha)-math.Cos(beta), d-math.Sin(alpha)+math.Sin(beta)) + p/2)
	q := mod2pi(alpha - beta - t + p)
	return [3]float64{t, p, q}, true
}

func lrl(alpha, beta, d float64) ([3]float64, bool) {
	tmp := (6.0 - d*d + 2*math.Cos(alpha-beta) + 2*d*(math.Sin(beta)-math.Sin(alpha))) / 8.0
	if math.Abs(tmp) > 1 {
		return [3]float64{}, false
	}
	p := mod2pi(2*math.Pi - math.Acos(tmp))
	t := mod2pi(-alpha + math.Atan2(-math.Cos(alpha)+math.Cos(beta), d+math.Sin(alpha)-math.Sin(beta)) + p/2)
	q := mod2pi(beta - alpha - t + p)
	return [3]float64{t, p, q}, true
}

// propagate walks arc-length s from pose (x,y,yaw) along a sub-segment of
// the given direction (1=left, -1=right, 0=straight) at radius rho. yaw is
// in math convention (radians CCW from +X).
func propagate(x, y, yaw float64, dir int, rho, s float64) (nx, ny, nyaw float64) {
	switch dir {
	case 1:
		beta := s / rho
		nx = x + rho*(math.Sin(yaw+beta)-math.Sin(yaw))
		ny = y - rho*(math.Cos(yaw+beta)-math.Cos(yaw))
		nyaw = yaw + beta
	case -1:
		beta := s / rho
		nx = x - rho*(math.Sin(yaw-beta)-math.Sin(yaw))
		ny = y + rho*(math.Cos(yaw-beta)-math.Cos(yaw))
		nyaw = yaw - beta
	default:
		nx = x + s*math.Cos(yaw)
		ny = y + s*math.Sin(yaw)
		nyaw = yaw
	}
	return nx, ny, nyaw
}

// subSegmentLengths returns the three sub-segment arc lengths (in metres) of
// a candidate path's word at radius rho.
func subSegmentLengths(p CandidatePath) [3]float64 {
	return [3]float64{p.Rho * p.Params[0], p.Rho * p.Params[1], p.Rho * p.Params[2]}
}

// pointAt returns the pose after travelling arc-length s (clamped to
// [0, TotalLength]) along path p starting at (x0,y0,yaw0) (math convention).
func pointAt(p CandidatePath, x0, y0, yaw0, s float64) (x, y, yaw float64) {
	if s < 0 {
		s = 0
	}
	if s > p.TotalLength {
		s = p.TotalLength
	}
	lens := subSegmentLengths(p)
	dirs := wordDirections[p.Type]

	x, y, yaw = x0, y0, yaw0
	remaining := s
	for i := 0; i < 3; i++ {
		if remaining <= lens[i] || i == 2 {
			step := remaining
			if step > lens[i] {
				step = lens[i]
			}
			x, y, yaw = propagate(x, y, yaw, dirs[i], p.Rho, step)
			return x, y, mod2pi(yaw)
		}
		x, y, yaw = propagate(x, y, yaw, dirs[i], p.Rho, lens[i])
		remaining -= lens[i]
	}
	return x, y, mod2pi(yaw)
}

// GeneratePoints discretises path p (starting at x0,y0,yaw0 in math
// convention) into points spaced pointSeparation metres apart along the arc,
// always including the final point.
func GeneratePoints(p CandidatePath, x0, y0, yaw0, pointSeparation float64) [][3]float64 {
	if pointSeparation <= 0 {
		pointSeparation = p.TotalLength
	}
	var pts [][3]float64
	for s := 0.0; s < p.TotalLength; s += pointSeparation {
		x, y, yaw := pointAt(p, x0, y0, yaw0, s)
		pts = append(pts, [3]float64{x, y, yaw})
	}
	x, y, yaw := pointAt(p, x0, y0, yaw0, p.TotalLength)
	pts = append(pts, [3]float64{x, y, yaw})
	return pts
}

package dubins

import (
	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when sampling a plan or segment at a time outside
// its covered interval.
var ErrOutOfRange = errors.New("dubins: time out of range")

// Segment is one constant-speed, constant-curvature Dubins curve with a
// start time: an unwrapped Dubins path (qi, params, type, rho) plus speed
// and startTime.
type Segment struct {
	Qi     [3]float64 // x, y, yaw (math convention) at path start
	Path   CandidatePath
	Speed  float64
	Start  float64
}

// NewSegment builds a Segment from a start state, a candidate Dubins word at
// the given radius, and a speed, beginning at startTime.
func NewSegment(start State, word CandidatePath, speed, startTime float64) Segment {
	return Segment{
		Qi:    [3]float64{start.X, start.Y, mathYaw(start.Heading)},
		Path:  word,
		Speed: speed,
		Start: startTime,
	}
}

// End returns the segment's end time, startTime + totalArcLength/speed.
func (s Segment) End() float64 {
	if s.Speed <= 0 {
		return s.Start
	}
	return s.Start + s.Path.TotalLength/s.Speed
}

// ContainsTime reports whether t falls within [Start, End] inclusive.
func (s Segment) ContainsTime(t float64) bool {
	return t >= s.Start && t <= s.End()
}

// Sample returns the State at time t, the fractional arc speed*(t-startTime)
// along the curve. Callers should check ContainsTime first; Sample clamps
// out-of-range t to the nearest endpoint rather than erroring, since
// Plan.Sample is responsible for the ErrOutOfRange contract across
// segments.
func (s Segment) Sample(t float64) State {
	arc := s.Speed * (t - s.Start)
	x, y, yaw := pointAt(s.Path, s.Qi[0], s.Qi[1], s.Qi[2], arc)
	return State{
		X:       x,
		Y:       y,
		Heading: mod2pi(headingFromYaw(yaw)),
		Speed:   s.Speed,
		Time:    t,
	}
}

// EndState is a convenience for Sample(s.End()).
func (s Segment) EndState() State {
	return s.Sample(s.End())
}

// Points discretises the segment at pointSeparation metre spacing, returning
// full States (with time filled in) rather than bare poses.
func (s Segment) Points(pointSeparation float64) []State {
	raw := GeneratePoints(s.Path, s.Qi[0], s.Qi[1], s.Qi[2], pointSeparation)
	out := make([]State, len(raw))
	for i, p := range raw {
		// arc length fraction, not chord distance, since chord distance
		// underestimates true travel on a curved sub-segment.
		frac := float64(i) * pointSeparation
		if frac > s.Path.TotalLength {
			frac = s.Path.TotalLength
		}
		t := s.Start
		if s.Speed > 0 {
			t = s.Start + frac/s.Speed
		}
		out[i] = State{X: p[0], Y: p[1], Heading: mod2pi(headingFromYaw(p[2])), Speed: s.Speed, Time: t}
	}
	if n := len(out); n > 0 {
		out[n-1].Time = s.End()
	}
	return out
}

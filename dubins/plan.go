package dubins

// Plan is a finite ordered sequence of non-overlapping Segments. Consecutive
// segments are expected to satisfy si.End() <= si+1.Start (equality is the
// normal case; strict gaps are permitted, but sampling inside a gap fails
// with ErrOutOfRange).
type Plan struct {
	Segments  []Segment
	Dangerous bool // advisory bit: the planner believes this plan crosses non-zero obstacle cost
}

// Empty reports whether the plan has zero segments.
func (p Plan) Empty() bool {
	return len(p.Segments) == 0
}

// Append pushes a segment to the tail. The caller is responsible for
// temporal monotonicity (segment.Start >= previous segment's End()).
func (p *Plan) Append(s Segment) {
	p.Segments = append(p.Segments, s)
}

// StartTime returns the first segment's start time. Callers must check
// Empty() first; on an empty plan this returns 0.
func (p Plan) StartTime() float64 {
	if p.Empty() {
		return 0
	}
	return p.Segments[0].Start
}

// EndTime returns the last segment's end time. Callers must check Empty()
// first; on an empty plan this returns 0.
func (p Plan) EndTime() float64 {
	if p.Empty() {
		return 0
	}
	return p.Segments[len(p.Segments)-1].End()
}

// ContainsTime is the disjunction of ContainsTime over every segment.
func (p Plan) ContainsTime(t float64) bool {
	for _, s := range p.Segments {
		if s.ContainsTime(t) {
			return true
		}
	}
	return false
}

// Sample finds the first segment whose ContainsTime(t) holds and samples it.
// It fails with ErrOutOfRange if no segment contains t.
func (p Plan) Sample(t float64) (State, error) {
	for _, s := range p.Segments {
		if s.ContainsTime(t) {
			return s.Sample(t), nil
		}
	}
	return State{}, ErrOutOfRange
}

// ChangeIntoSuffix drops every segment with End() < t0; remaining segments
// are not retimed, so the first retained segment's Start may be earlier than
// t0. The plan may become empty. This mutates p in place and also returns it
// for chaining.
func (p *Plan) ChangeIntoSuffix(t0 float64) *Plan {
	i := 0
	for i < len(p.Segments) && p.Segments[i].End() < t0 {
		i++
	}
	p.Segments = p.Segments[i:]
	return p
}

// Clone returns a deep copy; since Segment is a value type with no pointer
// fields this is just a slice copy, but it is spelled out so callers never
// need to reason about aliasing the backing array.
func (p Plan) Clone() Plan {
	cp := Plan{Dangerous: p.Dangerous}
	if len(p.Segments) > 0 {
		cp.Segments = make([]Segment, len(p.Segments))
		copy(cp.Segments, p.Segments)
	}
	return cp
}

// halfSecondInterval is the canonical density for display sampling.
const halfSecondInterval = 0.5

// HalfSecondSamples returns samples at startTime, startTime+0.5, … up to and
// including EndTime. Empty plans yield nil.
func (p Plan) HalfSecondSamples() []State {
	if p.Empty() {
		return nil
	}
	start, end := p.StartTime(), p.EndTime()
	var out []State
	for t := start; t < end; t += halfSecondInterval {
		st, err := p.Sample(t)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	if st, err := p.Sample(end); err == nil {
		out = append(out, st)
	}
	return out
}

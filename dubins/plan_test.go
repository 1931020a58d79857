package dubins

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func straightSegment(start, end float64, speed float64) Segment {
	word := CandidatePath{Type: LSL, Params: [3]float64{0, end - start, 0}, Rho: 1, TotalLength: end - start}
	return Segment{Qi: [3]float64{0, 0, 0}, Path: word, Speed: speed, Start: start}
}

func TestSampleWithinRangeSucceeds(t *testing.T) {
	p := Plan{}
	p.Append(straightSegment(0, 10, 1))
	p.Append(straightSegment(10, 20, 1))
	p.Append(straightSegment(20, 30, 1))

	for _, tm := range []float64{0, 5, 10, 15, 25, 30} {
		st, err := p.Sample(tm)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, st.Time, test.ShouldEqual, tm)
	}
}

func TestSampleOutOfRangeFails(t *testing.T) {
	p := Plan{}
	p.Append(straightSegment(10, 20, 1))
	_, err := p.Sample(5)
	test.That(t, err, test.ShouldEqual, ErrOutOfRange)
}

func TestChangeIntoSuffixDropsLeadingSegments(t *testing.T) {
	p := Plan{}
	p.Append(straightSegment(0, 10, 1))
	p.Append(straightSegment(10, 20, 1))
	p.Append(straightSegment(20, 30, 1))

	p.ChangeIntoSuffix(15)
	test.That(t, len(p.Segments), test.ShouldEqual, 2)
	test.That(t, p.Segments[0].Start, test.ShouldEqual, 10.0)
	test.That(t, p.Segments[1].Start, test.ShouldEqual, 20.0)

	st, err := p.Sample(25)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, st.Time, test.ShouldEqual, 25.0)

	_, err = p.Sample(5)
	test.That(t, err, test.ShouldEqual, ErrOutOfRange)
}

func TestChangeIntoSuffixIdempotentAtStartTime(t *testing.T) {
	p := Plan{}
	p.Append(straightSegment(0, 10, 1))
	p.Append(straightSegment(10, 20, 1))
	before := p.Clone()

	p.ChangeIntoSuffix(p.StartTime())
	test.That(t, len(p.Segments), test.ShouldEqual, len(before.Segments))
}

func TestChangeIntoSuffixMonotoneComposition(t *testing.T) {
	base := func() Plan {
		p := Plan{}
		p.Append(straightSegment(0, 10, 1))
		p.Append(straightSegment(10, 20, 1))
		p.Append(straightSegment(20, 30, 1))
		return p
	}

	p1 := base()
	p1.ChangeIntoSuffix(12)
	p1.ChangeIntoSuffix(22)

	p2 := base()
	p2.ChangeIntoSuffix(22)

	test.That(t, len(p1.Segments), test.ShouldEqual, len(p2.Segments))
	for i := range p1.Segments {
		test.That(t, p1.Segments[i].Start, test.ShouldEqual, p2.Segments[i].Start)
	}
}

func TestEmptyPlan(t *testing.T) {
	p := Plan{}
	test.That(t, p.Empty(), test.ShouldBeTrue)
	test.That(t, p.StartTime(), test.ShouldEqual, 0.0)
}

func TestWireRoundTrip(t *testing.T) {
	p := Plan{}
	start := [3]float64{0, 0, 0}
	word, ok := ShortestPath(start, [3]float64{10, 5, math.Pi / 4}, 2.0)
	test.That(t, ok, test.ShouldBeTrue)
	seg := Segment{Qi: start, Path: word, Speed: 2.0, Start: 0}
	p.Append(seg)

	wp := p.ToWire()
	reconstructed := FromWire(wp)

	orig := p.HalfSecondSamples()
	rt := reconstructed.HalfSecondSamples()
	test.That(t, len(rt), test.ShouldEqual, len(orig))
	for i := range orig {
		test.That(t, math.Abs(orig[i].X-rt[i].X) < 1e-9, test.ShouldBeTrue)
		test.That(t, math.Abs(orig[i].Y-rt[i].Y) < 1e-9, test.ShouldBeTrue)
		test.That(t, orig[i].Time, test.ShouldEqual, rt[i].Time)
	}
}

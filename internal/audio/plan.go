package audio

import "slices"

// splitEpsilon is the minimum distance in seconds between two split points.
// Closer candidates collapse into one.
const splitEpsilon = 1e-3

// Segment is one output file's time range.
type Segment struct {
	// Index is the position of the segment in the output sequence.
	Index int
	// Start is the inclusive start time in seconds.
	Start float64
	// End is the exclusive end time in seconds.
	End float64
	// Oversized is set when the segment exceeds the maximum length because
	// the stretch it covers holds no usable silence.
	Oversized bool
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// CandidatePoints returns 0, the midpoint of every interval and duration as a
// strictly increasing sequence. Midpoints closer than splitEpsilon to the
// previous point, or to duration, are dropped.
func CandidatePoints(intervals []Interval, duration float64) []float64 {
	if duration <= 0 {
		return []float64{0}
	}

	mids := make([]float64, 0, len(intervals))
	for _, iv := range intervals {
		mids = append(mids, iv.Midpoint())
	}
	slices.Sort(mids)

	points := make([]float64, 0, len(mids)+2)
	points = append(points, 0)
	for _, m := range mids {
		if m-points[len(points)-1] < splitEpsilon || duration-m < splitEpsilon {
			continue
		}
		points = append(points, m)
	}
	return append(points, duration)
}

// PlanSegments turns silence intervals into a contiguous partition of
// [0, duration] in which no segment is longer than maxLen unless the
// stretch between two consecutive candidate points is itself longer.
// Such a stretch becomes one Oversized segment; it is never subdivided.
//
// The result depends only on the arguments, so planning is idempotent.
func PlanSegments(intervals []Interval, duration, maxLen float64) []Segment {
	points := CandidatePoints(intervals, duration)
	if len(points) < 2 {
		return nil
	}

	var segments []Segment
	emit := func(start, end float64) {
		segments = append(segments, Segment{
			Index:     len(segments),
			Start:     start,
			End:       end,
			Oversized: end-start > maxLen,
		})
	}

	p := 0
	for i := 1; i < len(points); i++ {
		if points[i]-points[p] <= maxLen {
			continue
		}
		if i-1 != p {
			emit(points[p], points[i-1])
			p = i - 1
		}
		if points[i]-points[p] > maxLen {
			emit(points[p], points[i])
			p = i
		}
	}
	if last := len(points) - 1; p != last {
		emit(points[p], points[last])
	}
	return segments
}

// SplitPoints returns the boundaries of a segment sequence: the start of each
// segment followed by the end of the last one.
func SplitPoints(segments []Segment) []float64 {
	if len(segments) == 0 {
		return nil
	}
	points := make([]float64, 0, len(segments)+1)
	for _, s := range segments {
		points = append(points, s.Start)
	}
	return append(points, segments[len(segments)-1].End)
}

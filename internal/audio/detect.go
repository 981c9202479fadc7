package audio

// durationTolerance absorbs float error when comparing run lengths built from frame times.
const durationTolerance = 1e-9

// Interval is a span of silence in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns End - Start.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Midpoint returns the center of the interval.
func (i Interval) Midpoint() float64 {
	return (i.Start + i.End) / 2
}

// detectorState is the state of the silence run tracker.
type detectorState int

const (
	outsideSilence detectorState = iota
	inSilence
)

// Detector finds runs of levels at or below a threshold that last at least
// a minimum duration. Feed levels in time order with Observe, then call Finish.
//
// A run spans from the start of its first silent window to the end of its
// last one. A run never starts before the previous interval ended.
type Detector struct {
	thresholdDB float64
	minDuration float64

	state     detectorState
	runStart  float64
	runEnd    float64
	lastEnd   float64
	intervals []Interval
}

// NewDetector creates a Detector for the given threshold (dBFS) and minimum
// silence duration (seconds).
func NewDetector(thresholdDB, minDuration float64) *Detector {
	return &Detector{
		thresholdDB: thresholdDB,
		minDuration: minDuration,
		state:       outsideSilence,
	}
}

// Observe feeds the next level.
func (d *Detector) Observe(l Level) {
	silent := l.DB <= d.thresholdDB

	switch d.state {
	case outsideSilence:
		if silent {
			d.state = inSilence
			d.runStart = max(l.Time, d.lastEnd)
			d.runEnd = l.End
		}
	case inSilence:
		if silent {
			d.runEnd = l.End
			return
		}
		d.state = outsideSilence
		d.closeRun(d.runEnd)
	}
}

func (d *Detector) inRun() bool {
	return d.state == inSilence
}

// Finish closes an open run at duration and returns all qualifying intervals.
// An empty result means no silence was found.
func (d *Detector) Finish(duration float64) []Interval {
	if d.inRun() {
		d.state = outsideSilence
		if duration > d.runStart {
			d.closeRun(duration)
		}
	}
	out := make([]Interval, len(d.intervals))
	copy(out, d.intervals)
	return out
}

func (d *Detector) closeRun(end float64) {
	run := Interval{Start: d.runStart, End: end}
	if run.Duration() >= d.minDuration-durationTolerance {
		d.intervals = append(d.intervals, run)
		d.lastEnd = end
	}
}

// DetectSilence runs a Detector over every level from levels.
func DetectSilence(levels LevelScanner, duration, thresholdDB, minDuration float64) ([]Interval, error) {
	d := NewDetector(thresholdDB, minDuration)
	for levels.Scan() {
		d.Observe(levels.Level())
	}
	if err := levels.Err(); err != nil {
		return nil, err
	}
	return d.Finish(duration), nil
}

package audio

import (
	"math"

	"github.com/maauso/wavsplit/internal/pcm"
)

const (
	// LevelFloorDB is reported for windows whose RMS is zero or below the floor.
	LevelFloorDB = -120.0

	// windowsPerMinSilence is how many analysis windows fit in the minimum silence duration.
	windowsPerMinSilence = 4
	// hopsPerWindow is how many hops one window spans.
	hopsPerWindow = 4
)

// Level is the loudness of one analysis window.
type Level struct {
	// Time is the start of the window in seconds.
	Time float64
	// End is where the window stops in seconds. Only the final window may
	// be shorter than the others.
	End float64
	// DB is the RMS level of the window in dBFS.
	DB float64
}

// LevelScanner yields levels in time order.
type LevelScanner interface {
	Scan() bool
	Level() Level
	Err() error
}

// Meter turns a PCM source into a lazy sequence of windowed RMS levels.
// Windows are hopsPerWindow hops long and start every hop; the last window
// always ends at the final frame, so a trailing partial window is included.
//
// Use it like bufio.Scanner: call Scan until it returns false, then check Err.
type Meter struct {
	src       pcm.Source
	format    pcm.Format
	fullScale float64
	hop       int64 // frames

	// per-hop sums of squares and sample counts for the blocks in the current window
	sums   []float64
	counts []int

	nextFrame int64
	window    int64
	emitted   bool
	eof       bool

	level Level
	err   error
}

// Compile-time check that Meter implements LevelScanner.
var _ LevelScanner = (*Meter)(nil)

// NewMeter creates a Meter whose window is a quarter of minSilence seconds.
func NewMeter(src pcm.Source, minSilence float64) *Meter {
	format := src.Format()
	windowFrames := int64(math.Round(minSilence / windowsPerMinSilence * float64(format.SampleRate)))
	hop := max(windowFrames/hopsPerWindow, 1)

	return &Meter{
		src:       src,
		format:    format,
		fullScale: format.FullScale(),
		hop:       hop,
		sums:      make([]float64, 0, hopsPerWindow),
		counts:    make([]int, 0, hopsPerWindow),
	}
}

// Window returns the window length in seconds.
func (m *Meter) Window() float64 {
	return m.format.Seconds(m.hop * hopsPerWindow)
}

// Hop returns the distance between window starts in seconds.
func (m *Meter) Hop() float64 {
	return m.format.Seconds(m.hop)
}

// Scan advances to the next window. It returns false at the end of the
// source or on a read error.
func (m *Meter) Scan() bool {
	if m.err != nil {
		return false
	}

	for len(m.sums) < hopsPerWindow && !m.eof {
		if err := m.readBlock(); err != nil {
			m.err = err
			return false
		}
	}

	if len(m.sums) == 0 {
		return false
	}
	// Once a window has reached the last frame, shorter tail windows add nothing.
	if len(m.sums) < hopsPerWindow && m.emitted {
		return false
	}

	var sum float64
	var count int
	for i := range m.sums {
		sum += m.sums[i]
		count += m.counts[i]
	}

	start := m.window * m.hop
	m.level = Level{
		Time: m.format.Seconds(start),
		End:  m.format.Seconds(start + int64(count/m.format.Channels)),
		DB:   levelDB(sum, count, m.fullScale),
	}
	m.window++
	m.emitted = true

	m.sums = m.sums[1:]
	m.counts = m.counts[1:]
	return true
}

// Level returns the level produced by the last successful Scan.
func (m *Meter) Level() Level {
	return m.level
}

// Err returns the first read error, if any.
func (m *Meter) Err() error {
	return m.err
}

// readBlock reads one hop of frames and appends its sum of squares.
func (m *Meter) readBlock() error {
	if m.nextFrame >= m.src.Frames() {
		m.eof = true
		return nil
	}

	samples, err := m.src.ReadFrames(m.nextFrame, m.nextFrame+m.hop)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		m.eof = true
		return nil
	}

	m.sums = append(m.sums, sumSquares(samples))
	m.counts = append(m.counts, len(samples))
	m.nextFrame += m.hop
	return nil
}

func sumSquares(samples []int) float64 {
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return sum
}

// levelDB converts the sum of squares of n samples to an RMS level in dBFS.
func levelDB(sum float64, n int, fullScale float64) float64 {
	if n == 0 {
		return LevelFloorDB
	}
	return rmsToDB(math.Sqrt(sum/float64(n)), fullScale)
}

func rmsToDB(rms, fullScale float64) float64 {
	if rms <= 0 {
		return LevelFloorDB
	}
	return math.Max(20*math.Log10(rms/fullScale), LevelFloorDB)
}

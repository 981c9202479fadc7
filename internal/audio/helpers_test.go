package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maauso/wavsplit/internal/pcm"
)

var testFormat = pcm.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}

// signal builds mono samples from consecutive sine parts.
type signal struct {
	format  pcm.Format
	samples []int
}

func newSignal(format pcm.Format) *signal {
	return &signal{format: format}
}

// sine appends seconds of a 440 Hz sine whose RMS level is levelDB dBFS.
func (s *signal) sine(seconds, levelDB float64) *signal {
	amp := s.format.FullScale() * math.Pow(10, levelDB/20) * math.Sqrt2
	n := int(math.Round(seconds * float64(s.format.SampleRate)))
	start := len(s.samples) / s.format.Channels
	for i := 0; i < n; i++ {
		v := int(math.Round(amp * math.Sin(2*math.Pi*440*float64(start+i)/float64(s.format.SampleRate))))
		for c := 0; c < s.format.Channels; c++ {
			s.samples = append(s.samples, v)
		}
	}
	return s
}

// zeros appends seconds of digital silence.
func (s *signal) zeros(seconds float64) *signal {
	n := int(math.Round(seconds*float64(s.format.SampleRate))) * s.format.Channels
	s.samples = append(s.samples, make([]int, n)...)
	return s
}

func (s *signal) source(t *testing.T) *pcm.MemorySource {
	t.Helper()
	src, err := pcm.NewMemorySource(s.format, s.samples)
	require.NoError(t, err)
	return src
}

var errBrokenSource = errors.New("broken source")

// brokenSource fails every read after the first failAfter frames.
type brokenSource struct {
	pcm.Source
	failAfter int64
}

func (b *brokenSource) ReadFrames(start, end int64) ([]int, error) {
	if end > b.failAfter {
		return nil, errBrokenSource
	}
	return b.Source.ReadFrames(start, end)
}

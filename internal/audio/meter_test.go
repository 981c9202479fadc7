package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLevels(t *testing.T, m *Meter) []Level {
	t.Helper()
	var levels []Level
	for m.Scan() {
		levels = append(levels, m.Level())
	}
	require.NoError(t, m.Err())
	return levels
}

func TestLevelDB(t *testing.T) {
	const fs = 32768.0

	tests := []struct {
		name    string
		samples []int
		want    float64
	}{
		{"full scale square", []int{32768, -32768, 32768, -32768}, 0},
		{"half scale square", []int{16384, -16384}, -6.0206},
		{"tenth of a percent", []int{33, -33}, -59.939},
		{"digital silence", []int{0, 0, 0}, LevelFloorDB},
		{"empty", nil, LevelFloorDB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := levelDB(sumSquares(tt.samples), len(tt.samples), fs)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestLevelDB_ClampsToFloor(t *testing.T) {
	// One LSB in a long 32-bit window is far below the floor.
	samples := make([]int, 1000)
	samples[0] = 1
	assert.Equal(t, LevelFloorDB, levelDB(sumSquares(samples), len(samples), float64(int64(1)<<31)))
}

func TestMeter_WindowAndHop(t *testing.T) {
	src := newSignal(testFormat).zeros(1).source(t)

	m := NewMeter(src, 0.2)
	assert.InDelta(t, 0.05, m.Window(), 1e-12)
	assert.InDelta(t, 0.0125, m.Hop(), 1e-12)
}

func TestMeter_CoversWholeSource(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
	}{
		{"whole number of hops", 1.0},
		{"partial final hop", 1.00375},
		{"shorter than one window", 0.03},
		{"single frame", 1.0 / 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newSignal(testFormat).sine(tt.seconds, -20).source(t)
			duration := float64(src.Frames()) / 8000

			m := NewMeter(src, 0.2)
			levels := collectLevels(t, m)
			require.NotEmpty(t, levels)

			assert.Equal(t, 0.0, levels[0].Time)
			for i, l := range levels {
				assert.Greater(t, l.End, l.Time)
				assert.LessOrEqual(t, l.End-l.Time, m.Window()+1e-12)
				if i > 0 {
					assert.Greater(t, l.Time, levels[i-1].Time)
				}
			}

			last := levels[len(levels)-1]
			assert.Less(t, last.Time, duration)
			assert.InDelta(t, duration, last.End, 1e-12, "last window ends at the final frame")
		})
	}
}

func TestMeter_EmptySource(t *testing.T) {
	src := newSignal(testFormat).source(t)

	m := NewMeter(src, 0.2)
	assert.False(t, m.Scan())
	assert.NoError(t, m.Err())
}

func TestMeter_TracksLevelChanges(t *testing.T) {
	src := newSignal(testFormat).sine(1, -10).zeros(1).sine(1, -40).source(t)

	levels := collectLevels(t, NewMeter(src, 0.2))

	at := func(sec float64) float64 {
		for _, l := range levels {
			if l.Time >= sec {
				return l.DB
			}
		}
		t.Fatalf("no level at %.3f", sec)
		return 0
	}

	assert.InDelta(t, -10, at(0.5), 0.5)
	assert.Equal(t, LevelFloorDB, at(1.5))
	assert.InDelta(t, -40, at(2.5), 0.5)
}

func TestMeter_MultiChannel(t *testing.T) {
	stereo := testFormat
	stereo.Channels = 2
	src := newSignal(stereo).sine(0.5, -20).source(t)

	levels := collectLevels(t, NewMeter(src, 0.2))
	require.NotEmpty(t, levels)
	assert.InDelta(t, -20, levels[len(levels)/2].DB, 0.5)
}

func TestMeter_PropagatesReadError(t *testing.T) {
	src := &brokenSource{
		Source:    newSignal(testFormat).zeros(1).source(t),
		failAfter: 4000,
	}

	m := NewMeter(src, 0.2)
	n := 0
	for m.Scan() {
		n++
	}
	assert.ErrorIs(t, m.Err(), errBrokenSource)
	assert.Positive(t, n)
	assert.False(t, m.Scan())
}

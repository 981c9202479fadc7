// Package audio finds silence in PCM audio and plans where to split it.
//
// The pipeline is a Meter producing windowed RMS levels, a Detector turning
// levels into silence intervals, and PlanSegments turning intervals into a
// contiguous list of segments bounded by a maximum length. Writer then
// materializes the segments as numbered WAV files.
package audio

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/maauso/wavsplit/internal/pcm"
)

var (
	// ErrNoSilenceFound is returned when the input holds no qualifying silence.
	ErrNoSilenceFound = errors.New("no silence segments found")

	// ErrInvalidOpts is returned when SplitOpts fail validation.
	ErrInvalidOpts = errors.New("invalid split options")
)

var validate = validator.New()

// SplitOpts configures silence detection and segment planning.
type SplitOpts struct {
	// ThresholdDB is the level in dBFS at or below which audio counts as silence.
	// Default: -35 dBFS.
	ThresholdDB float64 `validate:"lte=0"`

	// MinSilenceSec is the minimum silence duration in seconds to consider
	// for a split point. It also sets the analysis window length.
	// Default: 0.2 seconds.
	MinSilenceSec float64 `validate:"gt=0"`

	// MaxSegmentSec is the maximum segment length in seconds. Stretches
	// without usable silence may still exceed it.
	// Default: 60 seconds.
	MaxSegmentSec float64 `validate:"gt=0"`
}

// DefaultSplitOpts returns the default options for audio splitting.
func DefaultSplitOpts() SplitOpts {
	return SplitOpts{
		ThresholdDB:   -35,
		MinSilenceSec: 0.2,
		MaxSegmentSec: 60,
	}
}

// Validate checks the options before any analysis runs.
func (o SplitOpts) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOpts, err)
	}
	return nil
}

// Analysis is the outcome of analysing one source.
type Analysis struct {
	Format   pcm.Format
	Duration float64
	// Window and Hop are the level meter's window length and step in seconds.
	Window float64
	Hop    float64

	Silences []Interval
	Segments []Segment
}

// SplitPoints returns the segment boundaries, from 0 to Duration.
func (a *Analysis) SplitPoints() []float64 {
	return SplitPoints(a.Segments)
}

// OversizedCount returns how many segments exceed the maximum length.
func (a *Analysis) OversizedCount() int {
	n := 0
	for _, s := range a.Segments {
		if s.Oversized {
			n++
		}
	}
	return n
}

// Analyze measures src, detects silence and plans segments.
// It returns ErrNoSilenceFound, together with the partial analysis, when no
// silence qualifies.
func Analyze(src pcm.Source, opts SplitOpts) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	a := &Analysis{
		Format:   src.Format(),
		Duration: pcm.Duration(src),
	}

	meter := NewMeter(src, opts.MinSilenceSec)
	a.Window = meter.Window()
	a.Hop = meter.Hop()
	silences, err := DetectSilence(meter, a.Duration, opts.ThresholdDB, opts.MinSilenceSec)
	if err != nil {
		return nil, fmt.Errorf("measure levels: %w", err)
	}
	a.Silences = silences
	if len(silences) == 0 {
		return a, ErrNoSilenceFound
	}

	a.Segments = PlanSegments(silences, a.Duration, opts.MaxSegmentSec)
	return a, nil
}

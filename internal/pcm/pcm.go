// Package pcm provides read access to linear PCM audio.
// It defines the Source interface consumed by the silence analysis and the
// segment writer, plus a WAV implementation backed by go-audio/wav and an
// in-memory implementation.
package pcm

import (
	"errors"
	"fmt"
	"math"
)

// ErrInputFormat is returned when audio cannot be parsed or uses an
// unsupported encoding.
var ErrInputFormat = errors.New("unsupported input format")

// supportedBitDepths lists the integer sample widths Source implementations accept.
var supportedBitDepths = map[int]bool{16: true, 24: true, 32: true}

// Format describes the layout of interleaved integer PCM samples.
type Format struct {
	// SampleRate is the number of frames per second.
	SampleRate int
	// Channels is the number of samples per frame.
	Channels int
	// BitDepth is the width of one sample in bits.
	BitDepth int
}

// Validate checks that the format can be analysed and written back.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInputFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channel count must be positive, got %d", ErrInputFormat, f.Channels)
	}
	if !supportedBitDepths[f.BitDepth] {
		return fmt.Errorf("%w: %d-bit samples (only 16, 24 and 32-bit PCM is supported)", ErrInputFormat, f.BitDepth)
	}
	return nil
}

// FullScale returns the magnitude corresponding to 0 dBFS.
func (f Format) FullScale() float64 {
	return float64(int64(1) << (f.BitDepth - 1))
}

// FrameAt converts a time offset in seconds to the nearest frame index.
func (f Format) FrameAt(sec float64) int64 {
	return int64(math.Round(sec * float64(f.SampleRate)))
}

// Seconds converts a frame count to seconds.
func (f Format) Seconds(frames int64) float64 {
	return float64(frames) / float64(f.SampleRate)
}

// Source exposes decoded PCM frames.
type Source interface {
	// Format returns the sample layout of the source.
	Format() Format

	// Frames returns the total number of frames.
	Frames() int64

	// ReadFrames returns the interleaved samples of frames [start, end).
	// end is clamped to Frames(). Sequential, increasing reads are the
	// cheap path; implementations may be slower on backward reads.
	ReadFrames(start, end int64) ([]int, error)
}

// Duration returns the length of src in seconds.
func Duration(src Source) float64 {
	return src.Format().Seconds(src.Frames())
}

// Read returns the interleaved samples between two time offsets in seconds.
// It serves library callers that address audio by time; the segment writer
// converts to frames once and streams with ReadFrames.
func Read(src Source, start, end float64) ([]int, error) {
	f := src.Format()
	return src.ReadFrames(f.FrameAt(start), f.FrameAt(end))
}

func checkRange(start, end, frames int64) (int64, error) {
	if end > frames {
		end = frames
	}
	if start < 0 || start > end {
		return 0, fmt.Errorf("invalid frame range [%d, %d) of %d frames", start, end, frames)
	}
	return end, nil
}

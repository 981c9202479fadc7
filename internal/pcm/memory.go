package pcm

import "fmt"

// Compile-time check that MemorySource implements Source.
var _ Source = (*MemorySource)(nil)

// MemorySource is a Source over samples already held in memory.
type MemorySource struct {
	format  Format
	samples []int
}

// NewMemorySource creates a MemorySource from interleaved samples.
func NewMemorySource(format Format, samples []int) (*MemorySource, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if len(samples)%format.Channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not fill %d-channel frames", ErrInputFormat, len(samples), format.Channels)
	}
	return &MemorySource{format: format, samples: samples}, nil
}

// Format implements Source.
func (m *MemorySource) Format() Format {
	return m.format
}

// Frames implements Source.
func (m *MemorySource) Frames() int64 {
	return int64(len(m.samples) / m.format.Channels)
}

// ReadFrames implements Source. The returned slice is a copy.
func (m *MemorySource) ReadFrames(start, end int64) ([]int, error) {
	end, err := checkRange(start, end, m.Frames())
	if err != nil {
		return nil, err
	}
	ch := int64(m.format.Channels)
	out := make([]int, (end-start)*ch)
	copy(out, m.samples[start*ch:end*ch])
	return out, nil
}

package pcmtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/wavsplit/internal/pcm"
)

func TestWriteFile(t *testing.T) {
	format := pcm.Format{SampleRate: 8000, Channels: 2, BitDepth: 16}
	samples := []int{0, 1, -1, 200, -300, 32767}

	src, err := pcm.OpenWAV(WriteFile(t, format, samples))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	assert.Equal(t, format, src.Format())
	got, err := src.ReadFrames(0, src.Frames())
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

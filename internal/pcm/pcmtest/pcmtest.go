// Package pcmtest provides WAV fixtures for tests of packages that read
// audio through pcm.
package pcmtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maauso/wavsplit/internal/pcm"
)

// WriteFile encodes interleaved samples as a WAV file in a fresh temporary
// directory and returns its path.
func WriteFile(t testing.TB, format pcm.Format, samples []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	w, err := pcm.NewWAVWriter(f, format)
	require.NoError(t, err)
	require.NoError(t, w.Write(samples))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

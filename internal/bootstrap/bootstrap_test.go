package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/wavsplit/internal/config"
	"github.com/maauso/wavsplit/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDependencies_Local(t *testing.T) {
	cfg := &config.Config{OutputDir: filepath.Join(t.TempDir(), "out")}

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, deps.SplitService)

	store, err := initStorage(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStorage{}, store)
	assert.Equal(t, cfg.OutputDir, store.Dir())
}

func TestNewDependencies_S3(t *testing.T) {
	cfg := &config.Config{
		OutputDir:          t.TempDir(),
		S3Bucket:           "bucket",
		S3Region:           "us-east-1",
		S3Endpoint:         "http://localhost:9000",
		AWSAccessKeyID:     "key",
		AWSSecretAccessKey: "secret",
	}

	deps, err := NewDependencies(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, deps.SplitService)

	store, err := initStorage(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &storage.S3Storage{}, store)
}

func TestNewDependencies_OutputIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "taken")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := NewDependencies(context.Background(), &config.Config{OutputDir: file}, testLogger())
	assert.ErrorIs(t, err, storage.ErrNotDirectory)
}

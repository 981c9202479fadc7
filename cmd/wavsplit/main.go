// Command wavsplit splits a linear-PCM WAV recording into numbered segment
// files at its silences, keeping every segment under a maximum length
// wherever the audio allows.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/maauso/wavsplit/internal/audio"
	"github.com/maauso/wavsplit/internal/config"
	"github.com/maauso/wavsplit/internal/pcm"
	"github.com/maauso/wavsplit/internal/storage"
)

// Exit codes.
const (
	exitOK            = 0
	exitFailure       = 1
	exitNoSilence     = 2
	exitNotDirectory  = 3
	exitInvalidConfig = 4
	exitInputFormat   = 5
	exitWriteFailed   = 6
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(os.Stdout, os.Stderr)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "wavsplit: %v\n", err)
	}
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	var writeErr *audio.WriteError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, audio.ErrNoSilenceFound):
		return exitNoSilence
	case errors.Is(err, storage.ErrNotDirectory):
		return exitNotDirectory
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, audio.ErrInvalidOpts):
		return exitInvalidConfig
	case errors.Is(err, pcm.ErrInputFormat):
		return exitInputFormat
	case errors.Is(err, context.Canceled):
		return exitFailure
	case errors.As(err, &writeErr):
		return exitWriteFailed
	default:
		return exitFailure
	}
}

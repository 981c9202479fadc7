package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maauso/wavsplit/internal/bootstrap"
	"github.com/maauso/wavsplit/internal/config"
)

// flagValues holds command-line overrides. Only flags the user actually set
// are applied on top of the loaded configuration.
type flagValues struct {
	configPath string

	thresholdDB   float64
	minSilenceSec float64
	maxSegmentSec float64
	outputDir     string
	simulate      bool

	logFormat string
	logLevel  string

	s3Bucket string
	s3Region string
	s3Prefix string
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "wavsplit [flags] FILE",
		Short: "Split a WAV recording at silence",
		Long: `wavsplit finds silences in a linear-PCM WAV file and writes the audio
between them as numbered segment files (00000.wav, 00001.wav, ...).
Segments are kept under the maximum length by splitting at the middle of a
silence; a stretch without any silence is written whole.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}
			return runSplit(cmd, cfg, args[0], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	f := cmd.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "Configuration file path (TOML)")
	f.Float64VarP(&flags.thresholdDB, "thresh", "t", -35, "Silence threshold in dBFS")
	f.Float64VarP(&flags.minSilenceSec, "dur", "d", 0.2, "Minimum silence duration in seconds")
	f.Float64VarP(&flags.maxSegmentSec, "len", "l", 60, "Maximum segment length in seconds")
	f.StringVarP(&flags.outputDir, "output-dir", "o", ".", "Directory segment files are written to")
	f.BoolVarP(&flags.simulate, "simulate", "s", false, "Plan and log segments without writing files")
	f.StringVar(&flags.logFormat, "log-format", "text", "Log format: text or json")
	f.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	f.StringVar(&flags.s3Bucket, "s3-bucket", "", "Publish segments to this S3 bucket")
	f.StringVar(&flags.s3Region, "s3-region", "", "Region of the S3 bucket")
	f.StringVar(&flags.s3Prefix, "s3-prefix", "", "Key prefix for published segments")

	return cmd
}

// resolveConfig loads the config file and environment, applies flags the
// user set and validates the result.
func resolveConfig(cmd *cobra.Command, flags *flagValues) (*config.Config, error) {
	cfg, err := config.Load(cmd.Context(), flags.configPath)
	if err != nil {
		return nil, err
	}

	set := cmd.Flags().Changed
	if set("thresh") {
		cfg.ThresholdDB = flags.thresholdDB
	}
	if set("dur") {
		cfg.MinSilenceSec = flags.minSilenceSec
	}
	if set("len") {
		cfg.MaxSegmentSec = flags.maxSegmentSec
	}
	if set("output-dir") {
		cfg.OutputDir = flags.outputDir
	}
	if set("simulate") {
		cfg.Simulate = flags.simulate
	}
	if set("log-format") {
		cfg.LogFormat = flags.logFormat
	}
	if set("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if set("s3-bucket") {
		cfg.S3Bucket = flags.s3Bucket
	}
	if set("s3-region") {
		cfg.S3Region = flags.s3Region
	}
	if set("s3-prefix") {
		cfg.S3Prefix = flags.s3Prefix
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSplit(cmd *cobra.Command, cfg *config.Config, input string, stdout, stderr io.Writer) error {
	ctx := cmd.Context()

	logger := cfg.NewLogger(stderr)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	deps, err := bootstrap.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	job, runErr := deps.SplitService.Run(ctx, input)
	if len(job.Segments) > 0 {
		if err := renderSummary(stdout, job.Clone(), isTerminal(stdout)); err != nil {
			return errors.Join(runErr, fmt.Errorf("print summary: %w", err))
		}
	}
	return runErr
}

// Package config provides configuration loading from an optional TOML file
// and environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"

	"github.com/maauso/wavsplit/internal/audio"
	"github.com/maauso/wavsplit/internal/storage"
)

// ErrInvalidConfig is returned when the configuration cannot be loaded or
// fails validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

var validate = validator.New()

// Config holds all configuration for the application.
//
// Values are resolved as defaults < TOML file < environment. Command-line
// flags are applied on top by the caller. A zero value in the TOML file is
// indistinguishable from an absent key and falls back to the default.
type Config struct {
	// Splitting settings
	ThresholdDB   float64 `env:"WAVSPLIT_THRESHOLD_DB, overwrite, default=-35" toml:"threshold_db" json:"threshold_db" validate:"lte=0"`
	MinSilenceSec float64 `env:"WAVSPLIT_MIN_SILENCE_SEC, overwrite, default=0.2" toml:"min_silence_sec" json:"min_silence_sec" validate:"gt=0"`
	MaxSegmentSec float64 `env:"WAVSPLIT_MAX_SEGMENT_SEC, overwrite, default=60" toml:"max_segment_sec" json:"max_segment_sec" validate:"gt=0"`

	// Output settings
	OutputDir string `env:"WAVSPLIT_OUTPUT_DIR, overwrite, default=." toml:"output_dir" json:"output_dir" validate:"required"`
	Simulate  bool   `env:"WAVSPLIT_SIMULATE, overwrite" toml:"simulate" json:"simulate"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET, overwrite" toml:"s3_bucket" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION, overwrite" toml:"s3_region" json:"s3_region,omitempty" validate:"required_with=S3Bucket"`
	S3Prefix           string `env:"S3_PREFIX, overwrite" toml:"s3_prefix" json:"s3_prefix,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT, overwrite" toml:"s3_endpoint" json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID, overwrite" toml:"-" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY, overwrite" toml:"-" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, overwrite, default=text" toml:"log_format" json:"log_format" validate:"oneof=text json"`
	LogLevel  string `env:"LOG_LEVEL, overwrite, default=info" toml:"log_level" json:"log_level" validate:"oneof=debug info warn warning error"`
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from the TOML file at path, when path is not
// empty, and then from environment variables using go-envconfig.
// The result is not validated; call Validate once flags have been applied.
func Load(ctx context.Context, path string) (*Config, error) {
	return load(ctx, path, envconfig.OsLookuper())
}

func load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return cfg, nil
}

// decodeFile fills c from a TOML file. Unknown keys are rejected.
func (c *Config) decodeFile(path string) error {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return fmt.Errorf("%w: open config file: %v", ErrInvalidConfig, err)
	}
	defer func() { _ = f.Close() }()

	return c.decode(f)
}

func (c *Config) decode(r io.Reader) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: parse config file: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks value ranges and S3 settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// SplitOpts returns the silence detection and planning options.
func (c *Config) SplitOpts() audio.SplitOpts {
	return audio.SplitOpts{
		ThresholdDB:   c.ThresholdDB,
		MinSilenceSec: c.MinSilenceSec,
		MaxSegmentSec: c.MaxSegmentSec,
	}
}

// S3Config returns the S3 publication settings.
func (c *Config) S3Config() storage.S3Config {
	return storage.S3Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		Endpoint:        c.S3Endpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
	}
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for log shipping.
// Otherwise, it outputs human-readable text logs. Logs go to w so the
// segment summary on stdout stays clean.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{ThresholdDB: %g, MinSilenceSec: %g, MaxSegmentSec: %g, OutputDir: %s, Simulate: %t, S3Bucket: %s, S3Region: %s, S3Prefix: %s, S3Endpoint: %s, LogFormat: %s, LogLevel: %s}",
		c.ThresholdDB,
		c.MinSilenceSec,
		c.MaxSegmentSec,
		c.OutputDir,
		c.Simulate,
		c.S3Bucket,
		c.S3Region,
		c.S3Prefix,
		c.S3Endpoint,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

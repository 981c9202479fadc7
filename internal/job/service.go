package job

import (
	"context"
	"errors"
	"log/slog"

	"github.com/maauso/wavsplit/internal/audio"
	"github.com/maauso/wavsplit/internal/pcm"
	"github.com/maauso/wavsplit/internal/storage"
)

// SplitService orchestrates one split run: open the input, analyse it and
// write every planned segment through the storage layer.
type SplitService struct {
	store  storage.Storage
	logger *slog.Logger

	splitOpts audio.SplitOpts
	simulate  bool
	publish   bool
	keyPrefix string
}

// Option configures a SplitService.
type Option func(*SplitService)

// WithSplitOpts sets the silence detection and planning options.
func WithSplitOpts(opts audio.SplitOpts) Option {
	return func(s *SplitService) {
		s.splitOpts = opts
	}
}

// WithSimulate plans and logs segments without writing files.
func WithSimulate(simulate bool) Option {
	return func(s *SplitService) {
		s.simulate = simulate
	}
}

// WithPublish uploads every written segment under keyPrefix.
func WithPublish(keyPrefix string) Option {
	return func(s *SplitService) {
		s.publish = true
		s.keyPrefix = keyPrefix
	}
}

// NewSplitService creates a new SplitService writing into store.
func NewSplitService(store storage.Storage, logger *slog.Logger, opts ...Option) *SplitService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SplitService{
		store:     store,
		logger:    logger,
		splitOpts: audio.DefaultSplitOpts(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run splits the WAV file at inputPath.
// The returned Job is never nil and reflects how far the run got; the error
// is the first failure, wrapped so callers can match audio, pcm and storage
// sentinels with errors.Is and *audio.WriteError with errors.As.
func (s *SplitService) Run(ctx context.Context, inputPath string) (*Job, error) {
	job := New(inputPath)
	job.OutputDir = s.store.Dir()
	job.Simulate = s.simulate

	logger := s.logger.With(slog.String("job_id", job.ID))
	logger.Info("starting split run",
		slog.String("input", inputPath),
		slog.String("output_dir", job.OutputDir),
		slog.Float64("threshold_db", s.splitOpts.ThresholdDB),
		slog.Float64("min_silence_sec", s.splitOpts.MinSilenceSec),
		slog.Float64("max_segment_sec", s.splitOpts.MaxSegmentSec),
		slog.Bool("simulate", s.simulate),
	)

	if err := s.splitOpts.Validate(); err != nil {
		return job, s.fail(ctx, logger, job, err)
	}

	src, err := pcm.OpenWAV(inputPath)
	if err != nil {
		return job, s.fail(ctx, logger, job, err)
	}
	defer func() { _ = src.Close() }()

	if err := job.StartAnalysis(); err != nil {
		return job, err
	}

	analysis, err := audio.Analyze(src, s.splitOpts)
	if analysis != nil {
		job.SetAnalysis(analysis)
	}
	if err != nil {
		return job, s.fail(ctx, logger, job, err)
	}

	logger.Info("analysis complete",
		slog.Float64("duration_sec", analysis.Duration),
		slog.Int("sample_rate", analysis.Format.SampleRate),
		slog.Int("channels", analysis.Format.Channels),
		slog.Int("bit_depth", analysis.Format.BitDepth),
		slog.Float64("window_sec", analysis.Window),
		slog.Float64("hop_sec", analysis.Hop),
		slog.Int("silences", len(analysis.Silences)),
		slog.Int("segments", len(analysis.Segments)),
	)
	logger.Debug("split points", slog.Any("seconds", analysis.SplitPoints()))
	for _, seg := range analysis.Segments {
		if seg.Oversized {
			logger.Warn("no silence to split at, segment exceeds maximum length",
				slog.Int("index", seg.Index),
				slog.Float64("start_sec", seg.Start),
				slog.Float64("duration_sec", seg.Duration()),
				slog.Float64("max_segment_sec", s.splitOpts.MaxSegmentSec),
			)
		}
	}

	if err := job.StartWriting(); err != nil {
		return job, err
	}

	var writerOpts []audio.WriterOption
	writerOpts = append(writerOpts, audio.WithSimulate(s.simulate))
	if s.publish && !s.simulate {
		writerOpts = append(writerOpts, audio.WithPublish(s.keyPrefix))
	}
	writer := audio.NewWriter(src, s.store, logger, writerOpts...)

	for i, seg := range analysis.Segments {
		rec := Segment{Segment: seg}

		out, err := writer.Write(ctx, seg)
		rec.Path = out.Path
		if err != nil {
			rec.Status = SegmentStatusFailed
			rec.Error = err.Error()
			job.UpdateSegment(i, rec)
			return job, s.fail(ctx, logger, job, err)
		}

		rec.URL = out.URL
		rec.Status = SegmentStatusWritten
		if s.simulate {
			rec.Status = SegmentStatusSimulated
		}
		job.UpdateSegment(i, rec)
	}

	if err := job.Complete(); err != nil {
		return job, err
	}
	logger.Info("split run completed",
		slog.Int("segments", len(analysis.Segments)),
		slog.Int("files", writer.Next()),
		slog.Int("oversized", analysis.OversizedCount()),
		slog.Int("progress", job.Progress()),
	)
	return job, nil
}

// fail moves the job to CANCELLED when ctx was cancelled and to FAILED
// otherwise, and returns err unchanged.
func (s *SplitService) fail(ctx context.Context, logger *slog.Logger, job *Job, err error) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		_ = job.Cancel()
		logger.Warn("split run cancelled", slog.String("error", err.Error()))
		return err
	}

	_ = job.Fail(err.Error())
	logger.Error("split run failed", slog.String("error", err.Error()))
	return err
}

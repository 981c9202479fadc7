package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/maauso/wavsplit/internal/pcm"
	"github.com/maauso/wavsplit/internal/storage"
)

// copyChunkFrames bounds how many frames are held in memory while copying a segment.
const copyChunkFrames = 1 << 16

// WriteError reports a failure to materialize one segment.
// Segments written before it are left in place.
type WriteError struct {
	Index int
	Path  string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write segment %d (%s): %v", e.Index, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// SegmentFileName returns the output file name for the segment at index.
func SegmentFileName(index int) string {
	return fmt.Sprintf("%05d.wav", index)
}

// Written describes one materialized (or, when simulating, planned) segment.
type Written struct {
	Index   int
	Segment Segment
	Path    string
	URL     string
}

// Writer materializes segments of a source as numbered WAV files.
// It owns the output index, which starts at zero and advances only after a
// segment file is complete, so an interrupted run never leaves a gap.
type Writer struct {
	src    pcm.Source
	store  storage.Storage
	logger *slog.Logger

	simulate  bool
	publish   bool
	keyPrefix string

	next int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithSimulate makes the writer log planned segments without creating files.
func WithSimulate(simulate bool) WriterOption {
	return func(w *Writer) {
		w.simulate = simulate
	}
}

// WithPublish uploads every completed segment through the storage's Publish,
// under keyPrefix/<file name>.
func WithPublish(keyPrefix string) WriterOption {
	return func(w *Writer) {
		w.publish = true
		w.keyPrefix = keyPrefix
	}
}

// NewWriter creates a Writer copying frames from src into store.
func NewWriter(src pcm.Source, store storage.Storage, logger *slog.Logger, opts ...WriterOption) *Writer {
	w := &Writer{
		src:    src,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Next returns the index the next segment will be written under.
func (w *Writer) Next() int {
	return w.next
}

// Write materializes seg as the next numbered file.
// On failure the partial file is removed and a *WriteError is returned.
func (w *Writer) Write(ctx context.Context, seg Segment) (Written, error) {
	index := w.next
	name := SegmentFileName(index)
	out := Written{
		Index:   index,
		Segment: seg,
		Path:    filepath.Join(w.store.Dir(), name),
	}

	w.logger.Info("saving segment",
		slog.String("file", out.Path),
		slog.Float64("start_sec", seg.Start),
		slog.Float64("duration_sec", seg.Duration()),
		slog.Bool("oversized", seg.Oversized),
		slog.Bool("simulate", w.simulate),
	)

	if w.simulate {
		w.next++
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		return out, &WriteError{Index: index, Path: out.Path, Err: err}
	}

	if err := w.copySegment(ctx, name, seg, &out); err != nil {
		return out, &WriteError{Index: index, Path: out.Path, Err: err}
	}

	if w.publish {
		url, err := w.publishSegment(ctx, name, out.Path)
		if err != nil {
			return out, &WriteError{Index: index, Path: out.Path, Err: err}
		}
		out.URL = url
		w.logger.Info("segment published",
			slog.String("file", out.Path),
			slog.String("url", url),
		)
	}

	w.next++
	return out, nil
}

// copySegment streams the frames of seg into a new WAV file.
func (w *Writer) copySegment(ctx context.Context, name string, seg Segment, out *Written) (err error) {
	format := w.src.Format()
	start, end := format.FrameAt(seg.Start), format.FrameAt(seg.End)

	f, err := w.store.Create(ctx, name)
	if err != nil {
		return err
	}
	out.Path = f.Name()

	defer func() {
		if err != nil {
			_ = f.Close()
			if rmErr := w.store.Remove(context.WithoutCancel(ctx), []string{out.Path}); rmErr != nil {
				w.logger.Warn("failed to remove partial segment",
					slog.String("file", out.Path),
					slog.String("error", rmErr.Error()),
				)
			}
		}
	}()

	ww, err := pcm.NewWAVWriter(f, format)
	if err != nil {
		return err
	}
	for pos := start; pos < end; pos += copyChunkFrames {
		samples, err := w.src.ReadFrames(pos, min(pos+copyChunkFrames, end))
		if err != nil {
			return fmt.Errorf("read frames: %w", err)
		}
		if err := ww.Write(samples); err != nil {
			return err
		}
	}
	if err := ww.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

func (w *Writer) publishSegment(ctx context.Context, name, filePath string) (string, error) {
	r, err := w.store.Open(ctx, filePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = r.Close() }()

	return w.store.Publish(ctx, path.Join(w.keyPrefix, name), r)
}

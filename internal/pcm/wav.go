package pcm

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// extensibleFmtSize is the fmt chunk size of WAVE_FORMAT_EXTENSIBLE; the
	// SubFormat GUID starts at subFormatOffset and leads with the format code.
	extensibleFmtSize = 40
	subFormatOffset   = 24

	// skipChunkFrames bounds the scratch buffer used when seeking forward.
	skipChunkFrames = 16384
)

// Compile-time check that WAVSource implements Source.
var _ Source = (*WAVSource)(nil)

// WAVSource reads integer PCM from a RIFF/WAVE stream.
// Reads go forward through the data chunk; a read that starts before the
// current position rewinds the stream and decodes from the beginning.
type WAVSource struct {
	r      io.ReadSeeker
	dec    *wav.Decoder
	format Format
	frames int64
	cursor int64
}

// OpenWAV opens the WAV file at path. The caller must Close the source.
func OpenWAV(path string) (*WAVSource, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by the operator
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	src, err := NewWAVSource(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return src, nil
}

// NewWAVSource parses the WAV headers of r and positions it at the first frame.
func NewWAVSource(r io.ReadSeeker) (*WAVSource, error) {
	if !wav.NewDecoder(r).IsValidFile() {
		return nil, fmt.Errorf("%w: not a little-endian RIFF/WAVE file with audio data", ErrInputFormat)
	}

	s := &WAVSource{r: r}
	if err := s.rewind(); err != nil {
		return nil, err
	}

	switch fmtTag := s.dec.WavAudioFormat; fmtTag {
	case wavFormatPCM:
	case wavFormatExtensible:
		sub, err := extensibleSubFormat(r)
		if err != nil {
			return nil, err
		}
		if sub != wavFormatPCM {
			return nil, fmt.Errorf("%w: extensible sub-format %#x (only integer PCM is supported)", ErrInputFormat, sub)
		}
		if err := s.rewind(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: audio format tag %#x (only integer PCM is supported)", ErrInputFormat, fmtTag)
	}

	s.format = Format{
		SampleRate: int(s.dec.SampleRate),
		Channels:   int(s.dec.NumChans),
		BitDepth:   int(s.dec.BitDepth),
	}
	if err := s.format.Validate(); err != nil {
		return nil, err
	}

	frameBytes := int64(s.format.Channels * s.format.BitDepth / 8)
	s.frames = int64(s.dec.PCMSize) / frameBytes
	return s, nil
}

// Format implements Source.
func (s *WAVSource) Format() Format {
	return s.format
}

// Frames implements Source.
func (s *WAVSource) Frames() int64 {
	return s.frames
}

// ReadFrames implements Source.
func (s *WAVSource) ReadFrames(start, end int64) ([]int, error) {
	end, err := checkRange(start, end, s.frames)
	if err != nil {
		return nil, err
	}

	if start < s.cursor {
		if err := s.rewind(); err != nil {
			return nil, err
		}
	}
	if err := s.skip(start - s.cursor); err != nil {
		return nil, err
	}

	out := make([]int, (end-start)*int64(s.format.Channels))
	if err := s.fill(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the underlying reader when it is an io.Closer.
func (s *WAVSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// rewind seeks to the start of the stream and forwards the decoder to the PCM chunk.
func (s *WAVSource) rewind() error {
	if _, err := s.r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind input: %w", err)
	}
	s.dec = wav.NewDecoder(s.r)
	if err := s.dec.FwdToPCM(); err != nil {
		return fmt.Errorf("%w: locate data chunk: %v", ErrInputFormat, err)
	}
	s.cursor = 0
	return nil
}

// extensibleSubFormat returns the format code that leads the SubFormat GUID
// of an extensible fmt chunk. The wav decoder drops everything after the
// first 16 bytes of the chunk, so the chunk is read again here.
func extensibleSubFormat(r io.ReadSeeker) (uint16, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind input: %w", err)
	}
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInputFormat, err)
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("%w: locate fmt chunk: %v", ErrInputFormat, err)
		}
		if ch.ID != riff.FmtID {
			if _, err := r.Seek(int64(ch.Size), io.SeekCurrent); err != nil {
				return 0, fmt.Errorf("skip %s chunk: %w", ch.ID[:], err)
			}
			continue
		}
		if ch.Size < extensibleFmtSize {
			return 0, fmt.Errorf("%w: extensible fmt chunk of %d bytes", ErrInputFormat, ch.Size)
		}
		body := make([]byte, extensibleFmtSize)
		if _, err := io.ReadFull(ch, body); err != nil {
			return 0, fmt.Errorf("%w: read fmt chunk: %v", ErrInputFormat, err)
		}
		return binary.LittleEndian.Uint16(body[subFormatOffset:]), nil
	}
}

// skip discards frames by decoding them into a scratch buffer.
func (s *WAVSource) skip(frames int64) error {
	if frames <= 0 {
		return nil
	}
	n := min(frames, skipChunkFrames)
	scratch := make([]int, n*int64(s.format.Channels))
	for frames > 0 {
		step := min(frames, skipChunkFrames)
		if err := s.fill(scratch[:step*int64(s.format.Channels)]); err != nil {
			return err
		}
		frames -= step
	}
	return nil
}

// fill decodes exactly len(dst) samples and advances the cursor.
func (s *WAVSource) fill(dst []int) error {
	got := 0
	for got < len(dst) {
		buf := &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: s.format.Channels,
				SampleRate:  s.format.SampleRate,
			},
			Data:           dst[got:],
			SourceBitDepth: s.format.BitDepth,
		}
		n, err := s.dec.PCMBuffer(buf)
		got += n
		if err != nil && err != io.EOF {
			return fmt.Errorf("decode pcm: %w", err)
		}
		if n == 0 {
			break
		}
	}
	if got < len(dst) {
		return fmt.Errorf("%w: pcm data truncated after frame %d", ErrInputFormat,
			s.cursor+int64(got/s.format.Channels))
	}
	s.cursor += int64(len(dst) / s.format.Channels)
	return nil
}

// WAVWriter encodes interleaved samples into a PCM WAV stream.
// Sizes in the RIFF header are patched on Close.
type WAVWriter struct {
	enc     *wav.Encoder
	format  Format
	written bool
}

// NewWAVWriter starts a WAV stream on w. The writer is not closed by Close.
func NewWAVWriter(w io.WriteSeeker, format Format) (*WAVWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	return &WAVWriter{
		enc:    wav.NewEncoder(w, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format: format,
	}, nil
}

// Write appends interleaved samples.
func (ww *WAVWriter) Write(samples []int) error {
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: ww.format.Channels,
			SampleRate:  ww.format.SampleRate,
		},
		Data:           samples,
		SourceBitDepth: ww.format.BitDepth,
	}
	if err := ww.enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	ww.written = true
	return nil
}

// Close finalizes the header. A stream without samples still gets a valid header.
func (ww *WAVWriter) Close() error {
	if !ww.written {
		if err := ww.Write(nil); err != nil {
			return err
		}
	}
	if err := ww.enc.Close(); err != nil {
		return fmt.Errorf("finalize wav header: %w", err)
	}
	return nil
}

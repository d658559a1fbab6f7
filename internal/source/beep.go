package source

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// resampleQuality trades CPU for interpolation accuracy; 4 matches what
// the speaker path can sustain comfortably.
const resampleQuality = 4

// readChunk is the decode granularity of ReadFrames. The chunk buffer is
// allocated once at open time so the audio callback never allocates.
const readChunk = 2048

var _ FrameSource = (*decodeSession)(nil)

// decodeSession adapts a beep decoder to the FrameSource contract: stereo
// interleaved float32 at a fixed output rate, with frame-accurate seeking.
type decodeSession struct {
	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	out      beep.Streamer // streamer, possibly wrapped in a resampler
	file     io.Closer

	srcRate   int
	rate      int
	total     int64 // output frames, 0 when unknown
	streaming bool
	closed    bool

	cur atomic.Int64 // output frames consumed

	chunk   [][2]float64
	cleanup func()
}

// Open decodes a local file into a new session producing frames at
// sampleRate. The decoder backend is chosen by DetectFormat.
func Open(path string, sampleRate int) (FrameSource, error) {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	s, err := newDecodeSession(f, format, sampleRate)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// newDecodeSession decodes f with the backend for format. Ownership of f
// passes to the session on success.
func newDecodeSession(f *os.File, format Format, sampleRate int) (*decodeSession, error) {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	var (
		streamer beep.StreamSeekCloser
		bf       beep.Format
		err      error
	)
	switch format {
	case FormatMP3:
		streamer, bf, err = mp3.Decode(f)
	case FormatFLAC:
		// Some taggers prepend ID3v2 to FLAC files, which the FLAC
		// decoder does not handle.
		if err := skipID3v2(f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		streamer, bf, err = flac.Decode(f)
	case FormatWAV:
		streamer, bf, err = wav.Decode(f)
	case FormatVorbis:
		streamer, bf, err = vorbis.Decode(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	srcRate := int(bf.SampleRate)
	s := &decodeSession{
		streamer: streamer,
		out:      streamer,
		file:     f,
		srcRate:  srcRate,
		rate:     sampleRate,
		chunk:    make([][2]float64, readChunk),
	}
	if srcRate != sampleRate && srcRate > 0 {
		s.out = beep.Resample(resampleQuality, bf.SampleRate, beep.SampleRate(sampleRate), streamer)
	}
	if n := streamer.Len(); n > 0 && srcRate > 0 {
		s.total = int64(n) * int64(sampleRate) / int64(srcRate)
	}
	return s, nil
}

func (s *decodeSession) ReadFrames(dst []float32, frames int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || frames <= 0 {
		return 0
	}
	if frames*NumChannels > len(dst) {
		frames = len(dst) / NumChannels
	}

	read := 0
	for read < frames {
		want := min(frames-read, len(s.chunk))
		n, ok := s.out.Stream(s.chunk[:want])
		for i := 0; i < n; i++ {
			dst[(read+i)*2] = float32(s.chunk[i][0])
			dst[(read+i)*2+1] = float32(s.chunk[i][1])
		}
		read += n
		if !ok || n == 0 {
			break
		}
	}
	s.cur.Add(int64(read))
	return read
}

func (s *decodeSession) Seek(frame int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSeekFailed
	}
	if frame < 0 || s.total == 0 || frame >= s.total {
		return fmt.Errorf("%w: frame %d out of range [0, %d)", ErrSeekFailed, frame, s.total)
	}

	srcPos := frame * int64(s.srcRate) / int64(s.rate)
	if err := s.streamer.Seek(int(srcPos)); err != nil {
		return fmt.Errorf("%w: %v", ErrSeekFailed, err)
	}
	s.cur.Store(frame)
	return nil
}

func (s *decodeSession) SampleRate() int { return s.rate }

func (s *decodeSession) Channels() int { return NumChannels }

func (s *decodeSession) TotalFrames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *decodeSession) CurrentFrame() int64 { return s.cur.Load() }

func (s *decodeSession) Streaming() bool { return s.streaming }

func (s *decodeSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.streamer.Err()
}

func (s *decodeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	err := s.streamer.Close()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.total = 0
	s.cur.Store(0)
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return err
}

// skipID3v2 advances past an ID3v2 tag if one is present, otherwise
// rewinds to the start.
func skipID3v2(r io.ReadSeeker) error {
	header := make([]byte, 10)
	n, err := io.ReadFull(r, header)
	if err != nil || n < 10 || string(header[0:3]) != "ID3" {
		_, serr := r.Seek(0, io.SeekStart)
		return serr
	}

	// ID3v2 length is a syncsafe integer in bytes 6-9.
	size := int64(header[6])<<21 | int64(header[7])<<14 | int64(header[8])<<7 | int64(header[9])
	_, err = r.Seek(10+size, io.SeekStart)
	return err
}

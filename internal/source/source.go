// Package source provides decode sessions that turn a track locator into a
// uniform stream of interleaved stereo float32 frames, regardless of the
// underlying codec.
package source

import (
	"errors"
	"time"
)

// NumChannels is the fixed output channel count of every session.
const NumChannels = 2

// DefaultSampleRate is used when the caller does not configure one.
const DefaultSampleRate = 44100

var (
	// ErrNotFound means the locator did not resolve to readable data.
	ErrNotFound = errors.New("source: not found")
	// ErrUnsupportedFormat means no decoder backend accepts the locator.
	ErrUnsupportedFormat = errors.New("source: unsupported format")
	// ErrDecode means the data resolved but could not be decoded.
	ErrDecode = errors.New("source: decode error")
	// ErrSeekFailed means the backend refused a reposition request.
	// Seeking outside [0, TotalFrames) fails with this error; the cursor
	// is never clamped.
	ErrSeekFailed = errors.New("source: seek failed")
)

// FrameSource is one open decode session. A session is exclusively owned
// by whoever opened it and is torn down before a new one is opened.
//
// ReadFrames and Seek are safe to call concurrently with each other; the
// remaining queries are safe from any goroutine.
type FrameSource interface {
	// ReadFrames decodes up to frames interleaved stereo frames into dst
	// and returns the number actually produced. A short read means end of
	// stream; 0 signals exhaustion.
	ReadFrames(dst []float32, frames int) int

	// Seek repositions the cursor to the given frame index.
	Seek(frame int64) error

	SampleRate() int
	Channels() int

	// TotalFrames is 0 when the length is unknown (streaming).
	TotalFrames() int64
	CurrentFrame() int64

	Streaming() bool

	// Err reports a decode error encountered mid-stream, if any.
	Err() error

	// Close is idempotent and resets all counters.
	Close() error
}

// Duration converts a frame count to a duration, guarding an unknown rate.
func Duration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

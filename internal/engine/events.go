package engine

import (
	"time"

	"github.com/mbeaumont/tide/internal/media"
)

// StartedEvent is emitted when playback starts or resumes. On a track
// switch it always follows the TrackChangedEvent for the same track.
type StartedEvent struct {
	Track media.Track
}

// PausedEvent is emitted when playback pauses.
type PausedEvent struct{}

// StoppedEvent is emitted when playback stops. It is terminal for a
// session: queue and track state have settled by the time it fires.
type StoppedEvent struct{}

// ProgressEvent is emitted periodically while playing, and once
// immediately after a successful seek.
type ProgressEvent struct {
	Position time.Duration
	Duration time.Duration
}

// TrackChangedEvent is emitted when playback moves to a different track,
// before the corresponding StartedEvent.
type TrackChangedEvent struct {
	Track media.Track
}

// VolumeChangedEvent carries the clamped volume in [0, 1].
type VolumeChangedEvent struct {
	Volume float64
}

// ModeChangedEvent is emitted when repeat or shuffle policy changes.
type ModeChangedEvent struct {
	Repeat  RepeatMode
	Shuffle bool
}

// ErrorEvent reports a failure that could not be returned synchronously
// to a caller, such as an open failing during automatic advance.
type ErrorEvent struct {
	Op  string
	Err error
}

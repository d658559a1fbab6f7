package engine

// PlaybackState represents the playback state machine.
//
// Valid transitions:
//   - Stopped   → Playing (via Play/PlayTrack)
//   - Playing   → Paused  (via Pause)
//   - Paused    → Playing (via Play)
//   - any       → Stopped (via Stop, or end of content with no continuation)
//   - Buffering → Playing (a streaming open completing)
//
// Buffering is entered only while a remote source is being resolved; the
// local-file path never reports it.
type PlaybackState int32

const (
	StateStopped PlaybackState = iota
	StatePlaying
	StatePaused
	StateBuffering
)

// String returns the state name.
func (s PlaybackState) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateBuffering:
		return "Buffering"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing, paused or buffering).
func (s PlaybackState) IsActive() bool {
	return s != StateStopped
}

// RepeatMode defines what happens when the current track is exhausted.
type RepeatMode int32

const (
	RepeatOff RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatOff:
		return "Off"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

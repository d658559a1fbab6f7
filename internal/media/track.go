// Package media holds the track descriptor shared by sources, the queue
// and the playback engine.
package media

import "time"

// SourceType tags where a track came from.
type SourceType int

const (
	SourceLocal SourceType = iota
	SourceRemote
)

// String returns the source type name.
func (s SourceType) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Track describes one playable item. Sources create tracks; the queue and
// the engine copy them by value and never mutate the identity fields.
type Track struct {
	ID     string
	Title  string
	Artist string
	Album  string

	// Path is the primary locator (a local file). StreamURL is the
	// fallback locator used when Path is absent or fails to open.
	Path      string
	StreamURL string

	Source SourceType

	// Duration is a hint from the source; the open decode session is
	// authoritative once a track is playing.
	Duration time.Duration
}

// Locator returns the primary locator, falling back to the stream URL.
func (t Track) Locator() string {
	if t.Path != "" {
		return t.Path
	}
	return t.StreamURL
}

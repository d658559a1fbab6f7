package source

import (
	"path/filepath"
	"strings"
)

// Format identifies a decoder backend.
type Format int

const (
	FormatUnknown Format = iota
	FormatMP3
	FormatFLAC
	FormatWAV
	FormatVorbis
)

// String returns the format name for diagnostics.
func (f Format) String() string {
	switch f {
	case FormatMP3:
		return "MP3"
	case FormatFLAC:
		return "FLAC"
	case FormatWAV:
		return "WAV"
	case FormatVorbis:
		return "OGG"
	default:
		return "Unknown"
	}
}

// DetectFormat maps a locator to a decoder backend by extension. It is a
// pure function, independent of any open session.
func DetectFormat(locator string) Format {
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".mp3":
		return FormatMP3
	case ".flac":
		return FormatFLAC
	case ".wav", ".wave":
		return FormatWAV
	case ".ogg", ".oga":
		return FormatVorbis
	default:
		return FormatUnknown
	}
}

// Package scan discovers audio files and builds playable tracks from them.
package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mbeaumont/tide/internal/media"
	"github.com/mbeaumont/tide/internal/source"
)

const numWorkers = 8

// Folder walks root and returns a track for every decodable audio file,
// sorted by path. Unreadable files and directories are skipped.
func Folder(root string, log *zap.Logger) ([]media.Track, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		// Skip any walk errors and keep scanning other paths
		if walkErr != nil {
			return nil //nolint:nilerr // intentionally skipping errors
		}
		if d.IsDir() {
			return nil
		}
		if source.DetectFormat(path) == source.FormatUnknown {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	tracks := readAll(paths, log)
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Path < tracks[j].Path })
	return tracks, nil
}

// Locators builds tracks from explicit paths or URLs, in the given order.
// Entries that are neither a known audio file nor an http(s) URL are
// skipped with a warning.
func Locators(locators []string, log *zap.Logger) []media.Track {
	var tracks []media.Track
	for _, loc := range locators {
		switch {
		case strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://"):
			tracks = append(tracks, media.Track{
				ID:        uuid.NewString(),
				Title:     titleFromLocator(loc),
				StreamURL: loc,
				Source:    media.SourceRemote,
			})
		case source.DetectFormat(loc) != source.FormatUnknown:
			tracks = append(tracks, readTrack(loc, log))
		default:
			log.Warn("skipping unsupported locator", zap.String("locator", loc))
		}
	}
	return tracks
}

// readAll extracts metadata in parallel. Tag reading is I/O bound, so a
// small worker pool covers large folders without thrashing.
func readAll(paths []string, log *zap.Logger) []media.Track {
	workCh := make(chan string, len(paths))
	resultCh := make(chan media.Track, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Go(func() {
			for path := range workCh {
				resultCh <- readTrack(path, log)
			}
		})
	}

	go func() {
		for _, p := range paths {
			workCh <- p
		}
		close(workCh)
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	tracks := make([]media.Track, 0, len(paths))
	for t := range resultCh {
		tracks = append(tracks, t)
	}
	return tracks
}

// readTrack builds a track from the file's tags, falling back to the
// file name when the tags are missing or unreadable.
func readTrack(path string, log *zap.Logger) media.Track {
	t := media.Track{
		ID:     uuid.NewString(),
		Title:  titleFromLocator(path),
		Path:   path,
		Source: media.SourceLocal,
	}

	f, err := os.Open(path)
	if err != nil {
		log.Debug("open for tags", zap.String("path", path), zap.Error(err))
		return t
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		log.Debug("read tags", zap.String("path", path), zap.Error(err))
		return t
	}

	if title := strings.TrimSpace(meta.Title()); title != "" {
		t.Title = title
	}
	t.Artist = strings.TrimSpace(meta.Artist())
	t.Album = strings.TrimSpace(meta.Album())
	return t
}

func titleFromLocator(loc string) string {
	base := filepath.Base(loc)
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package scan

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mbeaumont/tide/internal/media"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.mp3"), []byte("not really audio"))
	writeFile(t, filepath.Join(dir, "a.flac"), []byte("not really audio"))
	writeFile(t, filepath.Join(dir, "sub", "c.wav"), []byte("not really audio"))
	writeFile(t, filepath.Join(dir, "cover.jpg"), []byte("image"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("text"))

	tracks, err := Folder(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("Folder failed: %v", err)
	}

	if len(tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(tracks))
	}
	// Sorted by path
	if filepath.Base(tracks[0].Path) != "a.flac" {
		t.Errorf("tracks[0] = %q, want a.flac", tracks[0].Path)
	}
	if filepath.Base(tracks[1].Path) != "b.mp3" {
		t.Errorf("tracks[1] = %q, want b.mp3", tracks[1].Path)
	}
	if filepath.Base(tracks[2].Path) != "c.wav" {
		t.Errorf("tracks[2] = %q, want c.wav", tracks[2].Path)
	}

	seen := map[string]bool{}
	for _, tr := range tracks {
		if tr.ID == "" || seen[tr.ID] {
			t.Errorf("track %q has missing or duplicate ID %q", tr.Path, tr.ID)
		}
		seen[tr.ID] = true
		if tr.Source != media.SourceLocal {
			t.Errorf("track %q source = %v, want local", tr.Path, tr.Source)
		}
	}

	// Tags are unreadable, so the title falls back to the file name
	if tracks[0].Title != "a" {
		t.Errorf("tracks[0].Title = %q, want a", tracks[0].Title)
	}
}

func TestFolder_Empty(t *testing.T) {
	tracks, err := Folder(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("Folder failed: %v", err)
	}
	if len(tracks) != 0 {
		t.Errorf("got %d tracks, want 0", len(tracks))
	}
}

func TestLocators(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, "song.mp3")
	writeFile(t, local, []byte("not really audio"))

	tracks := Locators([]string{
		local,
		"https://radio.example/live.mp3?token=abc",
		"/nonexistent/file.doc",
	}, zap.NewNop())

	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2 (unsupported locator skipped)", len(tracks))
	}

	if tracks[0].Path != local || tracks[0].Source != media.SourceLocal {
		t.Errorf("tracks[0] = %+v, want local file", tracks[0])
	}
	if tracks[0].Title != "song" {
		t.Errorf("tracks[0].Title = %q, want song", tracks[0].Title)
	}

	if tracks[1].StreamURL == "" || tracks[1].Source != media.SourceRemote {
		t.Errorf("tracks[1] = %+v, want remote stream", tracks[1])
	}
	// Query strings stay out of the derived title
	if tracks[1].Title != "live" {
		t.Errorf("tracks[1].Title = %q, want live", tracks[1].Title)
	}
}

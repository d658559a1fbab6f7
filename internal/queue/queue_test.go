//nolint:goconst // test file with repeated string literals
package queue

import (
	"testing"

	"github.com/mbeaumont/tide/internal/media"
)

func track(id string) media.Track {
	return media.Track{ID: id, Title: id, Path: "/" + id + ".mp3"}
}

func TestNew(t *testing.T) {
	q := New()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
	if q.Next() != nil {
		t.Error("Next() should be nil for empty queue")
	}
	if q.Previous() != nil {
		t.Error("Previous() should be nil for empty queue")
	}
}

func TestQueue_Add(t *testing.T) {
	q := New()

	q.Add(track("a"), track("b"))

	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
	// The cursor starts at the first track
	if cur := q.Current(); cur == nil || cur.ID != "a" {
		t.Errorf("Current() = %v, want a", cur)
	}
}

func TestQueue_AddNext(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(1)

	q.AddNext(track("x"))

	tracks := q.Tracks()
	want := []string{"a", "b", "x", "c"}
	for i, id := range want {
		if tracks[i].ID != id {
			t.Errorf("tracks[%d].ID = %q, want %q", i, tracks[i].ID, id)
		}
	}
	if cur := q.Current(); cur == nil || cur.ID != "b" {
		t.Errorf("Current() = %v, want b (unchanged)", cur)
	}
	if next := q.PeekNext(); next == nil || next.ID != "x" {
		t.Errorf("PeekNext() = %v, want x", next)
	}
}

func TestQueue_AddNext_WhileShuffled(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"), track("d"))
	q.JumpTo(1)
	q.Shuffle()
	cur := q.Current()

	q.AddNext(track("x"))

	if got := q.Current(); got == nil || got.ID != cur.ID {
		t.Errorf("Current() = %v, want %v (unchanged)", got, cur)
	}
	// The inserted track plays next even under shuffle
	if next := q.PeekNext(); next == nil || next.ID != "x" {
		t.Errorf("PeekNext() = %v, want x", next)
	}

	seen := map[string]bool{q.Current().ID: true}
	for {
		n := q.Next()
		if n == nil {
			break
		}
		if seen[n.ID] {
			t.Fatalf("track %q visited twice", n.ID)
		}
		seen[n.ID] = true
	}
	// Every track before the cursor plus everything after stays reachable
	// exactly once in the permutation
	if q.Len() != 5 {
		t.Errorf("Len() = %d, want 5", q.Len())
	}
}

func TestQueue_AddNext_Empty(t *testing.T) {
	q := New()

	q.AddNext(track("a"))

	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if cur := q.Current(); cur == nil || cur.ID != "a" {
		t.Errorf("Current() = %v, want a", cur)
	}
}

func TestQueue_Next(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"))

	next := q.Next()

	if next == nil || next.ID != "b" {
		t.Errorf("Next() = %v, want b", next)
	}
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
}

func TestQueue_Next_AtEnd(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"))
	q.Next()

	next := q.Next()

	if next != nil {
		t.Errorf("Next() at end = %v, want nil", next)
	}
	// The failed advance must not move the cursor or touch history
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1 (unchanged)", q.CurrentIndex())
	}
	if prev := q.Previous(); prev == nil || prev.ID != "a" {
		t.Errorf("Previous() after failed Next = %v, want a", prev)
	}
}

func TestQueue_Previous_AtStart(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"))

	if prev := q.Previous(); prev != nil {
		t.Errorf("Previous() at start = %v, want nil", prev)
	}
	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
}

func TestQueue_Previous_PopsHistory(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"), track("d"))

	// Jump a -> c, then back must return to a, not b
	q.JumpTo(2)
	prev := q.Previous()

	if prev == nil || prev.ID != "a" {
		t.Errorf("Previous() = %v, want a (history pop)", prev)
	}
}

func TestQueue_Previous_StaleHistory(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"))
	q.JumpTo(2)
	q.Remove(2)
	q.JumpTo(1)

	// The history entry pointing at the removed slot 2 is skipped
	prev := q.Previous()
	if prev == nil {
		t.Fatal("Previous() = nil, want a track")
	}
	if prev.ID == "c" {
		t.Error("Previous() returned a removed track")
	}
}

func TestQueue_PeekDoesNotMove(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"))
	q.Next()

	if next := q.PeekNext(); next == nil || next.ID != "c" {
		t.Errorf("PeekNext() = %v, want c", next)
	}
	if prev := q.PeekPrevious(); prev == nil || prev.ID != "a" {
		t.Errorf("PeekPrevious() = %v, want a", prev)
	}
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1 (unchanged)", q.CurrentIndex())
	}
}

func TestQueue_JumpTo(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"))

	got := q.JumpTo(2)

	if got == nil || got.ID != "c" {
		t.Errorf("JumpTo(2) = %v, want c", got)
	}
	if q.JumpTo(5) != nil {
		t.Error("JumpTo out of range should return nil")
	}
	if q.JumpTo(-1) != nil {
		t.Error("JumpTo(-1) should return nil")
	}
	if q.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2 (invalid jumps ignored)", q.CurrentIndex())
	}
}

func TestQueue_JumpToID(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"))

	got := q.JumpToID("b")

	if got == nil || got.ID != "b" {
		t.Errorf("JumpToID(b) = %v, want b", got)
	}
	if q.JumpToID("missing") != nil {
		t.Error("JumpToID with unknown id should return nil")
	}
}

func TestQueue_Remove(t *testing.T) {
	t.Run("before current", func(t *testing.T) {
		q := New()
		q.Add(track("a"), track("b"), track("c"))
		q.JumpTo(2)

		if !q.Remove(0) {
			t.Fatal("Remove should return true")
		}
		if cur := q.Current(); cur == nil || cur.ID != "c" {
			t.Errorf("Current() = %v, want c (cursor adjusted)", cur)
		}
	})

	t.Run("current at tail", func(t *testing.T) {
		q := New()
		q.Add(track("a"), track("b"))
		q.JumpTo(1)

		q.Remove(1)

		if cur := q.Current(); cur == nil || cur.ID != "a" {
			t.Errorf("Current() = %v, want a (clamped)", cur)
		}
	})

	t.Run("after current", func(t *testing.T) {
		q := New()
		q.Add(track("a"), track("b"), track("c"))

		q.Remove(2)

		if cur := q.Current(); cur == nil || cur.ID != "a" {
			t.Errorf("Current() = %v, want a (unchanged)", cur)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		q := New()
		q.Add(track("a"))

		if q.Remove(3) {
			t.Error("Remove out of range should return false")
		}
	})
}

func TestQueue_RemoveID(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"))

	if !q.RemoveID("b") {
		t.Error("RemoveID should return true")
	}
	if q.RemoveID("b") {
		t.Error("RemoveID on missing id should return false")
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestQueue_Move(t *testing.T) {
	t.Run("keeps cursor on same track", func(t *testing.T) {
		q := New()
		q.Add(track("a"), track("b"), track("c"))
		q.JumpTo(1)

		if !q.Move(0, 2) {
			t.Fatal("Move should succeed")
		}
		if cur := q.Current(); cur == nil || cur.ID != "b" {
			t.Errorf("Current() = %v, want b", cur)
		}
		tracks := q.Tracks()
		want := []string{"b", "c", "a"}
		for i, id := range want {
			if tracks[i].ID != id {
				t.Errorf("tracks[%d].ID = %q, want %q", i, tracks[i].ID, id)
			}
		}
	})

	t.Run("moving the current track", func(t *testing.T) {
		q := New()
		q.Add(track("a"), track("b"), track("c"))

		q.Move(0, 2)

		if cur := q.Current(); cur == nil || cur.ID != "a" {
			t.Errorf("Current() = %v, want a (follows the move)", cur)
		}
		if q.CurrentIndex() != 2 {
			t.Errorf("CurrentIndex() = %d, want 2", q.CurrentIndex())
		}
	})

	t.Run("out of range", func(t *testing.T) {
		q := New()
		q.Add(track("a"))

		if q.Move(0, 5) {
			t.Error("Move out of range should return false")
		}
	})
}

func TestQueue_Clear(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"))
	q.Next()

	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.Current() != nil {
		t.Error("Current() should be nil after Clear")
	}
	if q.Previous() != nil {
		t.Error("history should be gone after Clear")
	}
}

func TestQueue_Shuffle_PinsCurrent(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"), track("d"), track("e"))
	q.JumpTo(3)

	q.Shuffle()

	if !q.Shuffled() {
		t.Error("Shuffled() should be true")
	}
	if cur := q.Current(); cur == nil || cur.ID != "d" {
		t.Errorf("Current() after Shuffle = %v, want d", cur)
	}
}

func TestQueue_Shuffle_CoversAllTracks(t *testing.T) {
	q := New()
	ids := []string{"a", "b", "c", "d", "e"}
	for _, id := range ids {
		q.Add(track(id))
	}
	q.Shuffle()

	seen := map[string]bool{q.Current().ID: true}
	for {
		next := q.Next()
		if next == nil {
			break
		}
		if seen[next.ID] {
			t.Fatalf("track %q visited twice", next.ID)
		}
		seen[next.ID] = true
	}
	if len(seen) != len(ids) {
		t.Errorf("visited %d tracks, want %d", len(seen), len(ids))
	}
}

func TestQueue_Unshuffle_KeepsCurrent(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"), track("d"))
	q.JumpTo(2)
	q.Shuffle()
	cur := q.Current()

	q.Unshuffle()

	if q.Shuffled() {
		t.Error("Shuffled() should be false")
	}
	if got := q.Current(); got == nil || got.ID != cur.ID {
		t.Errorf("Current() after Unshuffle = %v, want %v", got, cur)
	}
	// Cursor resolved to the track's natural position
	if idx := q.CurrentIndex(); q.Tracks()[idx].ID != cur.ID {
		t.Errorf("cursor points at %q, want %q", q.Tracks()[idx].ID, cur.ID)
	}
}

func TestQueue_Add_WhileShuffled(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"))
	q.Shuffle()

	q.Add(track("c"), track("d"))

	seen := map[string]bool{q.Current().ID: true}
	for {
		next := q.Next()
		if next == nil {
			break
		}
		seen[next.ID] = true
	}
	// All tracks stay reachable, including the ones added after shuffling
	if len(seen) != 4 {
		t.Errorf("visited %d tracks, want 4", len(seen))
	}
	for _, id := range []string{"c", "d"} {
		if !seen[id] {
			t.Errorf("track %q not reachable after Add while shuffled", id)
		}
	}
}

func TestQueue_Remove_WhileShuffled_KeepsCurrent(t *testing.T) {
	q := New()
	q.Add(track("a"), track("b"), track("c"), track("d"))
	q.JumpTo(1)
	q.Shuffle()
	cur := q.Current()

	// Remove some natural index that is not the current track
	for i, tr := range q.Tracks() {
		if tr.ID != cur.ID {
			q.Remove(i)
			break
		}
	}

	if got := q.Current(); got == nil || got.ID != cur.ID {
		t.Errorf("Current() = %v, want %v (unchanged by removal)", got, cur)
	}
	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
}

func TestQueue_Restore(t *testing.T) {
	q := New()
	tracks := []media.Track{track("a"), track("b"), track("c")}

	q.Restore(tracks, 1, false)

	if q.Len() != 3 {
		t.Errorf("Len() = %d, want 3", q.Len())
	}
	if cur := q.Current(); cur == nil || cur.ID != "b" {
		t.Errorf("Current() = %v, want b", cur)
	}
	if q.Shuffled() {
		t.Error("Shuffled() should be false")
	}
}

func TestQueue_Restore_Shuffled(t *testing.T) {
	q := New()
	tracks := []media.Track{track("a"), track("b"), track("c"), track("d")}

	q.Restore(tracks, 2, true)

	if !q.Shuffled() {
		t.Error("Shuffled() should be true")
	}
	// The pinned permutation keeps the saved track current
	if cur := q.Current(); cur == nil || cur.ID != "c" {
		t.Errorf("Current() = %v, want c", cur)
	}
}

func TestQueue_Restore_InvalidIndex(t *testing.T) {
	q := New()
	tracks := []media.Track{track("a"), track("b")}

	q.Restore(tracks, 9, false)

	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0 (out-of-range index reset)", q.CurrentIndex())
	}
}

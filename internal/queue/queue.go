// Package queue implements the ordered playback queue: natural insertion
// order, a cursor, an optional shuffle permutation and a back-navigation
// history stack. It performs no I/O; persistence lives elsewhere.
package queue

import (
	"math/rand/v2"
	"sync"

	"github.com/mbeaumont/tide/internal/media"
)

// Queue is safe for concurrent use. Navigation methods return copies of
// tracks (nil at a boundary), never errors.
type Queue struct {
	mu       sync.Mutex
	tracks   []media.Track
	order    []int // permutation of natural indices, len == len(tracks) when shuffled
	history  []int // previously-current cursor positions (LIFO)
	current  int
	shuffled bool
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// naturalLocked resolves a cursor position to a natural-order index.
func (q *Queue) naturalLocked(pos int) int {
	if q.shuffled {
		return q.order[pos]
	}
	return pos
}

func (q *Queue) trackAtLocked(pos int) *media.Track {
	t := q.tracks[q.naturalLocked(pos)]
	return &t
}

// Add appends tracks in natural order. While shuffled, the new natural
// indices go to the permutation's tail so the tracks stay reachable.
func (q *Queue) Add(tracks ...media.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	start := len(q.tracks)
	q.tracks = append(q.tracks, tracks...)
	if q.shuffled {
		for i := start; i < len(q.tracks); i++ {
			q.order = append(q.order, i)
		}
	}
}

// AddNext inserts the track immediately after the cursor, so it plays
// next in the visible order, shuffled or not.
func (q *Queue) AddNext(t media.Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		q.tracks = append(q.tracks, t)
		if q.shuffled {
			q.order = []int{0}
		}
		return
	}

	insert := min(q.current+1, len(q.tracks))
	if q.shuffled {
		insert = min(q.naturalLocked(q.current)+1, len(q.tracks))
	}
	q.tracks = append(q.tracks[:insert], append([]media.Track{t}, q.tracks[insert:]...)...)

	if q.shuffled {
		// Renumber the permutation for the shifted naturals, then splice
		// the new natural index in right after the cursor.
		for i, v := range q.order {
			if v >= insert {
				q.order[i] = v + 1
			}
		}
		pos := min(q.current+1, len(q.order))
		q.order = append(q.order[:pos], append([]int{insert}, q.order[pos:]...)...)
	}
}

// Remove deletes the entry at the given natural-order index.
func (q *Queue) Remove(index int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(index)
}

// RemoveID deletes the first entry whose ID matches.
func (q *Queue) RemoveID(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, t := range q.tracks {
		if t.ID == id {
			return q.removeLocked(i)
		}
	}
	return false
}

func (q *Queue) removeLocked(index int) bool {
	if index < 0 || index >= len(q.tracks) {
		return false
	}

	curNat := -1
	if len(q.tracks) > 0 {
		curNat = q.naturalLocked(q.current)
	}
	removingCurrent := index == curNat

	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)

	if q.shuffled {
		if q.current >= len(q.tracks) {
			q.current = max(len(q.tracks)-1, 0)
		}
		if removingCurrent || len(q.tracks) == 0 {
			q.reshuffleLocked(-1)
		} else {
			// Keep pointing at the same logical track.
			if index < curNat {
				curNat--
			}
			q.reshuffleLocked(curNat)
		}
		return true
	}

	if index < q.current {
		q.current--
	} else if index == q.current && q.current >= len(q.tracks) {
		q.current = max(len(q.tracks)-1, 0)
	}
	return true
}

// Move relocates one entry from one natural-order index to another,
// keeping the cursor on the same logical track.
func (q *Queue) Move(from, to int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tracks)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}

	curNat := q.naturalLocked(q.current)

	t := q.tracks[from]
	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	q.tracks = append(q.tracks[:to], append([]media.Track{t}, q.tracks[to:]...)...)

	newNat := curNat
	switch {
	case from == curNat:
		newNat = to
	case from < curNat && to >= curNat:
		newNat--
	case from > curNat && to <= curNat:
		newNat++
	}

	if q.shuffled {
		q.reshuffleLocked(newNat)
	} else {
		q.current = newNat
	}
	return true
}

// Clear empties tracks, shuffle order and history, and resets the cursor.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks = nil
	q.history = nil
	q.current = 0
	if q.shuffled {
		q.order = []int{}
	} else {
		q.order = nil
	}
}

// Current returns the track under the cursor, or nil if the queue is empty.
func (q *Queue) Current() *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return nil
	}
	return q.trackAtLocked(q.current)
}

// Next advances the cursor and returns the new current track. At the last
// position it returns nil without mutating state; wrap-around for
// repeat-all is the engine's responsibility.
func (q *Queue) Next() *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 || q.current+1 >= len(q.tracks) {
		return nil
	}
	q.history = append(q.history, q.current)
	q.current++
	return q.trackAtLocked(q.current)
}

// Previous steps back, preferring the history stack so back-navigation
// undoes jumps correctly, and falling back to a simple decrement.
func (q *Queue) Previous() *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 {
		return nil
	}

	// Pop history entries until one still points inside the queue.
	for len(q.history) > 0 {
		pos := q.history[len(q.history)-1]
		q.history = q.history[:len(q.history)-1]
		if pos >= 0 && pos < len(q.tracks) {
			q.current = pos
			return q.trackAtLocked(q.current)
		}
	}

	if q.current == 0 {
		return nil
	}
	q.current--
	return q.trackAtLocked(q.current)
}

// PeekNext returns the track after the cursor without moving it.
func (q *Queue) PeekNext() *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 || q.current+1 >= len(q.tracks) {
		return nil
	}
	return q.trackAtLocked(q.current + 1)
}

// PeekPrevious returns the track before the cursor without moving it.
func (q *Queue) PeekPrevious() *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tracks) == 0 || q.current == 0 {
		return nil
	}
	return q.trackAtLocked(q.current - 1)
}

// JumpTo moves the cursor to the given position in the visible order,
// pushing the old position to history.
func (q *Queue) JumpTo(index int) *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	q.history = append(q.history, q.current)
	q.current = index
	return q.trackAtLocked(q.current)
}

// JumpToID moves the cursor to the first track in the visible order whose
// ID matches.
func (q *Queue) JumpToID(id string) *media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.tracks {
		if q.tracks[q.naturalLocked(i)].ID == id {
			q.history = append(q.history, q.current)
			q.current = i
			return q.trackAtLocked(q.current)
		}
	}
	return nil
}

// Shuffle builds a new permutation of natural indices. The track that was
// current before the call stays current after it.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	curNat := -1
	if len(q.tracks) > 0 {
		curNat = q.naturalLocked(q.current)
	}
	q.shuffled = true
	q.reshuffleLocked(curNat)
}

// Unshuffle resolves the cursor to its natural-order index, discards the
// permutation, and continues natural-order playback from the same track.
func (q *Queue) Unshuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.shuffled {
		return
	}
	if len(q.tracks) > 0 {
		q.current = q.order[q.current]
	}
	q.order = nil
	q.shuffled = false
}

// Shuffled reports whether a shuffle permutation is active.
func (q *Queue) Shuffled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffled
}

// reshuffleLocked regenerates the permutation with a Fisher-Yates shuffle.
// When pinNatural >= 0, that natural index ends up at the cursor position
// so the current track does not audibly change.
func (q *Queue) reshuffleLocked(pinNatural int) {
	n := len(q.tracks)
	q.order = make([]int, n)
	for i := range q.order {
		q.order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		q.order[i], q.order[j] = q.order[j], q.order[i]
	}
	if pinNatural >= 0 && n > 0 {
		for i, v := range q.order {
			if v == pinNatural {
				q.order[i], q.order[q.current] = q.order[q.current], q.order[i]
				break
			}
		}
	}
}

// Len returns the number of tracks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}

// IsEmpty reports whether the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// CurrentIndex returns the cursor position in the visible order.
func (q *Queue) CurrentIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// Tracks returns a copy of the natural-order track list.
func (q *Queue) Tracks() []media.Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]media.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// Restore replaces the queue contents with a persisted snapshot: a flat
// natural-order list, a cursor, and the shuffle flag. A fresh permutation
// is generated, pinned so the restored cursor names the same track.
func (q *Queue) Restore(tracks []media.Track, index int, shuffled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tracks = make([]media.Track, len(tracks))
	copy(q.tracks, tracks)
	q.history = nil
	q.current = 0
	if index > 0 && index < len(q.tracks) {
		q.current = index
	}
	q.shuffled = shuffled
	if shuffled {
		q.reshuffleLocked(q.current)
	} else {
		q.order = nil
	}
}

package state

import (
	"database/sql"
	"errors"
	"time"

	dbutil "github.com/mbeaumont/tide/internal/db"
	"github.com/mbeaumont/tide/internal/media"
)

// QueueState represents the saved queue state.
type QueueState struct {
	CurrentIndex int
	RepeatMode   int
	Shuffle      bool
	Tracks       []media.Track
}

// GetQueue returns the saved queue state. An empty database yields a
// state with CurrentIndex -1 and no tracks.
func (m *Manager) GetQueue() (*QueueState, error) {
	return getQueue(m.db)
}

// SaveQueue persists the queue snapshot, replacing any previous one.
func (m *Manager) SaveQueue(state QueueState) error {
	return saveQueue(m.db, state)
}

func getQueue(db *sql.DB) (*QueueState, error) {
	var currentIndex, repeatMode int
	var shuffle bool
	row := db.QueryRow(`SELECT current_index, repeat_mode, shuffle FROM queue_state WHERE id = 1`)
	err := row.Scan(&currentIndex, &repeatMode, &shuffle)
	if errors.Is(err, sql.ErrNoRows) {
		return &QueueState{CurrentIndex: -1}, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT track_id, title, artist, album, path, stream_url, duration_ms
		FROM queue_tracks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []media.Track
	for rows.Next() {
		var t media.Track
		var artist, album, path, streamURL sql.NullString
		var durationMs sql.NullInt64

		err := rows.Scan(&t.ID, &t.Title, &artist, &album, &path, &streamURL, &durationMs)
		if err != nil {
			return nil, err
		}

		t.Artist = dbutil.NullStringValue(artist)
		t.Album = dbutil.NullStringValue(album)
		t.Path = dbutil.NullStringValue(path)
		t.StreamURL = dbutil.NullStringValue(streamURL)
		t.Duration = time.Duration(dbutil.NullInt64Value(durationMs)) * time.Millisecond
		if t.Path == "" && t.StreamURL != "" {
			t.Source = media.SourceRemote
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &QueueState{
		CurrentIndex: currentIndex,
		RepeatMode:   repeatMode,
		Shuffle:      shuffle,
		Tracks:       tracks,
	}, nil
}

func saveQueue(sqlDB *sql.DB, state QueueState) error {
	return dbutil.WithTx(sqlDB, func(tx *sql.Tx) error {
		// Clear existing queue
		_, err := tx.Exec(`DELETE FROM queue_tracks`)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
			INSERT INTO queue_state (id, current_index, repeat_mode, shuffle)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				current_index = excluded.current_index,
				repeat_mode = excluded.repeat_mode,
				shuffle = excluded.shuffle
		`, state.CurrentIndex, state.RepeatMode, state.Shuffle)
		if err != nil {
			return err
		}

		stmt, err := tx.Prepare(`
			INSERT INTO queue_tracks (position, track_id, title, artist, album, path, stream_url, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, t := range state.Tracks {
			_, err = stmt.Exec(i, t.ID, t.Title, t.Artist, t.Album, t.Path, t.StreamURL, t.Duration.Milliseconds())
			if err != nil {
				return err
			}
		}
		return nil
	})
}

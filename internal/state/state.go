// Package state persists player state (queue, playback modes, volume)
// in a SQLite database under the xdg data dir.
package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "tide"
	dbFileName   = "tide.db"
	saveDebounce = 500 * time.Millisecond
)

type Manager struct {
	db     *sql.DB
	saveMu sync.Mutex
	// Volume changes arrive on every keypress; writes are debounced so
	// the database sees only the settled value.
	saveTimer     *time.Timer
	pendingVolume *float64
}

func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pendingVolume
	m.pendingVolume = nil
	m.saveMu.Unlock()

	// Flush pending volume
	if pending != nil {
		_ = saveVolume(m.db, *pending)
	}

	return m.db.Close()
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// SaveVolume schedules a debounced write of the volume level.
func (m *Manager) SaveVolume(volume float64) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pendingVolume = &volume

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pendingVolume
		m.pendingVolume = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = saveVolume(m.db, *pending)
		}
	})
}

// GetVolume returns the saved volume, or def when nothing was saved yet.
func (m *Manager) GetVolume(def float64) (float64, error) {
	var volume sql.NullFloat64
	row := m.db.QueryRow(`SELECT volume FROM queue_state WHERE id = 1`)
	err := row.Scan(&volume)
	if err == sql.ErrNoRows || (err == nil && !volume.Valid) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return volume.Float64, nil
}

func saveVolume(db *sql.DB, volume float64) error {
	_, err := db.Exec(`
		INSERT INTO queue_state (id, current_index, repeat_mode, shuffle, volume)
		VALUES (1, -1, 0, 0, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume
	`, volume)
	return err
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}

// Package store keeps named variable snapshots (presets) in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/liveprog/wire"
)

var log = commonlog.GetLogger("liveprog.store")

// ErrPresetNotFound indicates the requested preset doesn't exist.
var ErrPresetNotFound = errors.New("preset not found")

// Info describes a stored preset without its variables.
type Info struct {
	Name      string
	Program   string
	Saved     time.Time
	Variables int
}

// Store is a preset database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the preset database at path. The parent directory
// is created if needed; ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating preset dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection: an in-memory database is per connection, and writes
	// are serialized by mu anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS presets (
		name TEXT PRIMARY KEY,
		program TEXT NOT NULL,
		saved INTEGER NOT NULL,
		variables INTEGER NOT NULL,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened preset database %s", path)
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Save stores snap under name, replacing any preset with that name.
func (s *Store) Save(name string, snap *wire.Snapshot) error {
	if name == "" {
		return errors.New("preset name is required")
	}
	data, err := wire.MarshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO presets (name, program, saved, variables, data) VALUES (?, ?, ?, ?, ?)",
		name, snap.Program, snap.Taken, len(snap.Variables), data,
	)
	if err != nil {
		return fmt.Errorf("saving preset: %w", err)
	}
	log.Infof("saved preset %q (%d variables)", name, len(snap.Variables))
	return nil
}

// Load retrieves the snapshot stored under name.
func (s *Store) Load(name string) (*wire.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	err := s.db.QueryRow("SELECT data FROM presets WHERE name = ?", name).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPresetNotFound
		}
		return nil, fmt.Errorf("querying preset: %w", err)
	}

	snap, err := wire.UnmarshalSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decoding preset %q: %w", name, err)
	}
	return snap, nil
}

// List returns every preset ordered by name.
func (s *Store) List() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, program, saved, variables FROM presets ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing presets: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var info Info
		var saved int64
		if err := rows.Scan(&info.Name, &info.Program, &saved, &info.Variables); err != nil {
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		info.Saved = time.UnixMilli(saved)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Delete removes the preset stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM presets WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting preset: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrPresetNotFound
	}
	log.Infof("deleted preset %q", name)
	return nil
}

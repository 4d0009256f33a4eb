// Package store persists champions, patches, and per-ability change entries
// in a single-file SQLite database. All three tables are append-only; the
// only whole-store mutation is Reset, which deletes the file.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the shared database handle. Open it once at process start,
// pass it explicitly to whatever needs it, and close it at shutdown.
type Store struct {
	db   *sql.DB
	path string
}

// Champion is a playable character, created on first sighting in roster or
// change data and never deleted.
type Champion struct {
	ID   int64  `json:"id"`
	Name string `json:"champion_name"`
}

// Patch is a versioned release, linked to its announcement page.
type Patch struct {
	ID   int64  `json:"id"`
	Name string `json:"patch_name"`
	Link string `json:"patch_link"`
}

// Change is one documented change to one ability of one champion in one
// patch. The (champion, patch, ability, details) tuple is unique; rows
// reference champions and patches by their unique names.
type Change struct {
	ID            int64  `json:"id"`
	ChampionName  string `json:"champion_name"`
	PatchName     string `json:"patch_name"`
	AbilityTitle  string `json:"ability_title"`
	ChangeDetails string `json:"change_details"`
}

// ChangeFilter narrows ListChanges to one champion and/or one patch.
type ChangeFilter struct {
	Champion string
	Patch    string
}

const schema = `
CREATE TABLE IF NOT EXISTS Champions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	champion_name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS Patches (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	patch_name TEXT UNIQUE NOT NULL,
	patch_link TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS Champion_Changes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	champion_name TEXT NOT NULL,
	patch_name TEXT NOT NULL,
	ability_title TEXT NOT NULL,
	change_details TEXT NOT NULL,
	FOREIGN KEY (champion_name) REFERENCES Champions(champion_name),
	FOREIGN KEY (patch_name) REFERENCES Patches(patch_name),
	UNIQUE(champion_name, patch_name, ability_title, change_details)
);
`

// Open opens (creating if needed) the database at path, enables foreign key
// enforcement, and ensures the tables exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; the reconcile engine serializes through this
	// single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path this store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Reset deletes the database file at path. A missing file is a no-op, not an
// error. Any open Store on that path must be closed first.
func Reset(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ChampionNames returns the set of champion names already in the store.
func (s *Store) ChampionNames() (map[string]struct{}, error) {
	return s.nameSet("SELECT champion_name FROM Champions")
}

// PatchNames returns the set of patch names already in the store. The
// pipeline diffs discovered patches against this set to process only new
// ones.
func (s *Store) PatchNames() (map[string]struct{}, error) {
	return s.nameSet("SELECT patch_name FROM Patches")
}

func (s *Store) nameSet(query string) (map[string]struct{}, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

// ListChampions returns all champions ordered by name.
func (s *Store) ListChampions() ([]Champion, error) {
	rows, err := s.db.Query("SELECT id, champion_name FROM Champions ORDER BY champion_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query champions: %w", err)
	}
	defer rows.Close()

	var champions []Champion
	for rows.Next() {
		var c Champion
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan champion: %w", err)
		}
		champions = append(champions, c)
	}
	return champions, rows.Err()
}

// ListPatches returns all patches oldest-first. Patches are inserted in
// discovery order (oldest to newest), so rowid order is chronological order.
func (s *Store) ListPatches() ([]Patch, error) {
	rows, err := s.db.Query("SELECT id, patch_name, patch_link FROM Patches ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query patches: %w", err)
	}
	defer rows.Close()

	var patches []Patch
	for rows.Next() {
		var p Patch
		if err := rows.Scan(&p.ID, &p.Name, &p.Link); err != nil {
			return nil, fmt.Errorf("failed to scan patch: %w", err)
		}
		patches = append(patches, p)
	}
	return patches, rows.Err()
}

// ListChanges returns change entries matching the filter, in insertion order.
func (s *Store) ListChanges(filter ChangeFilter) ([]Change, error) {
	query := "SELECT id, champion_name, patch_name, ability_title, change_details FROM Champion_Changes"
	var conditions []string
	var args []any

	if filter.Champion != "" {
		conditions = append(conditions, "champion_name = ?")
		args = append(args, filter.Champion)
	}
	if filter.Patch != "" {
		conditions = append(conditions, "patch_name = ?")
		args = append(args, filter.Patch)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var c Change
		if err := rows.Scan(&c.ID, &c.ChampionName, &c.PatchName, &c.AbilityTitle, &c.ChangeDetails); err != nil {
			return nil, fmt.Errorf("failed to scan change: %w", err)
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Counts reports how many rows each table holds (or, from Reconcile, how
// many rows a run inserted).
type Counts struct {
	Champions int `json:"champions"`
	Patches   int `json:"patches"`
	Changes   int `json:"changes"`
}

// TableCounts returns the current number of rows per table.
func (s *Store) TableCounts() (Counts, error) {
	var counts Counts
	tables := []struct {
		name string
		dest *int
	}{
		{"Champions", &counts.Champions},
		{"Patches", &counts.Patches},
		{"Champion_Changes", &counts.Changes},
	}
	for _, table := range tables {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table.name).Scan(table.dest); err != nil {
			return Counts{}, fmt.Errorf("failed to count %s: %w", table.name, err)
		}
	}
	return counts, nil
}

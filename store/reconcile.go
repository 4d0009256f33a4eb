package store

import (
	"fmt"
)

// Reconcile writes newly discovered champions, patches, and change entries,
// inserting only rows whose unique key is not already present. Each entity
// class gets its own transaction, committed in dependency order (champions,
// then patches, then changes) so a change row never lands before the
// champion and patch it references. Every insert is INSERT OR IGNORE, so
// repeated runs against unchanged input insert nothing and duplicates never
// surface as errors.
//
// A write failure rolls back that class's transaction entirely and is
// returned naming the class; classes committed earlier in the same call stay
// committed. Reconcile never retries; callers can rerun the whole call safely
// because the inserts are idempotent.
func (s *Store) Reconcile(champions []string, patches []Patch, changes []Change) (Counts, error) {
	var counts Counts

	inserted, err := s.insertChampions(champions)
	if err != nil {
		return counts, fmt.Errorf("reconcile champions: %w", err)
	}
	counts.Champions = inserted

	inserted, err = s.insertPatches(patches)
	if err != nil {
		return counts, fmt.Errorf("reconcile patches: %w", err)
	}
	counts.Patches = inserted

	inserted, err = s.insertChanges(changes)
	if err != nil {
		return counts, fmt.Errorf("reconcile changes: %w", err)
	}
	counts.Changes = inserted

	return counts, nil
}

func (s *Store) insertChampions(names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO Champions (champion_name) VALUES (?)")
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, name := range names {
		res, err := stmt.Exec(name)
		if err != nil {
			return 0, fmt.Errorf("insert champion %q: %w", name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *Store) insertPatches(patches []Patch) (int, error) {
	if len(patches) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO Patches (patch_name, patch_link) VALUES (?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, patch := range patches {
		res, err := stmt.Exec(patch.Name, patch.Link)
		if err != nil {
			return 0, fmt.Errorf("insert patch %q: %w", patch.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

func (s *Store) insertChanges(changes []Change) (int, error) {
	if len(changes) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO Champion_Changes
		(champion_name, patch_name, ability_title, change_details)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, change := range changes {
		res, err := stmt.Exec(change.ChampionName, change.PatchName, change.AbilityTitle, change.ChangeDetails)
		if err != nil {
			return 0, fmt.Errorf("insert change for %q in %q: %w", change.ChampionName, change.PatchName, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

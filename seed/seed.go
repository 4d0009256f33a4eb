// Package seed loads bundled bootstrap data into an empty store so the
// database is useful before the first live update runs.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/wrgg/patchfeed/scraper"
	"github.com/wrgg/patchfeed/store"
)

// ErrMissingSeed indicates a required seed file does not exist.
var ErrMissingSeed = errors.New("seed file not found")

// Files names the seed documents on disk. Champions and Patches are
// required; Changes is optional and may be empty.
type Files struct {
	Champions string `yaml:"champions"`
	Patches   string `yaml:"patches"`
	Changes   string `yaml:"changes"`
}

type championsDoc struct {
	Champions []string `json:"champions"`
}

// Load reconciles the seed files into the store. Seeding is idempotent for
// the same reason updates are: rows already present are ignored.
func (f Files) Load(st *store.Store) (store.Counts, error) {
	champions, err := readChampions(f.Champions)
	if err != nil {
		return store.Counts{}, err
	}

	patches, err := readPatches(f.Patches)
	if err != nil {
		return store.Counts{}, err
	}

	var changes []store.Change
	if f.Changes != "" {
		changes, err = readChanges(f.Changes)
		if err != nil {
			return store.Counts{}, err
		}
	}

	patchRows := make([]store.Patch, 0, len(patches))
	for _, p := range patches {
		patchRows = append(patchRows, store.Patch{Name: p.Name, Link: p.Link})
	}

	counts, err := st.Reconcile(champions, patchRows, changes)
	if err != nil {
		return store.Counts{}, fmt.Errorf("seed: %w", err)
	}

	slog.Info("seed loaded",
		"champions", counts.Champions,
		"patches", counts.Patches,
		"changes", counts.Changes)
	return counts, nil
}

func readChampions(path string) ([]string, error) {
	var doc championsDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	if len(doc.Champions) == 0 {
		return nil, fmt.Errorf("seed %s: no champions listed", path)
	}
	return doc.Champions, nil
}

func readPatches(path string) ([]scraper.PatchRef, error) {
	var patches []scraper.PatchRef
	if err := readJSON(path, &patches); err != nil {
		return nil, err
	}
	return patches, nil
}

// readChanges flattens snapshot documents into store rows. Entries without
// a champion name are skipped, matching the live pipeline.
func readChanges(path string) ([]store.Change, error) {
	var snapshots []scraper.PatchSnapshot
	if err := readJSON(path, &snapshots); err != nil {
		return nil, err
	}

	var rows []store.Change
	for _, snap := range snapshots {
		for _, champ := range snap.CharacterChanges {
			if champ.Name == "" {
				slog.Warn("skipping nameless champion in seed", "patch", snap.PatchName)
				continue
			}
			for _, change := range champ.Changes {
				rows = append(rows, store.Change{
					ChampionName:  champ.Name,
					PatchName:     snap.PatchName,
					AbilityTitle:  change.AbilityTitle,
					ChangeDetails: change.ChangeDetails,
				})
			}
		}
	}
	return rows, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingSeed, path)
		}
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse seed %s: %w", path, err)
	}
	return nil
}

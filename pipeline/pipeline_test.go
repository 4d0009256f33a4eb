package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wrgg/patchfeed/discovery"
	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/scraper"
	"github.com/wrgg/patchfeed/store"
)

// upstream fakes the whole site: listing, roster, and patch detail pages.
type upstream struct {
	server *httptest.Server
	// patch name -> detail page body; missing entries 404
	patchPages map[string]string
	// listing order, newest first
	listing []string
	roster  []string
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{patchPages: make(map[string]string)}

	mux := http.NewServeMux()
	mux.HandleFunc("/news/tags/patch-notes/", func(w http.ResponseWriter, r *http.Request) {
		for _, name := range u.listing {
			fmt.Fprintf(w, `<a data-testid="articlefeaturedcard-component" href="/news/%s/">
				<div data-testid="card-title">%s</div></a>`, slug(name), name)
		}
	})
	mux.HandleFunc("/champions/", func(w http.ResponseWriter, r *http.Request) {
		for _, name := range u.roster {
			fmt.Fprintf(w, `<a class="card"><div class="name">%s</div></a>`, name)
		}
	})
	mux.HandleFunc("/news/", func(w http.ResponseWriter, r *http.Request) {
		for name, body := range u.patchPages {
			if r.URL.Path == "/news/"+slug(name)+"/" {
				w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	})

	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func slug(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r == ' ' || r == '.':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

func (u *upstream) config() Config {
	return Config{
		ListingURL: u.server.URL + "/news/tags/patch-notes/",
		RosterURL:  u.server.URL + "/champions/",
		Selectors: scraper.Schema{
			Listing: scraper.DefaultSchema().Listing,
			Roster:  scraper.RosterSchema{Card: "a.card", Name: "div.name"},
			Changes: scraper.DefaultSchema().Changes,
		},
		Concurrency: 2,
	}
}

func changePage(champion, ability, details string) string {
	return fmt.Sprintf(`
	<div class="character-changes-container">
	  <div class="character-name">%s</div>
	  <div class="character-change">
	    <div class="character-ability-title">%s</div>
	    <div class="character-change-body">%s</div>
	  </div>
	</div>`, champion, ability, details)
}

func createTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// TestRun verifies a full discovery → aggregate → reconcile pass
func TestRun(t *testing.T) {
	u := newUpstream(t)
	u.listing = []string{"Patch 5.2", "Patch 5.1"}
	u.roster = []string{"Ahri", "Garen", "Lux"}
	u.patchPages["Patch 5.1"] = changePage("Ahri", "Orb of Deception", "Damage reduced.")
	u.patchPages["Patch 5.2"] = changePage("Garen", "Judgment", "Spin speed increased.")

	s := createTestStore(t)
	updater := NewUpdater(s, fetch.NewClient(0, ""), u.config())

	result, err := updater.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.PatchesDiscovered)
	assert.Equal(t, 2, result.PatchesNew)
	assert.Equal(t, 0, result.PatchesFailed)
	assert.Equal(t, store.Counts{Champions: 3, Patches: 2, Changes: 2}, result.Inserted)

	patches, err := s.ListPatches()
	require.NoError(t, err)
	require.Len(t, patches, 2)
	assert.Equal(t, "Patch 5.1", patches[0].Name, "oldest patch persisted first")
	assert.Equal(t, "Patch 5.2", patches[1].Name)

	changes, err := s.ListChanges(store.ChangeFilter{Champion: "Ahri"})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "Orb of Deception", changes[0].AbilityTitle)
	assert.Equal(t, "Patch 5.1", changes[0].PatchName)
}

// TestRun_Idempotent verifies a second run against unchanged upstream
// inserts nothing
func TestRun_Idempotent(t *testing.T) {
	u := newUpstream(t)
	u.listing = []string{"Patch 5.1"}
	u.roster = []string{"Ahri"}
	u.patchPages["Patch 5.1"] = changePage("Ahri", "Charm", "Cooldown increased.")

	s := createTestStore(t)
	updater := NewUpdater(s, fetch.NewClient(0, ""), u.config())

	first, err := updater.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Champions: 1, Patches: 1, Changes: 1}, first.Inserted)

	second, err := updater.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Counts{}, second.Inserted, "zero new rows on repeat run")
	assert.Equal(t, 0, second.PatchesNew, "known patches are not reprocessed")

	total, err := s.TableCounts()
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Champions: 1, Patches: 1, Changes: 1}, total)
}

// TestRun_PartialFailure verifies one failing patch page does not lose the
// others, and the failed patch is retried next run
func TestRun_PartialFailure(t *testing.T) {
	u := newUpstream(t)
	u.listing = []string{"Patch 5.3", "Patch 5.2", "Patch 5.1"}
	u.roster = []string{"Ahri", "Garen", "Lux"}
	u.patchPages["Patch 5.1"] = changePage("Ahri", "Charm", "Cooldown increased.")
	// Patch 5.2 intentionally has no page -> detail fetch 404s
	u.patchPages["Patch 5.3"] = changePage("Lux", "Final Spark", "Range reduced.")

	s := createTestStore(t)
	updater := NewUpdater(s, fetch.NewClient(0, ""), u.config())

	result, err := updater.Run(context.Background())
	require.NoError(t, err, "a per-patch failure is not a run failure")

	assert.Equal(t, 1, result.PatchesFailed, "one recorded failure")
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Patch 5.2")
	assert.Equal(t, 2, result.Inserted.Patches, "surviving patches persisted")
	assert.Equal(t, 2, result.Inserted.Changes)

	// The failed patch was not persisted, so the next run picks it up again
	u.patchPages["Patch 5.2"] = changePage("Garen", "Judgment", "Spin speed increased.")
	second, err := updater.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.PatchesNew)
	assert.Equal(t, 1, second.Inserted.Patches)
	assert.Equal(t, 0, second.PatchesFailed)
}

// TestRun_ListingFailureIsFatal verifies a listing fetch failure aborts the
// run with nothing written
func TestRun_ListingFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := createTestStore(t)
	cfg := Config{
		ListingURL: server.URL + "/news/tags/patch-notes/",
		RosterURL:  server.URL + "/champions/",
		Selectors:  scraper.DefaultSchema(),
	}
	updater := NewUpdater(s, fetch.NewClient(0, ""), cfg)

	result, err := updater.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	counts, cErr := s.TableCounts()
	require.NoError(t, cErr)
	assert.Equal(t, store.Counts{}, counts, "nothing written on a fatal failure")
}

// TestRun_DropsNamelessChampions verifies change rows without a champion
// name never reach the store
func TestRun_DropsNamelessChampions(t *testing.T) {
	u := newUpstream(t)
	u.listing = []string{"Patch 5.1"}
	u.roster = []string{"Ahri"}
	u.patchPages["Patch 5.1"] = `
	<div class="character-changes-container">
	  <div class="character-change">
	    <div class="character-ability-title">Mystery</div>
	    <div class="character-change-body">Changed.</div>
	  </div>
	</div>` + changePage("Ahri", "Charm", "Cooldown increased.")

	s := createTestStore(t)
	updater := NewUpdater(s, fetch.NewClient(0, ""), u.config())

	result, err := updater.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted.Changes, "nameless change dropped")

	changes, err := s.ListChanges(store.ChangeFilter{})
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, "Ahri", changes[0].ChampionName)
}

// TestRun_ChampionFirstSightedInChanges verifies a champion appearing only
// in change data is still created before its change rows
func TestRun_ChampionFirstSightedInChanges(t *testing.T) {
	u := newUpstream(t)
	u.listing = []string{"Patch 5.1"}
	u.roster = []string{"Ahri"} // Zed is not on the roster page yet
	u.patchPages["Patch 5.1"] = changePage("Zed", "Death Mark", "Damage increased.")

	s := createTestStore(t)
	updater := NewUpdater(s, fetch.NewClient(0, ""), u.config())

	result, err := updater.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Inserted.Champions, "roster champion plus sighted champion")

	names, err := s.ChampionNames()
	require.NoError(t, err)
	assert.Contains(t, names, "Zed")
}

// TestWriteArtifact verifies the snapshot document round-trips
func TestWriteArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch_changes.json")
	snapshots := []scraper.PatchSnapshot{
		{
			PatchName: "Patch 5.1",
			CharacterChanges: []scraper.ChampionChanges{
				{
					Name: "Ahri",
					Changes: []scraper.AbilityChange{
						{AbilityTitle: "Charm", ChangeDetails: "Cooldown increased."},
					},
				},
			},
		},
	}

	require.NoError(t, WriteArtifact(path, snapshots))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []scraper.PatchSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snapshots, decoded)
}

// TestFetchSnapshots verifies the standalone fetch path aggregates without
// writing to any store
func TestFetchSnapshots(t *testing.T) {
	u := newUpstream(t)
	u.patchPages["Patch 5.1"] = changePage("Ahri", "Charm", "Cooldown increased.")

	patches := []discovery.PatchRef{
		{Name: "Patch 5.1", Link: u.server.URL + "/news/Patch-5-1/"},
		{Name: "Patch 5.2", Link: u.server.URL + "/news/Patch-5-2/"},
	}

	snapshots, errs := FetchSnapshots(context.Background(), fetch.NewClient(0, ""), patches, scraper.DefaultSchema().Changes, 2)

	require.Len(t, errs, 1, "missing page recorded, not fatal")
	require.Len(t, snapshots, 1)
	assert.Equal(t, "Patch 5.1", snapshots[0].PatchName)
	assert.Equal(t, "Ahri", snapshots[0].CharacterChanges[0].Name)
}

// Package pipeline runs the full discovery → aggregate → reconcile update.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/wrgg/patchfeed/discovery"
	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/scraper"
	"github.com/wrgg/patchfeed/store"
)

// Config holds everything an update run needs to know about upstream.
type Config struct {
	// ListingURL is the patch-notes listing page. Ignored when FeedURL is
	// set.
	ListingURL string
	// RosterURL is the champion roster page.
	RosterURL string
	// FeedURL, when non-empty, switches patch discovery to the RSS/Atom
	// feed at this URL.
	FeedURL string
	// BaseURL is the origin patch links are resolved against; defaults to
	// the listing page's origin.
	BaseURL string
	// Selectors drive all HTML extraction.
	Selectors scraper.Schema
	// Concurrency bounds parallel patch detail fetches.
	Concurrency int
}

// Updater wires a store, a fetch client, and an upstream config into a
// runnable update pipeline. The store handle is passed in, never global, and
// its lifecycle belongs to the caller.
type Updater struct {
	store  *store.Store
	client *fetch.Client
	cfg    Config
}

// NewUpdater creates an updater.
func NewUpdater(st *store.Store, client *fetch.Client, cfg Config) *Updater {
	return &Updater{store: st, client: client, cfg: cfg}
}

// Result summarizes one update run. Counts are rows actually inserted, not
// rows seen.
type Result struct {
	RunID             uuid.UUID    `json:"run_id"`
	Inserted          store.Counts `json:"inserted"`
	PatchesDiscovered int          `json:"patches_discovered"`
	PatchesNew        int          `json:"patches_new"`
	PatchesFailed     int          `json:"patches_failed"`
	Errors            []string     `json:"errors,omitempty"`
}

// Run executes one full update:
//
//  1. Discover patches (listing page or feed), oldest-first. Fatal on
//     failure; with no patch set there is nothing to do.
//  2. Fetch the champion roster. Fatal on failure.
//  3. Diff discovered patches against the store and aggregate changes for
//     the new ones only, concurrently. Per-patch failures are recorded and
//     skipped; a failed patch is not persisted, so the next run retries it.
//  4. Reconcile champions, patches, and changes in dependency order.
//
// A nil error with a non-empty Errors slice means the run succeeded with
// recorded per-patch failures persisted for every patch that did fetch.
func (u *Updater) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.New()}
	log := slog.With("run_id", result.RunID.String())

	patches, err := u.discoverPatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover patches: %w", err)
	}
	result.PatchesDiscovered = len(patches)
	log.Info("patches discovered", "count", len(patches))

	roster, err := discovery.FetchRoster(ctx, u.client, u.cfg.RosterURL, u.cfg.Selectors.Roster)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	log.Info("roster fetched", "champions", len(roster))

	known, err := u.store.PatchNames()
	if err != nil {
		return nil, fmt.Errorf("load known patches: %w", err)
	}

	var newPatches []discovery.PatchRef
	for _, patch := range patches {
		if _, ok := known[patch.Name]; !ok {
			newPatches = append(newPatches, patch)
		}
	}
	result.PatchesNew = len(newPatches)
	log.Info("new patches to process", "count", len(newPatches))

	agg := discovery.NewAggregator(u.client, u.cfg.Selectors.Changes, u.cfg.Concurrency)
	aggregated := agg.Aggregate(ctx, newPatches)
	result.PatchesFailed = len(aggregated.Errors)
	for i := range aggregated.Errors {
		result.Errors = append(result.Errors, aggregated.Errors[i].Error())
	}

	champions, patchRows, changeRows := collect(roster, aggregated.Patches, log)

	inserted, err := u.store.Reconcile(champions, patchRows, changeRows)
	if err != nil {
		return result, err
	}
	result.Inserted = inserted

	log.Info("update run complete",
		"champions_inserted", inserted.Champions,
		"patches_inserted", inserted.Patches,
		"changes_inserted", inserted.Changes,
		"patches_failed", result.PatchesFailed,
	)
	return result, nil
}

func (u *Updater) discoverPatches(ctx context.Context) ([]discovery.PatchRef, error) {
	if u.cfg.FeedURL != "" {
		return discovery.DiscoverPatchesFromFeed(ctx, u.cfg.FeedURL)
	}
	return discovery.DiscoverPatches(ctx, u.client, u.cfg.ListingURL, u.cfg.BaseURL, u.cfg.Selectors.Listing)
}

// collect flattens aggregated patch pages into the rows Reconcile takes.
// The champion set is the roster plus every champion sighted in change data.
// Change rows under an empty champion name cannot satisfy the store's
// referential integrity, so they are dropped here and logged.
func collect(roster []string, patches []discovery.PatchChanges, log *slog.Logger) ([]string, []store.Patch, []store.Change) {
	champions := make([]string, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for _, name := range roster {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		champions = append(champions, name)
	}

	var patchRows []store.Patch
	var changeRows []store.Change

	for _, patch := range patches {
		patchRows = append(patchRows, store.Patch{
			Name: patch.Patch.Name,
			Link: patch.Patch.Link,
		})

		for _, champion := range patch.Champions {
			if champion.Name == "" {
				if len(champion.Changes) > 0 {
					log.Warn("dropping changes with no champion name",
						"patch", patch.Patch.Name,
						"changes", len(champion.Changes),
					)
				}
				continue
			}

			if _, ok := seen[champion.Name]; !ok {
				seen[champion.Name] = struct{}{}
				champions = append(champions, champion.Name)
			}

			for _, change := range champion.Changes {
				changeRows = append(changeRows, store.Change{
					ChampionName:  champion.Name,
					PatchName:     patch.Patch.Name,
					AbilityTitle:  change.AbilityTitle,
					ChangeDetails: change.ChangeDetails,
				})
			}
		}
	}

	return champions, patchRows, changeRows
}

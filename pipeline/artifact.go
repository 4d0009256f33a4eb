package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/wrgg/patchfeed/discovery"
	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/scraper"
)

// FetchSnapshots is the standalone fetch path: it aggregates every given
// patch's changes without touching the store, for inspection or seeding.
func FetchSnapshots(ctx context.Context, client *fetch.Client, patches []discovery.PatchRef, schema scraper.ChangesSchema, concurrency int) ([]scraper.PatchSnapshot, []discovery.PatchError) {
	agg := discovery.NewAggregator(client, schema, concurrency)
	result := agg.Aggregate(ctx, patches)

	snapshots := make([]scraper.PatchSnapshot, 0, len(result.Patches))
	for _, patch := range result.Patches {
		snapshots = append(snapshots, scraper.PatchSnapshot{
			PatchName:        patch.Patch.Name,
			CharacterChanges: patch.Champions,
		})
	}
	return snapshots, result.Errors
}

// WriteArtifact writes patch snapshots to path as an indented JSON document,
// the same shape the seed loader reads back.
func WriteArtifact(path string, snapshots []scraper.PatchSnapshot) error {
	data, err := json.MarshalIndent(snapshots, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshots: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

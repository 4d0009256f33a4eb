package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wrgg/patchfeed/discovery"
	"github.com/wrgg/patchfeed/fetch"
	"github.com/wrgg/patchfeed/pipeline"
)

var flagFetchOut string

func init() {
	fetchCmd.Flags().StringVarP(&flagFetchOut, "out", "o", "", "Output path for the snapshot document. Defaults to the configured artifact path.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Scrape every discovered patch into a JSON snapshot, without touching the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := fetch.NewClient(cfg.FetchTimeout.Std(), cfg.UserAgent)

		var patches []discovery.PatchRef
		if cfg.FeedURL != "" {
			patches, err = discovery.DiscoverPatchesFromFeed(cmd.Context(), cfg.FeedURL)
		} else {
			patches, err = discovery.DiscoverPatches(cmd.Context(), client, cfg.ListingURL, cfg.BaseURL, cfg.Selectors.Listing)
		}
		if err != nil {
			return fmt.Errorf("discover patches: %w", err)
		}

		snapshots, failures := pipeline.FetchSnapshots(cmd.Context(), client, patches, cfg.Selectors.Changes, cfg.Concurrency)
		for _, f := range failures {
			fmt.Printf("  failed: %s: %v\n", f.Patch.Name, f.Err)
		}

		out := flagFetchOut
		if out == "" {
			out = cfg.ArtifactPath
		}
		if err := pipeline.WriteArtifact(out, snapshots); err != nil {
			return fmt.Errorf("write artifact: %w", err)
		}

		fmt.Printf("Wrote %d patches to %s (%d failed)\n", len(snapshots), out, len(failures))
		return nil
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled seed files into the database.",
	Long: `Load the bundled seed files into the database.

Seeding gives a fresh install a usable champion roster and patch history
without scraping anything. Running it again is harmless: rows that already
exist are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := cfg.Seeds.Load(st)
		if err != nil {
			return err
		}

		fmt.Printf("Seeded %d champions, %d patches, %d changes into %s\n",
			counts.Champions, counts.Patches, counts.Changes, cfg.Database)
		return nil
	},
}

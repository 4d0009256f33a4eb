package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wrgg/patchfeed/store"
)

var flagResetForce bool

func init() {
	resetCmd.Flags().BoolVar(&flagResetForce, "force", false, "Actually delete the database file.")
	rootCmd.AddCommand(resetCmd)
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the database file so the next update or seed starts from scratch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !flagResetForce {
			fmt.Printf("This would delete %s. Re-run with --force to confirm.\n", cfg.Database)
			return nil
		}

		if err := store.Reset(cfg.Database); err != nil {
			return fmt.Errorf("reset: %w", err)
		}

		fmt.Printf("Deleted %s\n", cfg.Database)
		return nil
	},
}

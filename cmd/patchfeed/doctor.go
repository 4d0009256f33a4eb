package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wrgg/patchfeed/store"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check database and seed file health.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println("Checking patchfeed health...")
		fmt.Println()

		hasErrors := false

		fmt.Println("Database:")
		fmt.Printf("  Path: %s\n", cfg.Database)

		if _, err := os.Stat(cfg.Database); os.IsNotExist(err) {
			fmt.Println("  ✗ Database file does not exist")
			fmt.Println("    Run 'patchfeed seed' or 'patchfeed update' to create it")
			hasErrors = true
		} else if err != nil {
			fmt.Printf("  ✗ Cannot access database file: %v\n", err)
			hasErrors = true
		} else {
			st, err := store.Open(cfg.Database)
			if err != nil {
				fmt.Printf("  ✗ Failed to open database: %v\n", err)
				hasErrors = true
			} else {
				defer st.Close()
				fmt.Println("  ✓ Database is accessible")

				counts, err := st.TableCounts()
				if err != nil {
					fmt.Printf("  ✗ Failed to count tables: %v\n", err)
					hasErrors = true
				} else {
					fmt.Printf("  Champions: %d\n", counts.Champions)
					fmt.Printf("  Patches:   %d\n", counts.Patches)
					fmt.Printf("  Changes:   %d\n", counts.Changes)
					if counts.Patches == 0 {
						fmt.Println("  ⚠ No patches yet; run 'patchfeed update'")
					}
				}
			}
		}

		fmt.Println()
		fmt.Println("Seed files:")
		for _, path := range []string{cfg.Seeds.Champions, cfg.Seeds.Patches, cfg.Seeds.Changes} {
			if path == "" {
				continue
			}
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Printf("  ⚠ %s missing\n", path)
			} else {
				fmt.Printf("  ✓ %s\n", path)
			}
		}

		fmt.Println()
		if hasErrors {
			return fmt.Errorf("doctor found problems")
		}
		fmt.Println("All checks passed.")
		return nil
	},
}

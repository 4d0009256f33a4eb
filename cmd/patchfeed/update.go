package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagUpdateJSON bool

func init() {
	updateCmd.Flags().BoolVar(&flagUpdateJSON, "json", false, "Print the run result as JSON.")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Fetch new patch notes and reconcile them into the database.",
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

		result, err := newUpdater(cfg, st).Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}

		if flagUpdateJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "    ")
			return enc.Encode(result)
		}

		fmt.Printf("Discovered %d patches, %d new, %d failed\n",
			result.PatchesDiscovered, result.PatchesNew, result.PatchesFailed)
		fmt.Printf("Inserted: %d champions, %d patches, %d changes\n",
			result.Inserted.Champions, result.Inserted.Patches, result.Inserted.Changes)
		for _, msg := range result.Errors {
			fmt.Printf("  failed: %s\n", msg)
		}
		if result.PatchesFailed > 0 {
			fmt.Println("Failed patches will be retried on the next update.")
		}
		return nil
	},
}

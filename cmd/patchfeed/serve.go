package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wrgg/patchfeed/api"
)

var flagServeAddr string

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", ":8790", "Address to listen on.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the patch database over HTTP, with on-demand updates via POST /api/v1/update.",
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

		server := api.NewServer(st, newUpdater(cfg, st))
		slog.Info("serving patch API", "addr", flagServeAddr, "database", cfg.Database)
		return server.Start(flagServeAddr)
	},
}

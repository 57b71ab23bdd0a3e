package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/config"
	"github.com/carenotes/carenotes/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CareNotes server",
	Long: `Start the CareNotes HTTP server.

Provider and store settings come from the config file and are
hot-reloaded while the server runs.

The server provides:
  - /health         - Basic server health check
  - /ready          - Readiness check (includes the note store)
  - /api/simplify   - Patient-friendly rewrite of a stored note
  - /api/sectionize - Split raw note text into sections
  - /api/notes/{key} - Fetch a stored note record

Examples:
  carenotes serve                    # Start on default port 8080
  carenotes serve --port 3000        # Start on custom port
  carenotes serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}

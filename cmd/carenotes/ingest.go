package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/config"
	"github.com/carenotes/carenotes/internal/ingest"
	"github.com/carenotes/carenotes/internal/notestore"
)

var (
	ingestSubjectID string
	ingestHadmID    string
	ingestLimit     int
	ingestWorkers   int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <export.csv[.gz]>",
	Short: "Load a MIMIC note export into the note store",
	Long: `Ingest reads a MIMIC discharge note export (CSV, optionally
gzip-compressed), splits each note into sections, and uploads the
records to the configured note store.

Rows already present in the store are skipped, so re-running an
ingest is safe.

Examples:
  carenotes ingest discharge.csv.gz
  carenotes ingest discharge.csv.gz --subject 10000032
  carenotes ingest discharge.csv.gz --limit 100 --workers 16`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfg := cm.Get()
		store := notestore.NewClient(cfg.ToStoreConfig())

		workers := ingestWorkers
		if workers <= 0 {
			workers = cfg.Defaults.MaxWorkers
		}

		result, err := ingest.Ingest(cmd.Context(), store, ingest.Request{
			CSVPath:   args[0],
			SubjectID: ingestSubjectID,
			HadmID:    ingestHadmID,
			Limit:     ingestLimit,
			Workers:   workers,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Uploaded: %d\n", result.Success)
		fmt.Printf("Skipped:  %d\n", result.Skipped)
		fmt.Printf("Failed:   %d\n", result.Failed)
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d rows failed", result.Failed, result.Total())
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSubjectID, "subject", "", "only ingest rows for this subject_id")
	ingestCmd.Flags().StringVar(&ingestHadmID, "hadm", "", "only ingest rows for this hadm_id")
	ingestCmd.Flags().IntVar(&ingestLimit, "limit", 0, "stop after N rows (0 = all)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "concurrent uploads (default from config)")

	rootCmd.AddCommand(ingestCmd)
}

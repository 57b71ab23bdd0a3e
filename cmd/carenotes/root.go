package main

import (
	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/api"
	"github.com/carenotes/carenotes/version"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "carenotes",
	Short: "Clinical note sectionizer with LLM-powered patient-friendly rewrites",
	Long: `CareNotes turns raw hospital discharge notes into structured sections
and patient-friendly summaries using LLM providers.

The pipeline includes:
  - Regex-based sectionizing of discharge and radiology notes
  - Text normalization of de-identified MIMIC exports
  - Prompt assembly with per-section length budgeting
  - Schema-validated JSON output from the configured provider`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.carenotes/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

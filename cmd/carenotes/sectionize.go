package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carenotes/carenotes/internal/api"
	"github.com/carenotes/carenotes/internal/config"
	"github.com/carenotes/carenotes/internal/home"
	"github.com/carenotes/carenotes/internal/normalize"
	"github.com/carenotes/carenotes/internal/sectionizer"
)

var (
	sectionizeType  string
	sectionizeClean bool
)

var sectionizeCmd = &cobra.Command{
	Use:   "sectionize <file>",
	Short: "Split a note file into sections without a server",
	Long: `Sectionize splits a note file into canonical sections locally.
Unlike "carenotes api sectionize" it needs no running server.

Examples:
  carenotes sectionize note.txt
  carenotes sectionize report.txt --type radiology --clean`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read note: %w", err)
		}

		sections, err := sectionizer.Sectionize(
			sectionizer.NoteType(strings.ToLower(sectionizeType)), string(data))
		if err != nil {
			return err
		}
		if sectionizeClean {
			for id, body := range sections {
				sections[id] = normalize.Normalize(body, normalize.ProfileBasic)
			}
		}
		return api.Output(sections)
	},
}

var configInitGlobal bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write a commented default config.yaml to the given path, or to
./config.yaml when no path is given. With --global the file goes to
~/.carenotes/config.yaml instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if configInitGlobal {
			h, err := home.New("")
			if err != nil {
				return err
			}
			if err := h.EnsureExists(); err != nil {
				return err
			}
			if h.ConfigExists() {
				return fmt.Errorf("%s already exists", h.ConfigPath())
			}
			path = h.ConfigPath()
		}
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file commands",
}

func init() {
	sectionizeCmd.Flags().StringVar(&sectionizeType, "type", "discharge", "note type (discharge or radiology)")
	sectionizeCmd.Flags().BoolVar(&sectionizeClean, "clean", false, "normalize extracted section text")

	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write to ~/.carenotes/config.yaml")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(sectionizeCmd)
	rootCmd.AddCommand(configCmd)
}

// Package cli implements the cleanlytics batch commands: the same cleaning
// pipeline as the web UI, driven by a recipe file instead of a browser.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/logging"
	"github.com/JonMunkholm/cleanlytics/internal/recipe"
	"github.com/spf13/cobra"
)

type app struct {
	cfgFile  string
	logLevel string
	settings *Settings
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "cleanlytics",
		Short:         "Clean, reshape and chart tabular files",
		Long:          `Cleanlytics ingests CSV or XLSX files, removes duplicate and incomplete rows, renames columns, codes categorical values as numbers and exports the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := LoadSettings(a.cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				s.LogLevel = a.logLevel
			}
			a.settings = s
			logging.SetupWriter(cmd.ErrOrStderr(), s.LogLevel, s.LogFormat)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.cleanlytics/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(a.cleanCmd(), a.inspectCmd(), a.chartCmd())
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		msg := core.MapError(err)
		if core.IsUserFacing(err) {
			fmt.Fprintf(os.Stderr, "error: %s (%s). %s\n", msg.Message, msg.Code, msg.Action)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openSession ingests path into a fresh session and replays the recipe at
// recipePath, if any.
func (a *app) openSession(path, recipePath string) (*core.Session, []core.MappingStats, error) {
	fallback, err := core.LookupEncoding(a.settings.FallbackEncoding)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	t, err := core.Ingest(f, path, core.IngestOptions{
		MaxBytes: a.settings.MaxFileSize,
		Fallback: fallback,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	sess := core.NewSession("cli", time.Now())
	sess.Load(t, filepath.Base(path))

	if recipePath == "" {
		return sess, nil, nil
	}
	rec, err := recipe.ReadFile(recipePath)
	if err != nil {
		return nil, nil, err
	}
	stats, err := rec.Apply(sess)
	if err != nil {
		return nil, nil, fmt.Errorf("apply %s: %w", recipePath, err)
	}
	return sess, stats, nil
}

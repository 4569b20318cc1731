package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/warehouse"
	"github.com/spf13/cobra"
)

type cleanFlags struct {
	input       string
	recipe      string
	output      string
	format      string
	loadTable   string
	loadMode    string
	databaseURL string
}

func (a *app) cleanCmd() *cobra.Command {
	var f cleanFlags

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Apply a recipe to a file and export or load the result",
		Example: `  cleanlytics clean --input survey.csv --recipe survey.yaml --output clean.xlsx
  cleanlytics clean --input survey.csv --recipe survey.yaml --load-table staging.survey --load-mode replace`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("database-url") {
				a.settings.DatabaseURL = f.databaseURL
			}
			return a.runClean(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "CSV or XLSX file to clean (required)")
	cmd.Flags().StringVarP(&f.recipe, "recipe", "r", "", "recipe YAML to apply")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "file to write the cleaned table to")
	cmd.Flags().StringVar(&f.format, "format", "", "output format: csv or xlsx (default from --output extension)")
	cmd.Flags().StringVar(&f.loadTable, "load-table", "", "PostgreSQL table to load the cleaned table into")
	cmd.Flags().StringVar(&f.loadMode, "load-mode", "append", "load mode: append or replace")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", "", "PostgreSQL connection string (overrides config)")
	cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runClean(cmd *cobra.Command, f cleanFlags) error {
	if f.output == "" && f.loadTable == "" {
		return errors.New("nothing to do: set --output or --load-table")
	}

	sess, stats, err := a.openSession(f.input, f.recipe)
	if err != nil {
		return err
	}
	v := sess.Snapshot()
	out := cmd.OutOrStdout()

	cs := v.CleanStats
	fmt.Fprintf(out, "rows: %d -> %d (duplicates %d, incomplete %d)\n",
		cs.RowsIn, cs.RowsOut, cs.DuplicatesDropped, cs.IncompleteDropped)
	for _, ms := range stats {
		if ms.EmptyDomain {
			fmt.Fprintf(out, "mapping %s: column has no values, left unchanged\n", ms.Column)
			continue
		}
		fmt.Fprintf(out, "mapping %s: %d coded, %d missing\n", ms.Column, ms.Mapped, ms.Unmapped)
	}

	if f.output != "" {
		format, err := outputFormat(f.output, f.format)
		if err != nil {
			return err
		}
		if err := writeExport(f.output, v.Working, format); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s (%s)\n", f.output, format)
	}

	if f.loadTable != "" {
		res, err := a.load(cmd.Context(), v.Working, f.loadTable, f.loadMode)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "loaded %d rows into %s (%s)\n", res.Rows, res.Table, res.Mode)
	}
	return nil
}

// outputFormat resolves --format, falling back to the output extension.
func outputFormat(path, flag string) (core.ExportFormat, error) {
	if flag == "" {
		flag = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	return core.ParseExportFormat(flag)
}

func writeExport(path string, t *core.Table, format core.ExportFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := core.Export(f, t, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) load(ctx context.Context, t *core.Table, table, mode string) (warehouse.Result, error) {
	m, err := warehouse.ParseMode(mode)
	if err != nil {
		return warehouse.Result{}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, a.settings.LoadTimeout)
	defer cancel()

	loader, err := warehouse.Open(ctx, warehouse.Config{URL: a.settings.DatabaseURL, MaxConns: 1})
	if err != nil {
		return warehouse.Result{}, err
	}
	if !loader.Configured() {
		return warehouse.Result{}, fmt.Errorf("%w: set --database-url or CLEANLYTICS_DATABASE_URL", warehouse.ErrNotConfigured)
	}
	defer loader.Close()

	return loader.Load(ctx, t, table, m)
}

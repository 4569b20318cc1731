package cli

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/cleanlytics/internal/chart"
	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/spf13/cobra"
)

type chartFlags struct {
	input  string
	recipe string
	panel  string
	column string
	kind   string
	output string
}

func (a *app) chartCmd() *cobra.Command {
	var f chartFlags

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a dashboard panel to an SVG or PNG file",
		Example: `  cleanlytics chart --input survey.csv --column age --kind histogram --output age.svg
  cleanlytics chart --input survey.csv --panel categorical --column colour --output colour.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := chart.FormatForPath(f.output)
			if err != nil {
				return err
			}
			sess, _, err := a.openSession(f.input, f.recipe)
			if err != nil {
				return err
			}
			t, err := sess.Working()
			if err != nil {
				return err
			}
			p, err := panelFor(t, f)
			if err != nil {
				return err
			}

			out, err := os.Create(f.output)
			if err != nil {
				return err
			}
			if err := chart.Render(out, p, format, chart.Options{
				Width:   a.settings.ChartWidth,
				Height:  a.settings.ChartHeight,
				MaxBars: a.settings.ChartMaxBars,
			}); err != nil {
				out.Close()
				os.Remove(f.output)
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %s\n", f.output, chart.Title(p))
			return nil
		},
	}

	cmd.Flags().StringVarP(&f.input, "input", "i", "", "CSV or XLSX file (required)")
	cmd.Flags().StringVarP(&f.recipe, "recipe", "r", "", "recipe YAML to apply first")
	cmd.Flags().StringVar(&f.panel, "panel", string(core.PanelNumeric), "panel: numeric or categorical")
	cmd.Flags().StringVarP(&f.column, "column", "c", "", "column to plot (default: first eligible)")
	cmd.Flags().StringVarP(&f.kind, "kind", "k", string(core.ChartHistogram), "numeric chart kind: histogram, line or bar")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "image file, .svg or .png (required)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")
	return cmd
}

func panelFor(t *core.Table, f chartFlags) (core.Panel, error) {
	switch core.PanelKind(f.panel) {
	case core.PanelNumeric:
		kind, err := core.ParseChartKind(f.kind)
		if err != nil {
			return core.Panel{}, err
		}
		return core.NumericPanel(t, f.column, kind)
	case core.PanelCategorical:
		return core.CategoricalPanel(t, f.column)
	default:
		return core.Panel{}, fmt.Errorf("unknown panel %q", f.panel)
	}
}

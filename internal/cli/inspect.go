package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) inspectCmd() *cobra.Command {
	var input, recipePath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the columns of a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, _, err := a.openSession(input, recipePath)
			if err != nil {
				return err
			}
			t, err := sess.Working()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d rows, %d columns\n\n", input, t.NumRows(), t.NumCols())

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "COLUMN\tKIND\tMISSING\tDISTINCT")
			for _, c := range t.Describe() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c.Name, c.Kind, c.Missing, c.Distinct)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "CSV or XLSX file (required)")
	cmd.Flags().StringVarP(&recipePath, "recipe", "r", "", "recipe YAML to apply first")
	cmd.MarkFlagRequired("input")
	return cmd
}

package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

var (
	infoJSON     bool
	infoWarnings bool
	colCategory  string
	colJSON      bool
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show dataset metadata and load statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		info, st := p.DatasetInfo(), p.Stats()
		out := cmd.OutOrStdout()
		if infoJSON {
			return printJSON(out, map[string]any{
				"info": info,
				"load": map[string]any{
					"id":          st.LoadID,
					"source":      st.Source,
					"records":     st.Records,
					"rejected":    st.Rejected,
					"warnings":    st.Warnings,
					"duration_ms": st.Duration.Milliseconds(),
				},
			})
		}
		fmt.Fprintf(out, "%s\n%s\n\n", info.Name, info.Description)
		fmt.Fprintf(out, "Source:        %s (updated %s)\n", info.Source, info.LastUpdated)
		fmt.Fprintf(out, "Records:       %d\n", info.TotalRecords)
		fmt.Fprintf(out, "Countries:     %d\n", info.Countries)
		fmt.Fprintf(out, "Years:         %d - %d (%d distinct)\n", info.YearRange[0], info.YearRange[1], info.TotalYears)
		fmt.Fprintf(out, "Metrics:       %d\n", info.MetricsCount)
		fmt.Fprintf(out, "Loaded from:   %s in %s (rejected %d rows, %d warnings)\n",
			st.Source, st.Duration.Round(time.Millisecond), st.Rejected, st.Warnings)
		if infoWarnings {
			for _, w := range p.Warnings() {
				fmt.Fprintf(out, "  ⚠ %s\n", w)
			}
		}
		return nil
	},
}

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "List the known dataset columns, optionally by category",
	Example: `  wsd columns
  wsd columns --category environmental`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cols := dataset.Columns
		if colCategory != "" {
			c, ok := dataset.MetricCategories[colCategory]
			if !ok {
				return fmt.Errorf("unknown category %q (use one of %v)", colCategory, dataset.CategoryNames)
			}
			cols = c
		}
		if colJSON {
			m := make(map[string]string, len(cols))
			for _, c := range cols {
				m[string(c)] = dataset.FriendlyName(c)
			}
			return printJSON(out, m)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "COLUMN\tLABEL\tCATEGORY")
		for _, c := range cols {
			label := "-"
			if l, ok := dataset.FriendlyNames[c]; ok {
				label = l
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", c, label, categoryOf(c))
		}
		return w.Flush()
	},
}

// categoryOf returns the metric category holding c, or "-".
func categoryOf(c dataset.Column) string {
	for _, n := range dataset.CategoryNames {
		for _, x := range dataset.MetricCategories[n] {
			if x == c {
				return n
			}
		}
	}
	return "-"
}

func init() {
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(columnsCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print as JSON")
	infoCmd.Flags().BoolVar(&infoWarnings, "warnings", false, "list parse warnings")
	columnsCmd.Flags().StringVarP(&colCategory, "category", "c", "", "environmental|social|economic|technology")
	columnsCmd.Flags().BoolVar(&colJSON, "json", false, "print column to label map as JSON")
}

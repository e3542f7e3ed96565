package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/analysis"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

var fieldAliases = map[string]string{
	"carbon":     dataset.FieldCarbon,
	"co2":        dataset.FieldCarbon,
	"renewable":  dataset.FieldRenewable,
	"gdp":        dataset.FieldGDPPerCapita,
	"life":       dataset.FieldLifeExpectancy,
	"forest":     dataset.FieldForestArea,
	"region":     dataset.FieldRegion,
	"income":     dataset.FieldIncomeGroup,
	"country":    dataset.FieldCountry,
	"year":       dataset.FieldYear,
	"population": string(dataset.ColPopulation),
}

// resolveField maps a short alias to its field name; anything else is
// used verbatim.
func resolveField(s string) string {
	if f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return f
	}
	return s
}

var (
	statFilters filterFlags
	statField   string
	statJSON    bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics over the dataset",
	Long: `Aggregate statistics over the dataset. Fields are the canonical names
(see "wsd columns") or one of the aliases carbon, renewable, gdp, life,
forest, region, income, country, year, population.`,
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Min, max, mean and median of a numeric field",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		field := resolveField(statField)
		s := analysis.Summarize(p.Filter(statFilters.options()), field)
		out := cmd.OutOrStdout()
		if statJSON {
			return printJSON(out, s)
		}
		fmt.Fprintf(out, "%s\n  count  %d\n  min    %g\n  max    %g\n  mean   %g\n  median %g\n",
			field, s.Count, s.Min, s.Max, s.Mean, s.Median)
		return nil
	},
}

var statsRegionalCmd = &cobra.Command{
	Use:     "regional",
	Short:   "Average of a numeric field per region",
	Example: `  wsd stats regional --field renewable --year 2018`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		rows := analysis.RegionalAverage(p.Filter(statFilters.options()), resolveField(statField), 0)
		out := cmd.OutOrStdout()
		if statJSON {
			return printJSON(out, rows)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "REGION\tAVERAGE\tCOUNT")
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%.3f\t%d\n", r.Region, r.Average, r.Count)
		}
		return w.Flush()
	},
}

var statsCorrelationCmd = &cobra.Command{
	Use:     "correlation <fieldA> <fieldB>",
	Short:   "Pearson correlation between two numeric fields",
	Example: `  wsd stats correlation gdp life --year 2018`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		a, b := resolveField(args[0]), resolveField(args[1])
		r := analysis.Correlation(p.Filter(statFilters.options()), a, b)
		out := cmd.OutOrStdout()
		if statJSON {
			return printJSON(out, map[string]any{"a": a, "b": b, "r": r})
		}
		fmt.Fprintf(out, "r = %.4f\n", r)
		return nil
	},
}

var statsUniqueCmd = &cobra.Command{
	Use:     "unique <field>",
	Short:   "Sorted distinct values of a field",
	Example: `  wsd stats unique region`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		vals := analysis.UniqueValues(p.Filter(statFilters.options()), resolveField(args[0]))
		out := cmd.OutOrStdout()
		if statJSON {
			return printJSON(out, vals)
		}
		for _, v := range vals {
			fmt.Fprintln(out, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.AddCommand(statsSummaryCmd, statsRegionalCmd, statsCorrelationCmd, statsUniqueCmd)
	statFilters.bind(statsCmd.PersistentFlags())
	statsCmd.PersistentFlags().BoolVar(&statJSON, "json", false, "print as JSON")
	statsSummaryCmd.Flags().StringVar(&statField, "field", "carbon", "numeric field or alias")
	statsRegionalCmd.Flags().StringVar(&statField, "field", "carbon", "numeric field or alias")
}

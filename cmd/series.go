package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	seriesField string
	seriesJSON  bool
)

var seriesCmd = &cobra.Command{
	Use:     "series <country>",
	Short:   "Year-by-year values of one field for a country",
	Example: `  wsd series Germany --field renewable`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		field := resolveField(seriesField)
		points := p.CountryTimeSeries(args[0], field)
		out := cmd.OutOrStdout()
		if seriesJSON {
			return printJSON(out, points)
		}
		if len(points) == 0 {
			return fmt.Errorf("no records for country %q", args[0])
		}
		fmt.Fprintf(out, "%s: %s\n", args[0], field)
		for _, pt := range points {
			v := "-"
			if f, ok := pt.Value.Float(); ok {
				v = strconv.FormatFloat(f, 'f', -1, 64)
			}
			fmt.Fprintf(out, "  %d  %s\n", pt.Year, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.Flags().StringVar(&seriesField, "field", "carbon", "numeric field or alias")
	seriesCmd.Flags().BoolVar(&seriesJSON, "json", false, "print as JSON")
}

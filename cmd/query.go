package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/export"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/query"
)

var (
	qFilters filterFlags
	qLimit   int
	qFormat  string
	qLatest  bool

	expFilters filterFlags
	expFormat  string
	expOutput  string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter records and print them",
	Example: `  wsd query --country "Korea, Rep." --year 2015 --year 2018
  wsd query --region Europe --income "High income" --format json --limit 0
  wsd query --latest --format csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		recs := p.Filter(qFilters.options())
		if qLatest {
			recs = query.Latest(recs)
		}
		total := len(recs)
		if qLimit > 0 && len(recs) > qLimit {
			recs = recs[:qLimit]
		}
		out := cmd.OutOrStdout()
		switch strings.ToLower(qFormat) {
		case "", "table":
			if err := writeTable(out, recs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d records\n", len(recs), total)
			return nil
		case "csv":
			return export.CSV(out, recs)
		case "json":
			if err := export.JSON(out, recs); err != nil {
				return err
			}
			_, err := fmt.Fprintln(out)
			return err
		}
		return fmt.Errorf("unsupported --format: %s (use table|csv|json)", qFormat)
	},
}

var tableFields = []string{
	dataset.FieldCountry,
	dataset.FieldYear,
	dataset.FieldRegion,
	dataset.FieldIncomeGroup,
	dataset.FieldCarbon,
	dataset.FieldRenewable,
	dataset.FieldGDPPerCapita,
	dataset.FieldLifeExpectancy,
}

var tableHeaders = []string{"COUNTRY", "YEAR", "REGION", "INCOME", "CO2", "RENEWABLE%", "GDP/CAP", "LIFE EXP"}

func writeTable(w io.Writer, recs []dataset.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeaders, "\t"))
	row := make([]string, len(tableFields))
	for _, r := range recs {
		for i, f := range tableFields {
			row[i] = cell(r, f)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func cell(r dataset.Record, field string) string {
	v, _ := r.Field(field)
	if v.IsNull() {
		return "-"
	}
	if field != dataset.FieldYear {
		if f, ok := v.Float(); ok {
			return strconv.FormatFloat(f, 'f', 2, 64)
		}
	}
	return v.String()
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the selected records as CSV, JSON or XLSX",
	Long: `Export writes the selection to stdout, or to --output. The format is taken
from --format, else from the output file name. A .gz or .zst suffix on the
output compresses it.`,
	Example: `  wsd export --region Africa > africa.csv
  wsd export --year 2018 -o latest.json.zst
  wsd export --income "Low income" -o low.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := export.FormatCSV
		if expOutput != "" {
			format = export.FormatForPath(expOutput)
		}
		if cmd.Flags().Changed("format") {
			f, err := export.ParseFormat(expFormat)
			if err != nil {
				return err
			}
			format = f
		}
		if format == export.FormatXLSX && expOutput == "" {
			return fmt.Errorf("xlsx export needs --output")
		}
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		if expOutput == "" {
			_, err := p.Export(cmd.OutOrStdout(), expFilters.options(), format)
			return err
		}
		n, err := p.ExportFile(expOutput, expFilters.options(), format)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported %d records to %s\n", n, expOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
	qFilters.bind(queryCmd.Flags())
	queryCmd.Flags().IntVarP(&qLimit, "limit", "n", 20, "maximum records to print (0 = all)")
	queryCmd.Flags().StringVarP(&qFormat, "format", "f", "table", "table|csv|json")
	queryCmd.Flags().BoolVar(&qLatest, "latest", false, "keep only the most recent year in the selection")
	expFilters.bind(exportCmd.Flags())
	exportCmd.Flags().StringVarP(&expFormat, "format", "f", "csv", "csv|json|xlsx")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "write to this file instead of stdout")
}

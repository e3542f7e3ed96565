package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/ai"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/analysis"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/utils"
)

var (
	anaFilters    filterFlags
	anaOutputPath string
	anaFields     []string
	anaSampleRows int
	anaMaxGroups  int
	anaGroups     bool
	anaCorr       bool
	anaOutliers   bool
	anaOutlierThr float64
	anaTokens     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Profile the selected records as a Markdown report",
	Example: `  wsd analyze --region Europe --year 2018
  wsd analyze --country Brazil -o brazil.md --tokens`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadedPortal(cmd.Context())
		if err != nil {
			return err
		}
		opt := analysis.DefaultReportOptions()
		opt.Fields = anaFields
		opt.SampleRows = anaSampleRows
		opt.MaxGroups = anaMaxGroups
		opt.GroupByRegion = anaGroups
		opt.Correlations = anaCorr
		opt.Outliers = anaOutliers
		if anaOutlierThr > 0 {
			opt.OutlierThreshold = anaOutlierThr
		}
		md := p.Report(anaFilters.options(), opt).Markdown()

		out := cmd.OutOrStdout()
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote analysis to %s\n", anaOutputPath)
		} else {
			fmt.Fprintln(out, md)
		}
		if anaTokens {
			printTokenBreakdown(cmd.ErrOrStderr(), md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFilters.bind(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().StringArrayVar(&anaFields, "field", nil, "field to profile (repeatable; default headline metrics)")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include")
	analyzeCmd.Flags().IntVar(&anaMaxGroups, "max-groups", 20, "maximum regions in the group section")
	analyzeCmd.Flags().BoolVar(&anaGroups, "group-by-region", true, "summarize numeric fields per region")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", true, "compute Pearson correlations among numeric fields")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeCmd.Flags().BoolVar(&anaTokens, "tokens", false, "print estimated prompt tokens per report section")
}

// reportSections splits a report on its "[SECTION]" header lines.
func reportSections(md string) map[string]string {
	out := map[string]string{}
	name := "preamble"
	var b strings.Builder
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out[name] = s
		}
		b.Reset()
	}
	for _, line := range strings.Split(md, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
			flush()
			name = strings.Trim(t, "[]")
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	flush()
	return out
}

func printTokenBreakdown(w io.Writer, md string) {
	counts := utils.TokenBreakdown(reportSections(md))
	names := make([]string, 0, len(counts))
	total := 0
	for k, n := range counts {
		names = append(names, k)
		total += n
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Estimated tokens per section:")
	for _, k := range names {
		fmt.Fprintf(w, "  %-16s %6d\n", k, counts[k])
	}
	provider := cfg.Provider()
	model := selectModel(cfg, provider, "")
	fmt.Fprintf(w, "  %-16s %6d (prompt budget %d)\n", "total", total, ai.PromptBudget(model, cfg.MaxPromptTokens))
	m, known := ai.LookupModel(model)
	switch {
	case model == "":
		fmt.Fprintf(w, "  provider %s uses no model\n", provider)
	case known:
		fmt.Fprintf(w, "  %s (%s): %d-token context window\n", m.Name, m.Provider, m.ContextTokens)
	default:
		fmt.Fprintf(w, "  %s: no context window on record\n", model)
	}
	if cost, ok := ai.EstimateCostUSD(model, total, 0); ok {
		fmt.Fprintf(w, "  ~$%.4f input cost on %s\n", cost, model)
	}
}

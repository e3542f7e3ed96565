package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/insights"
)

var (
	insFilters  filterFlags
	insProvider string
	insModel    string
	insJSON     bool

	askFilters  filterFlags
	askProvider string
	askModel    string
	askStream   bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Summarize the selected records with an AI provider or locally",
	Long: `Insights produces key findings, a summary, recommendations and a trend
note for the selection. Without a configured provider, or when the provider
fails, a deterministic local summary is produced instead.`,
	Example: `  wsd insights --region Africa --year 2018
  wsd insights --country Brazil --provider local --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		assistant, err := newAssistant(insProvider, insModel)
		if err != nil {
			return err
		}
		p := newPortal(assistant)
		if err := p.Load(cmd.Context()); err != nil {
			return err
		}
		res, err := p.Insights(cmd.Context(), insFilters.options())
		if err != nil {
			return err
		}
		if insJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		writeInsights(cmd.OutOrStdout(), res)
		return nil
	},
}

func writeInsights(w io.Writer, res *insights.Insights) {
	fmt.Fprintf(w, "=== Summary (%s) ===\n%s\n", res.Source, res.Summary)
	if len(res.Insights) > 0 {
		fmt.Fprintln(w, "\nKey insights:")
		for _, s := range res.Insights {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
	if len(res.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations:")
		for _, s := range res.Recommendations {
			fmt.Fprintf(w, "  • %s\n", s)
		}
	}
	if res.TrendAnalysis != "" {
		fmt.Fprintf(w, "\nTrends:\n%s\n", res.TrendAnalysis)
	}
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the selected records",
	Example: `  wsd ask "How has renewable energy changed in Germany?"
  wsd ask --region Asia --stream "Which countries emit the most CO2?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question is required")
		}
		assistant, err := newAssistant(askProvider, askModel)
		if err != nil {
			return err
		}
		p := newPortal(assistant)
		if err := p.Load(cmd.Context()); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		streamed := false
		var onDelta func(string)
		if askStream {
			onDelta = func(d string) {
				streamed = true
				fmt.Fprint(out, d)
			}
		}
		answer, err := p.Ask(cmd.Context(), question, askFilters.options(), onDelta)
		if err != nil {
			return err
		}
		if streamed {
			fmt.Fprintln(out)
			return nil
		}
		fmt.Fprintln(out, answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(askCmd)
	insFilters.bind(insightsCmd.Flags())
	insightsCmd.Flags().StringVar(&insProvider, "provider", "", "local|openrouter|gemini|ollama (default from config)")
	insightsCmd.Flags().StringVar(&insModel, "model", "", "model name (default from config or provider)")
	insightsCmd.Flags().BoolVar(&insJSON, "json", false, "print as JSON")
	askFilters.bind(askCmd.Flags())
	askCmd.Flags().StringVar(&askProvider, "provider", "", "local|openrouter|gemini|ollama (default from config)")
	askCmd.Flags().StringVar(&askModel, "model", "", "model name (default from config or provider)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer if the provider supports it")
}

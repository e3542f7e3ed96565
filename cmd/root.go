package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/ai"
	cfgpkg "github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/config"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/insights"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/logging"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/portal"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/query"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/utils"
)

var (
	cfgFile      string
	flagData     string
	flagLogLevel string
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wsd",
	Short: "Explore the World Sustainability Dataset from the command line",
	Long: `wsd loads the World Sustainability Dataset (a CSV of country-year
sustainability indicators), then filters, aggregates and exports it. It can
also serve the same queries over HTTP and summarize a selection with an AI
provider, falling back to a local summary when none is configured.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd.Root().PersistentFlags(), cmd.ErrOrStderr())
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.wsd/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagData, "data", "", "dataset CSV path or URL (overrides dataset_source)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "debug|info|warn|error (overrides log_level)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
}

// loadConfig reads the config file and applies the persistent flag
// overrides found in f.
func loadConfig(f *pflag.FlagSet, logOut io.Writer) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	// Apply CLI overrides if provided
	if f.Changed("data") && flagData != "" {
		cfg.DatasetSource = flagData
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}

	l, err := logging.New(logOut, logging.LevelFromString(cfg.LogLevel), cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// newPortal builds a portal over the configured dataset source. The
// dataset is not loaded yet.
func newPortal(assistant insights.Assistant) *portal.Portal {
	client := &http.Client{Timeout: cfg.HTTPTimeout()}
	store := dataset.NewStore(dataset.NewSource(utils.ExpandHome(cfg.DatasetSource), client), logger)
	return portal.New(store, assistant, logger)
}

// loadedPortal builds a portal with the local assistant and loads it.
func loadedPortal(ctx context.Context) (*portal.Portal, error) {
	p := newPortal(nil)
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// newAssistant picks the AI runtime for provider (empty means the
// configured one). "local" yields the deterministic summarizer.
func newAssistant(provider, model string) (insights.Assistant, error) {
	if provider == "" {
		provider = cfg.Provider()
	}
	if provider == ai.ProviderLocal {
		return insights.New(nil, "", logger), nil
	}
	rc := ai.RuntimeConfig{
		HTTPTimeout: cfg.HTTPTimeout(),
		RetryMax:    cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
		APIKey:      cfg.KeyFor(provider),
	}
	if provider == ai.ProviderOllama {
		rc.Host = cfg.OllamaHost
	}
	rt, ok := ai.GetRuntime(provider, rc)
	if !ok {
		return nil, fmt.Errorf("provider not supported: %s (use local or one of %v)", provider, ai.Providers())
	}
	model = selectModel(cfg, provider, model)
	logger.Debug("assistant", "provider", provider, "model", model)
	return insights.New(rt, model, logger,
		insights.WithProvider(provider),
		insights.WithPromptBudget(ai.PromptBudget(model, cfg.MaxPromptTokens)),
		insights.WithReport(true),
	), nil
}

func selectModel(c *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c != nil && c.DefaultModel != "" {
		return c.DefaultModel
	}
	return ai.DefaultModel(provider)
}

// filterFlags binds the selection flags shared by most commands.
type filterFlags struct {
	countries []string
	years     []int
	regions   []string
	incomes   []string
	regimes   []string
	search    string
}

func (ff *filterFlags) bind(fs *pflag.FlagSet) {
	// StringArray, not StringSlice: country names contain commas.
	fs.StringArrayVar(&ff.countries, "country", nil, "country name (repeatable)")
	fs.IntSliceVar(&ff.years, "year", nil, "year (repeatable or comma-separated)")
	fs.StringArrayVar(&ff.regions, "region", nil, "region (repeatable)")
	fs.StringArrayVar(&ff.incomes, "income", nil, "income group (repeatable)")
	fs.StringArrayVar(&ff.regimes, "regime", nil, "regime type (repeatable)")
	fs.StringVarP(&ff.search, "search", "s", "", "case-insensitive substring of country, region, income group, regime type or UN SDG region")
}

func (ff *filterFlags) options() query.Options {
	return query.Options{
		Countries:    ff.countries,
		Years:        ff.years,
		Regions:      ff.regions,
		IncomeGroups: ff.incomes,
		RegimeTypes:  ff.regimes,
		SearchTerm:   ff.search,
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

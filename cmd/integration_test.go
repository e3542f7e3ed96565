package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cfgpkg "github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/config"
)

const fixtureCSV = `Country Name,Country Code,Year,Continent,Income Classification (World Bank Definition),"Annual production-based emissions of carbon dioxide (CO2), measured in million tonnes","Life expectancy at birth, total (years) - SP.DYN.LE00.IN"
Brazil,BRA,2018,South America,Upper-middle income,2.1,75.7
Brazil,BRA,2017,South America,Upper-middle income,2.3,75.5
Germany,DEU,2018,Europe,High income,9.1,81.0
"Korea, Rep.",KOR,2018,Asia,High income,12.0,82.6
,XXX,2018,Asia,High income,1,1
`

// isolate points HOME at a temp dir and writes the fixture dataset there.
func isolate(t *testing.T) (home, data string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GEMINI_API_KEY", "")
	data = filepath.Join(home, "wsd.csv")
	if err := os.WriteFile(data, []byte(fixtureCSV), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return home, data
}

// resetFlags clears values and Changed state that persist between
// Execute calls on the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the root command and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := run(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, errOut)
	}
	return out
}

func TestCLI_QueryFiltersAndFormats(t *testing.T) {
	_, data := isolate(t)

	out := mustRun(t, "query", "--data", data, "--country", "Korea, Rep.", "--format", "csv")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 || !strings.Contains(lines[1], "KOR") {
		t.Fatalf("csv output:\n%s", out)
	}

	out = mustRun(t, "query", "--data", data, "--year", "2018", "--limit", "2")
	if !strings.HasPrefix(out, "COUNTRY") || strings.Count(out, "\n") != 3 {
		t.Fatalf("table output:\n%s", out)
	}

	out = mustRun(t, "query", "--data", data, "--region", "South America", "--format", "json", "--limit", "0")
	var rows []map[string]any
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(rows) != 2 || rows[0]["Country"] != "Brazil" {
		t.Fatalf("rows=%v", rows)
	}

	out = mustRun(t, "query", "--data", data, "--country", "Brazil", "--latest", "--format", "csv")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 || !strings.Contains(lines[1], "2018") {
		t.Fatalf("latest csv:\n%s", out)
	}

	out = mustRun(t, "query", "--data", data, "--search", "europe", "--format", "csv")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 2 || !strings.HasPrefix(lines[1], "Germany") {
		t.Fatalf("search by region:\n%s", out)
	}
	if out := mustRun(t, "query", "--help"); !strings.Contains(out, "income group, regime type or UN SDG region") {
		t.Fatalf("search help:\n%s", out)
	}

	if _, _, err := run(t, "query", "--data", data, "--format", "yaml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestCLI_Stats(t *testing.T) {
	_, data := isolate(t)

	var s struct {
		Count  int     `json:"count"`
		Median float64 `json:"median"`
	}
	out := mustRun(t, "stats", "summary", "--data", data, "--country", "Brazil", "--json")
	if err := json.Unmarshal([]byte(out), &s); err != nil || s.Count != 2 || s.Median != 2.2 {
		t.Fatalf("summary=%+v err=%v", s, err)
	}

	out = mustRun(t, "stats", "unique", "region", "--data", data)
	if strings.TrimSpace(out) != "Asia\nEurope\nSouth America" {
		t.Fatalf("unique:\n%s", out)
	}

	out = mustRun(t, "stats", "regional", "--data", data, "--year", "2017")
	if !strings.Contains(out, "South America") || strings.Contains(out, "Europe") {
		t.Fatalf("regional:\n%s", out)
	}

	out = mustRun(t, "stats", "correlation", "carbon", "life", "--data", data)
	if !strings.HasPrefix(out, "r = 0.9") {
		t.Fatalf("correlation: %s", out)
	}
}

func TestCLI_InfoCountsRejectedRows(t *testing.T) {
	_, data := isolate(t)
	var got struct {
		Info struct {
			TotalRecords int `json:"totalRecords"`
			Countries    int `json:"countries"`
			TotalYears   int `json:"totalYears"`
		} `json:"info"`
		Load struct {
			Rejected int `json:"rejected"`
		} `json:"load"`
	}
	out := mustRun(t, "info", "--data", data, "--json")
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Info.TotalRecords != 4 || got.Info.Countries != 3 || got.Info.TotalYears != 2 || got.Load.Rejected != 1 {
		t.Fatalf("info=%+v", got)
	}
	if out := mustRun(t, "info", "--data", data); !strings.Contains(out, "2017 - 2018 (2 distinct)") {
		t.Fatalf("info text:\n%s", out)
	}
}

func TestCLI_ExportCompressedRoundTrip(t *testing.T) {
	home, data := isolate(t)
	dst := filepath.Join(home, "europe.csv.zst")
	_, errOut, err := run(t, "export", "--data", data, "--region", "Europe", "--region", "Asia", "-o", dst)
	if err != nil || !strings.Contains(errOut, "Exported 2 records") {
		t.Fatalf("export err=%v stderr=%s", err, errOut)
	}
	out := mustRun(t, "stats", "unique", "country", "--data", dst)
	if strings.TrimSpace(out) != "Germany\nKorea, Rep." {
		t.Fatalf("reloaded export:\n%s", out)
	}

	if _, _, err := run(t, "export", "--data", data, "--format", "xlsx"); err == nil {
		t.Fatalf("xlsx to stdout should fail")
	}
}

func TestCLI_SeriesAndColumns(t *testing.T) {
	_, data := isolate(t)
	out := mustRun(t, "series", "Brazil", "--data", data)
	if !strings.Contains(out, "2017  2.3\n  2018  2.1") {
		t.Fatalf("series:\n%s", out)
	}
	if _, _, err := run(t, "series", "Atlantis", "--data", data); err == nil {
		t.Fatalf("expected error for unknown country")
	}
	out = mustRun(t, "columns", "--category", "environmental")
	if !strings.Contains(out, "CO2 Emissions") || strings.Contains(out, "Internet Usage") {
		t.Fatalf("columns:\n%s", out)
	}
}

func TestCLI_AnalyzeWritesReport(t *testing.T) {
	home, data := isolate(t)
	dst := filepath.Join(home, "report.md")
	_, errOut, err := run(t, "analyze", "--data", data, "-o", dst, "--tokens")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	b, err := os.ReadFile(dst)
	if err != nil || !strings.Contains(string(b), "Records: 4") {
		t.Fatalf("report err=%v:\n%s", err, b)
	}
	if !strings.Contains(errOut, "DATASET SUMMARY") || !strings.Contains(errOut, "total") {
		t.Fatalf("token breakdown:\n%s", errOut)
	}
	if !strings.Contains(errOut, "provider local uses no model") {
		t.Fatalf("local model line:\n%s", errOut)
	}

	mustRun(t, "config", "set", "default_provider", "ollama")
	_, errOut, err = run(t, "analyze", "--data", data, "-o", dst, "--tokens")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(errOut, "llama3.1:8b (ollama): 8192-token context window") {
		t.Fatalf("model line:\n%s", errOut)
	}
}

func TestCLI_LocalInsightsAndAsk(t *testing.T) {
	_, data := isolate(t)
	var ins struct {
		Summary string `json:"summary"`
		Source  string `json:"source"`
	}
	out := mustRun(t, "insights", "--data", data, "--provider", "local", "--country", "Germany", "--json")
	if err := json.Unmarshal([]byte(out), &ins); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if ins.Source != "local" || !strings.HasPrefix(ins.Summary, "Analysis of 1 records") {
		t.Fatalf("insights=%+v", ins)
	}

	out = mustRun(t, "ask", "--data", data, "How", "is", "Brazil", "doing?")
	if !strings.Contains(out, "not available") {
		t.Fatalf("ask: %s", out)
	}
	if _, _, err := run(t, "ask", "--data", data, "--provider", "carrier-pigeon", "hi"); err == nil {
		t.Fatalf("expected unsupported provider error")
	}
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	home, _ := isolate(t)
	mustRun(t, "config", "set", "default_provider", "Gemini")
	mustRun(t, "config", "set", "api_key", "sk-or-1234567890")
	if _, err := os.Stat(filepath.Join(home, ".wsd", "config.yaml")); err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "default_provider: gemini") || !strings.Contains(out, "api_key: sk-****890") {
		t.Fatalf("show:\n%s", out)
	}
	if _, _, err := run(t, "config", "set", "no_such_key", "x"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestSelectModelPrecedence(t *testing.T) {
	c := &cfgpkg.Global{DefaultModel: "cfg-model"}
	if got := selectModel(c, "gemini", "cli-model"); got != "cli-model" {
		t.Fatalf("expected CLI model, got %q", got)
	}
	if got := selectModel(c, "gemini", ""); got != "cfg-model" {
		t.Fatalf("expected config model, got %q", got)
	}
	c.DefaultModel = ""
	if got := selectModel(c, "gemini", ""); got != "gemini-1.5-flash" {
		t.Fatalf("expected provider default, got %q", got)
	}
}

func TestResolveFieldAndSections(t *testing.T) {
	if resolveField(" CO2 ") != "Carbon emissions (metric tons per capita)" || resolveField("Custom") != "Custom" {
		t.Fatalf("resolveField mismatch")
	}
	secs := reportSections("intro\n[A]\none\n[B]\ntwo\nthree\n")
	if secs["preamble"] != "intro" || secs["A"] != "[A]\none" || secs["B"] != "[B]\ntwo\nthree" {
		t.Fatalf("sections=%q", secs)
	}
}

func TestLoadConfigAppliesPersistentOverrides(t *testing.T) {
	isolate(t)
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })
	f := rootCmd.PersistentFlags()
	for k, v := range map[string]string{"data": "/tmp/other.csv", "log-level": "debug", "retry-max": "7"} {
		if err := f.Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	var logs bytes.Buffer
	if err := loadConfig(f, &logs); err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.DatasetSource != "/tmp/other.csv" || cfg.LogLevel != "debug" || cfg.RetryMaxAttempts != 7 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if logger == nil || !logger.Enabled(t.Context(), slog.LevelDebug) {
		t.Fatalf("logger not at debug level")
	}
}

package insights

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/ai"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/analysis"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/utils"
)

// MsgAskFailed is the answer given when a reachable assistant fails.
const MsgAskFailed = "Sorry, I couldn't process your question. Please try again or rephrase your question."

// Remote asks a generative model for insights and falls back to Local
// when the model cannot be reached.
type Remote struct {
	rt         ai.Runtime
	model      string
	provider   string
	logger     *slog.Logger
	maxTokens  int
	withReport bool
}

type Option func(*Remote)

// WithProvider labels insights produced by this runtime.
func WithProvider(name string) Option { return func(r *Remote) { r.provider = name } }

// WithPromptBudget caps prompt size in estimated tokens.
func WithPromptBudget(tokens int) Option { return func(r *Remote) { r.maxTokens = tokens } }

// WithReport appends a profile of the selection to the insights prompt.
func WithReport(on bool) Option { return func(r *Remote) { r.withReport = on } }

func NewRemote(rt ai.Runtime, model string, logger *slog.Logger, opts ...Option) *Remote {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Remote{rt: rt, model: model, provider: "ai", logger: logger}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Remote) Summarize(ctx context.Context, records []dataset.Record, c Context) (*Insights, error) {
	if len(records) == 0 {
		return localInsights(records, c), nil
	}
	resp, err := r.rt.Generate(ctx, ai.GenerateRequest{
		Model:    r.model,
		Messages: []ai.Message{{Role: "user", Content: r.insightsPrompt(records, c)}},
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("ai insights failed, using local summary", "provider", r.provider, "model", r.model, "err", err)
		return localInsights(records, c), nil
	}
	r.logger.Debug("ai insights generated", "provider", r.provider, "request_id", resp.RequestID,
		"prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	out := parseInsights(resp.Text())
	out.Source = r.provider
	return out, nil
}

type sampleRow struct {
	Country        string        `json:"country"`
	Year           int           `json:"year"`
	Region         string        `json:"region"`
	IncomeGroup    string        `json:"income_group"`
	Carbon         dataset.Value `json:"carbon_emissions"`
	Renewable      dataset.Value `json:"renewable_energy"`
	GDPPerCapita   dataset.Value `json:"gdp_per_capita"`
	LifeExpectancy dataset.Value `json:"life_expectancy"`
	ForestArea     dataset.Value `json:"forest_area"`
}

func sampleJSON(records []dataset.Record, n int) string {
	rows := make([]sampleRow, 0, n)
	for _, r := range records[:min(n, len(records))] {
		rows = append(rows, sampleRow{
			Country: r.Country, Year: r.Year, Region: r.Region, IncomeGroup: r.IncomeGroup,
			Carbon: r.Carbon, Renewable: r.Renewable, GDPPerCapita: r.GDPPerCapita,
			LifeExpectancy: r.LifeExpectancy, ForestArea: r.ForestArea,
		})
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

type headline struct {
	carbon, renewable, gdp, life analysis.Summary
}

func headlineStats(records []dataset.Record) headline {
	return headline{
		carbon:    analysis.Summarize(records, dataset.FieldCarbon),
		renewable: analysis.Summarize(records, dataset.FieldRenewable),
		gdp:       analysis.Summarize(records, dataset.FieldGDPPerCapita),
		life:      analysis.Summarize(records, dataset.FieldLifeExpectancy),
	}
}

const insightsFormat = `Please provide analysis in this exact JSON format:
{
  "insights": [
    "Key insight 1 about environmental patterns",
    "Key insight 2 about social indicators",
    "Key insight 3 about economic trends"
  ],
  "summary": "Brief summary of overall sustainability performance",
  "recommendations": [
    "Recommendation 1 for improvement",
    "Recommendation 2 for policy makers"
  ],
  "trend_analysis": "Analysis of trends and patterns observed in the data"
}

Focus on:
1. Environmental indicators (carbon emissions, renewable energy, forest coverage)
2. Social development (life expectancy, education, healthcare)
3. Economic sustainability (GDP, income distribution)
4. Regional or income group patterns
5. Year-over-year trends if multiple years present

Provide specific, actionable insights based on the actual data values.
`

func (r *Remote) insightsPrompt(records []dataset.Record, c Context) string {
	filter := c.FilterDescription
	if filter == "" {
		filter = "None"
	}
	st := headlineStats(records)
	var b strings.Builder
	b.WriteString("As a sustainability data expert, analyze this dataset and provide insights in JSON format.\n\n")
	b.WriteString("DATASET CONTEXT:\n")
	fmt.Fprintf(&b, "- Total Records: %d\n- Countries: %d\n- Time Period: %s\n- Filter Applied: %s\n\n",
		c.TotalRecords, c.UniqueCountries, c.YearRange, filter)
	b.WriteString("STATISTICAL SUMMARY:\n")
	fmt.Fprintf(&b, "- Average Carbon Emissions: %s metric tons per capita\n", fixed(st.carbon.Mean, 2))
	fmt.Fprintf(&b, "- Average Renewable Energy: %s%%\n", fixed(st.renewable.Mean, 1))
	fmt.Fprintf(&b, "- Average GDP per Capita: $%s\n", grouped(st.gdp.Mean))
	fmt.Fprintf(&b, "- Average Life Expectancy: %s years\n\n", fixed(st.life.Mean, 1))
	fmt.Fprintf(&b, "SAMPLE DATA (first 5 records):\n%s\n\n", sampleJSON(records, 5))
	b.WriteString(insightsFormat)

	if r.withReport {
		budget := ai.PromptBudget(r.model, r.maxTokens)
		report := analysis.Analyze("selection", records, analysis.DefaultReportOptions()).Markdown()
		if budget > 0 {
			report = utils.TruncateToTokenLimit(report, budget-utils.CountTokens(b.String()))
		}
		if strings.TrimSpace(report) != "" {
			b.WriteString("\nDATASET PROFILE:\n")
			b.WriteString(report)
		}
	}
	return b.String()
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// unparsedInsights is returned when the model answered but not in JSON.
func unparsedInsights() *Insights {
	return &Insights{
		Insights: []string{
			"Unable to parse detailed AI insights at this time",
			"Please try again or check your data selection",
		},
		Summary:         "Analysis temporarily unavailable",
		Recommendations: []string{"Please try again with different filters"},
		TrendAnalysis:   "Trend analysis temporarily unavailable",
	}
}

// parseInsights extracts the outermost {...} span of text. Missing
// fields become empty; a lone string where a list is expected is
// accepted as a one-item list.
func parseInsights(text string) *Insights {
	span := jsonObject.FindString(text)
	if span == "" {
		return unparsedInsights()
	}
	var raw struct {
		Insights        flexList `json:"insights"`
		Summary         string   `json:"summary"`
		Recommendations flexList `json:"recommendations"`
		TrendAnalysis   string   `json:"trend_analysis"`
	}
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return unparsedInsights()
	}
	return &Insights{
		Insights:        nonNil(raw.Insights),
		Summary:         raw.Summary,
		Recommendations: nonNil(raw.Recommendations),
		TrendAnalysis:   raw.TrendAnalysis,
	}
}

type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one != "" {
			*l = flexList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

func nonNil(l flexList) []string {
	if l == nil {
		return []string{}
	}
	return l
}

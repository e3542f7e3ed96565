package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/analysis"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// SourceLocal marks insights computed without a model.
const SourceLocal = "local"

// MsgUnavailable is the answer given when no assistant can be reached.
const MsgUnavailable = "AI analysis is not available. Please check your API configuration or data selection."

// Local builds insights deterministically from summary statistics.
type Local struct{}

func (Local) Summarize(_ context.Context, records []dataset.Record, c Context) (*Insights, error) {
	return localInsights(records, c), nil
}

// Ask always reports that no assistant is configured.
func (Local) Ask(context.Context, string, []dataset.Record, Context, func(string)) (string, error) {
	return MsgUnavailable, nil
}

func localInsights(records []dataset.Record, c Context) *Insights {
	if len(records) == 0 {
		return &Insights{
			Insights:        []string{"No data available for the current selection"},
			Summary:         "No data to analyze",
			Recommendations: []string{"Try adjusting your filters to include more data"},
			TrendAnalysis:   "No trends available",
			Source:          SourceLocal,
		}
	}
	var insights, recs []string

	if carbon := analysis.Summarize(records, dataset.FieldCarbon); carbon.Count > 0 {
		insights = append(insights, fmt.Sprintf("Average carbon emissions: %s metric tons per capita", fixed(carbon.Mean, 2)))
		switch {
		case carbon.Mean > 10:
			recs = append(recs, "Focus on reducing carbon emissions through renewable energy transition")
		case carbon.Mean < 2:
			insights = append(insights, "Low carbon emissions indicate good environmental performance")
		}
	}
	if renewable := analysis.Summarize(records, dataset.FieldRenewable); renewable.Count > 0 {
		insights = append(insights, fmt.Sprintf("Average renewable energy usage: %s%%", fixed(renewable.Mean, 1)))
		switch {
		case renewable.Mean < 20:
			recs = append(recs, "Increase investment in renewable energy infrastructure")
		case renewable.Mean > 50:
			insights = append(insights, "Strong renewable energy adoption indicates sustainable energy practices")
		}
	}
	if gdp := analysis.Summarize(records, dataset.FieldGDPPerCapita); gdp.Count > 0 {
		insights = append(insights, "Average GDP per capita: $"+grouped(gdp.Mean))
	}
	if regions := regionsSeen(records); len(regions) > 1 {
		insights = append(insights, fmt.Sprintf("Data covers %d different regions: %s", len(regions), strings.Join(regions, ", ")))
	}
	if len(recs) == 0 {
		recs = []string{
			"Continue monitoring sustainability indicators",
			"Focus on balanced environmental, social, and economic development",
		}
	}
	return &Insights{
		Insights:        insights,
		Summary:         fmt.Sprintf("Analysis of %d records from %d countries (%s)", c.TotalRecords, c.UniqueCountries, c.YearRange),
		Recommendations: recs,
		TrendAnalysis:   fmt.Sprintf("This dataset covers %s and includes multiple sustainability dimensions for comprehensive analysis.", c.YearRange),
		Source:          SourceLocal,
	}
}

func regionsSeen(records []dataset.Record) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Region]; !ok {
			seen[r.Region] = struct{}{}
			out = append(out, r.Region)
		}
	}
	return out
}

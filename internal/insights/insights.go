// Package insights produces narrative summaries of a record selection,
// either from a generative model or from local statistics alone.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/ai"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// Insights is the narrative result shown next to a selection.
type Insights struct {
	Insights        []string `json:"insights"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	TrendAnalysis   string   `json:"trend_analysis"`
	// Source names who wrote it: "local" or the AI provider.
	Source string `json:"source"`
}

// Context describes the selection being summarized.
type Context struct {
	TotalRecords      int    `json:"total_records"`
	UniqueCountries   int    `json:"unique_countries"`
	YearRange         string `json:"year_range"`
	FilterDescription string `json:"filter_description,omitempty"`
}

// NewContext derives a Context from the selection itself. YearRange is
// "min - max" over the records, or "N/A" when there are none.
func NewContext(records []dataset.Record, filterDescription string) Context {
	c := Context{
		TotalRecords:      len(records),
		UniqueCountries:   len(uniqueCountries(records)),
		YearRange:         "N/A",
		FilterDescription: filterDescription,
	}
	if len(records) > 0 {
		lo, hi := records[0].Year, records[0].Year
		for _, r := range records[1:] {
			lo = min(lo, r.Year)
			hi = max(hi, r.Year)
		}
		c.YearRange = fmt.Sprintf("%d - %d", lo, hi)
	}
	return c
}

// Summarizer turns a selection into Insights.
type Summarizer interface {
	Summarize(ctx context.Context, records []dataset.Record, c Context) (*Insights, error)
}

// Assistant is a Summarizer that also answers free-form questions. When
// onDelta is non-nil and the backend streams, partial text is delivered
// as it arrives.
type Assistant interface {
	Summarizer
	Ask(ctx context.Context, question string, records []dataset.Record, c Context, onDelta func(string)) (string, error)
}

// New returns a Remote assistant over rt, or Local when rt is nil.
func New(rt ai.Runtime, model string, logger *slog.Logger, opts ...Option) Assistant {
	if rt == nil {
		return Local{}
	}
	return NewRemote(rt, model, logger, opts...)
}

// uniqueCountries returns country names in first-seen order.
func uniqueCountries(records []dataset.Record) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, r := range records {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	return out
}

func fixed(f float64, prec int) string { return strconv.FormatFloat(f, 'f', prec, 64) }

var enPrinter = message.NewPrinter(language.English)

// grouped renders f with thousands separators and at most three decimals.
func grouped(f float64) string {
	return enPrinter.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

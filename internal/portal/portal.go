// Package portal is the query surface consumers use: it owns the dataset
// store and answers every read from the loaded snapshot.
package portal

import (
	"context"
	"io"
	"log/slog"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/analysis"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/export"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/insights"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/query"
)

// Portal wraps a Store and an assistant. Before Load succeeds every read
// sees an empty dataset.
type Portal struct {
	store     *dataset.Store
	assistant insights.Assistant
	logger    *slog.Logger
}

// New builds a Portal. A nil assistant means local insights only.
func New(store *dataset.Store, assistant insights.Assistant, logger *slog.Logger) *Portal {
	if assistant == nil {
		assistant = insights.Local{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Portal{store: store, assistant: assistant, logger: logger}
}

func (p *Portal) Load(ctx context.Context) error { return p.store.Load(ctx) }
func (p *Portal) Loaded() bool                   { return p.store.IsLoaded() }
func (p *Portal) Stats() dataset.LoadStats       { return p.store.Stats() }
func (p *Portal) Warnings() []dataset.ParseWarning {
	return p.store.Warnings()
}

// All returns every loaded record in file order.
func (p *Portal) All() []dataset.Record { return p.store.All() }

// Filter applies opts to the loaded records. Empty options skip the scan.
func (p *Portal) Filter(opts query.Options) []dataset.Record {
	recs := p.store.All()
	if opts.IsEmpty() && recs != nil {
		return recs
	}
	return query.Filter(recs, opts)
}

func (p *Portal) UniqueValues(field string) []string {
	return analysis.UniqueValues(p.store.All(), field)
}

func (p *Portal) UniqueCountries() []string    { return p.UniqueValues(dataset.FieldCountry) }
func (p *Portal) UniqueRegions() []string      { return p.UniqueValues(dataset.FieldRegion) }
func (p *Portal) UniqueIncomeGroups() []string { return p.UniqueValues(dataset.FieldIncomeGroup) }

// RegionalAverage averages field per region; year 0 means every year.
func (p *Portal) RegionalAverage(field string, year int) []analysis.RegionAverage {
	return analysis.RegionalAverage(p.store.All(), field, year)
}

func (p *Portal) Summary(field string) analysis.Summary {
	return analysis.Summarize(p.store.All(), field)
}

func (p *Portal) Correlation(fieldA, fieldB string) float64 {
	return analysis.Correlation(p.store.All(), fieldA, fieldB)
}

func (p *Portal) DatasetInfo() analysis.DatasetInfo {
	return analysis.Info(p.store.All())
}

func (p *Portal) CountryData(country string) []dataset.Record {
	return query.CountryData(p.store.All(), country)
}

func (p *Portal) CountryTimeSeries(country, field string) []query.Point {
	return query.CountryTimeSeries(p.store.All(), country, field)
}

// Report profiles the selection chosen by opts.
func (p *Portal) Report(opts query.Options, ro analysis.ReportOptions) *analysis.Report {
	name := "dataset"
	if src := p.store.Source(); src != nil {
		name = src.Name()
	}
	if d := opts.Describe(); d != "" {
		name += " (" + d + ")"
	}
	return analysis.Analyze(name, p.Filter(opts), ro)
}

// Export writes the selection to w and returns how many records it held.
func (p *Portal) Export(w io.Writer, opts query.Options, format export.Format) (int, error) {
	recs := p.Filter(opts)
	return len(recs), export.Write(w, recs, format)
}

// ExportFile writes the selection to path; see export.WriteFile.
func (p *Portal) ExportFile(path string, opts query.Options, format export.Format) (int, error) {
	recs := p.Filter(opts)
	return len(recs), export.WriteFile(path, recs, format)
}

// Insights summarizes the selection. Assistant failures degrade to local
// insights inside the assistant; only cancellation is returned.
func (p *Portal) Insights(ctx context.Context, opts query.Options) (*insights.Insights, error) {
	recs := p.Filter(opts)
	return p.assistant.Summarize(ctx, recs, insights.NewContext(recs, opts.Describe()))
}

// Ask answers a question about the selection. onDelta may be nil.
func (p *Portal) Ask(ctx context.Context, question string, opts query.Options, onDelta func(string)) (string, error) {
	recs := p.Filter(opts)
	p.logger.Debug("question", "records", len(recs), "filters", opts.Describe())
	return p.assistant.Ask(ctx, question, recs, insights.NewContext(recs, opts.Describe()), onDelta)
}

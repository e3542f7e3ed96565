package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// ReportOptions controls Analyze.
type ReportOptions struct {
	// Fields to profile. Empty means the headline metrics plus the
	// classification fields.
	Fields []string
	// SampleRows is how many example rows to include.
	SampleRows int
	// GroupByRegion adds per-region summaries of the numeric fields.
	GroupByRegion bool
	// Correlations computes a Pearson matrix across numeric fields.
	Correlations bool
	// Outliers counts values with robust |z| (MAD based) above OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	// MaxGroups caps the group-by section; 0 means 20.
	MaxGroups int
}

// DefaultReportOptions returns the options used by the analyze command.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		SampleRows:       5,
		GroupByRegion:    true,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of a record set.
type Report struct {
	Name     string
	Rows     int
	Years    [2]int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures the inferred kind and statistics of one field.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|empty
	NonNull int
	Missing int
	Unique  int
	// numeric
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// robust outliers
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// categorical
	TopValues []CategoryCount
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult aggregates numeric fields for one region.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix is a symmetric Pearson matrix across numeric fields.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

type PairCorr struct {
	A, B string
	R    float64
}

func defaultReportFields() []string {
	fields := []string{dataset.FieldRegion, dataset.FieldIncomeGroup, string(dataset.ColRegimeType)}
	return append(fields, dataset.HeadlineMetrics...)
}

// Analyze profiles records. name labels the report.
func Analyze(name string, records []dataset.Record, opt ReportOptions) *Report {
	fields := opt.Fields
	if len(fields) == 0 {
		fields = defaultReportFields()
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}

	info := Info(records)
	rep := &Report{Name: name, Rows: len(records), Years: info.YearRange}

	type colAcc struct {
		name   string
		nonNil int
		miss   int
		// Welford
		n    int
		mean float64
		m2   float64
		min  float64
		max  float64
		txt  int
		cats map[string]int
		vals []float64
	}
	cols := make([]*colAcc, len(fields))
	for i, f := range fields {
		cols[i] = &colAcc{name: f, min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}

	for _, r := range records {
		for _, c := range cols {
			v, ok := r.Field(c.name)
			if !ok || v.IsNull() {
				c.miss++
				continue
			}
			c.nonNil++
			if x, isNum := v.Float(); isNum {
				c.n++
				if x < c.min {
					c.min = x
				}
				if x > c.max {
					c.max = x
				}
				delta := x - c.mean
				c.mean += delta / float64(c.n)
				c.m2 += delta * (x - c.mean)
				c.vals = append(c.vals, x)
				continue
			}
			c.txt++
			c.cats[v.String()]++
		}
		if len(rep.Samples) < sampleRows {
			row := make([]string, len(cols))
			for i, c := range cols {
				v, _ := r.Field(c.name)
				row[i] = v.String()
			}
			rep.Samples = append(rep.Samples, append([]string{r.Country, fmt.Sprint(r.Year)}, row...))
		}
	}

	var numFields []string
	for _, c := range cols {
		s := ColumnSummary{Name: c.name, NonNull: c.nonNil, Missing: c.miss}
		switch {
		case c.n > 0 && c.n >= c.txt:
			s.Kind = "numeric"
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
			numFields = append(numFields, c.name)
			if opt.Outliers && len(c.vals) >= 8 {
				median, mad := medianMAD(c.vals)
				s.OutlierThreshold = thr
				if mad > 0 {
					for _, v := range c.vals {
						az := math.Abs(0.6745 * (v - median) / mad)
						if az > thr {
							s.OutliersCount++
						}
						if az > s.OutliersMaxAbsZ {
							s.OutliersMaxAbsZ = az
						}
					}
				}
			}
		case len(c.cats) > 0:
			s.Kind = "categorical"
			tops := make([]CategoryCount, 0, len(c.cats))
			for k, v := range c.cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			s.Unique = len(tops)
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
		default:
			s.Kind = "empty"
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s has no values in this selection", c.name))
		}
		rep.Cols = append(rep.Cols, s)
	}

	if opt.GroupByRegion && len(numFields) > 0 {
		rep.Groups = groupByRegion(records, numFields, opt.MaxGroups)
	}
	if opt.Correlations && len(numFields) >= 2 {
		rep.Corr = correlationMatrix(records, numFields)
	}
	return rep
}

func groupByRegion(records []dataset.Record, fields []string, maxGroups int) []GroupResult {
	if maxGroups <= 0 {
		maxGroups = 20
	}
	groups := map[string]*GroupResult{}
	for _, r := range records {
		g := groups[r.Region]
		if g == nil {
			g = &GroupResult{Key: r.Region, Metrics: map[string]NumSummary{}}
			groups[r.Region] = g
		}
		g.Size++
		for _, f := range fields {
			x, ok := r.Number(f)
			if !ok {
				continue
			}
			m, seen := g.Metrics[f]
			if !seen || x < m.Min {
				m.Min = x
			}
			if !seen || x > m.Max {
				m.Max = x
			}
			// running mean
			m.Count++
			m.Mean += (x - m.Mean) / float64(m.Count)
			g.Metrics[f] = m
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > maxGroups {
		out = out[:maxGroups]
	}
	return out
}

func correlationMatrix(records []dataset.Record, fields []string) *CorrMatrix {
	n := len(fields)
	mat := make([][]float64, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := Correlation(records, fields[a], fields[b])
			mat[a][b] = r
			mat[b][a] = r
		}
	}
	return &CorrMatrix{Columns: append([]string(nil), fields...), Values: mat}
}

// TopPairs lists off-diagonal pairs by descending |r|.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	if m == nil {
		return nil
	}
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// Markdown renders the report for terminals and prompts.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "Source: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Records: %d\n", r.Rows)
	if r.Years[0] != 0 {
		fmt.Fprintf(&b, "Years: %d-%d\n", r.Years[0], r.Years[1])
	}
	fmt.Fprintf(&b, "Fields profiled: %d\n\n", len(r.Cols))

	b.WriteString("[FIELDS]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%)", safeVal(c.Name), c.Kind, c.NonNull, missPct)
		switch c.Kind {
		case "numeric":
			fmt.Fprintf(&b, ": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case "categorical":
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Value), kv.Count)
			}
			if c.Unique > len(c.TopValues) {
				fmt.Fprintf(&b, "; unique=%d", c.Unique)
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[BY REGION]\n")
		for _, g := range r.Groups {
			fmt.Fprintf(&b, "- %s (n=%d)\n", safeVal(g.Key), g.Size)
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				fmt.Fprintf(&b, "  • %s: mean %.4g (min %.4g, max %.4g, n=%d)\n", k, m.Mean, m.Min, m.Max, m.Count)
			}
		}
	}

	if pairs := r.Corr.TopPairs(10); len(pairs) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n| Country | Year")
		for _, c := range r.Cols {
			b.WriteString(" | ")
			b.WriteString(safeVal(c.Name))
		}
		b.WriteString(" |\n|---|---")
		for range r.Cols {
			b.WriteString("|---")
		}
		b.WriteString("|\n")
		for _, row := range r.Samples {
			b.WriteString("|")
			for _, val := range row {
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(" ")
				b.WriteString(safeVal(val))
				b.WriteString(" |")
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

package analysis

import (
	"math"
	"sort"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// Dataset metadata reported by Info.
const (
	DatasetName        = "World Sustainability Dataset"
	DatasetDescription = "Comprehensive sustainability metrics covering environmental, social, and economic indicators across 173 countries over 19 years (2000-2018). Data sourced from the World Bank, UN, and other international organizations."
	DatasetSource      = "Kaggle TrueCue Women+Data Hackathon"
	DatasetUpdated     = "2024"
)

// Summary holds basic statistics over the numeric values of one field.
// All fields are zero when Count is zero.
type Summary struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// RegionAverage is one row of RegionalAverage.
type RegionAverage struct {
	Region  string  `json:"region"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// DatasetInfo is the catalog view of a record set.
type DatasetInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Source       string `json:"source"`
	LastUpdated  string `json:"lastUpdated"`
	TotalRecords int    `json:"totalRecords"`
	Countries    int    `json:"countries"`
	YearRange    [2]int `json:"yearRange"`
	TotalYears   int    `json:"totalYears"`
	MetricsCount int    `json:"metrics"`
}

// numbers collects the finite numeric values of field.
func numbers(records []dataset.Record, field string) []float64 {
	var vals []float64
	for _, r := range records {
		if x, ok := r.Number(field); ok {
			vals = append(vals, x)
		}
	}
	return vals
}

// UniqueValues returns the distinct non-empty values of field, sorted.
// Unknown fields yield an empty result.
func UniqueValues(records []dataset.Record, field string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, r := range records {
		v, ok := r.Field(field)
		if !ok || !v.Truthy() {
			continue
		}
		s := v.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// RegionalAverage averages field per region. year == 0 means all years.
// Regions appear in first-seen order; regions without values are omitted.
func RegionalAverage(records []dataset.Record, field string, year int) []RegionAverage {
	type acc struct {
		sum float64
		n   int
	}
	var order []string
	groups := map[string]*acc{}
	for _, r := range records {
		if year != 0 && r.Year != year {
			continue
		}
		x, ok := r.Number(field)
		if !ok || r.Region == "" {
			continue
		}
		g := groups[r.Region]
		if g == nil {
			g = &acc{}
			groups[r.Region] = g
			order = append(order, r.Region)
		}
		g.sum += x
		g.n++
	}
	out := make([]RegionAverage, 0, len(order))
	for _, region := range order {
		g := groups[region]
		out = append(out, RegionAverage{Region: region, Average: g.sum / float64(g.n), Count: g.n})
	}
	return out
}

// Summarize computes min, max, mean and median of field. It never fails:
// empty, all-null and unknown fields produce the zero Summary.
func Summarize(records []dataset.Record, field string) Summary {
	vals := numbers(records, field)
	if len(vals) == 0 {
		return Summary{}
	}
	sort.Float64s(vals)
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return Summary{
		Min:    vals[0],
		Max:    vals[len(vals)-1],
		Mean:   sum / float64(len(vals)),
		Median: quantile(vals, 0.5),
		Count:  len(vals),
	}
}

// pairAcc accumulates the sums needed for a Pearson coefficient.
type pairAcc struct {
	n     float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumYY float64
	sumXY float64
}

func (p *pairAcc) add(x, y float64) {
	p.n++
	p.sumX += x
	p.sumY += y
	p.sumXX += x * x
	p.sumYY += y * y
	p.sumXY += x * y
}

// r returns the coefficient, 0 when undefined, clamped to [-1, 1].
func (p *pairAcc) r() float64 {
	if p.n < 2 {
		return 0
	}
	denom := math.Sqrt((p.n*p.sumXX - p.sumX*p.sumX) * (p.n*p.sumYY - p.sumY*p.sumY))
	if denom == 0 || math.IsNaN(denom) {
		return 0
	}
	r := (p.n*p.sumXY - p.sumX*p.sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Correlation is the Pearson coefficient of fieldA and fieldB over rows
// where both are numeric. Fewer than two pairs or a zero denominator give 0.
func Correlation(records []dataset.Record, fieldA, fieldB string) float64 {
	var p pairAcc
	for _, r := range records {
		x, okx := r.Number(fieldA)
		y, oky := r.Number(fieldB)
		if okx && oky {
			p.add(x, y)
		}
	}
	return p.r()
}

// Info describes records. YearRange is [0, 0] when no record carries a year.
func Info(records []dataset.Record) DatasetInfo {
	info := DatasetInfo{
		Name:         DatasetName,
		Description:  DatasetDescription,
		Source:       DatasetSource,
		LastUpdated:  DatasetUpdated,
		TotalRecords: len(records),
		Countries:    len(UniqueValues(records, dataset.FieldCountry)),
		TotalYears:   TotalYears(records),
		MetricsCount: dataset.MetricsCount,
	}
	first := true
	for _, r := range records {
		if r.Year == 0 {
			continue
		}
		if first {
			info.YearRange = [2]int{r.Year, r.Year}
			first = false
			continue
		}
		if r.Year < info.YearRange[0] {
			info.YearRange[0] = r.Year
		}
		if r.Year > info.YearRange[1] {
			info.YearRange[1] = r.Year
		}
	}
	return info
}

// TotalYears counts distinct years.
func TotalYears(records []dataset.Record) int {
	seen := map[int]struct{}{}
	for _, r := range records {
		seen[r.Year] = struct{}{}
	}
	return len(seen)
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

package query

import (
	"sort"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// Point is one year of a country time series. Value is Null when the
// metric is missing for that year.
type Point struct {
	Year  int           `json:"year"`
	Value dataset.Value `json:"value"`
}

// CountryData returns the records whose Country equals name exactly.
func CountryData(records []dataset.Record, name string) []dataset.Record {
	var out []dataset.Record
	for _, r := range records {
		if r.Country == name {
			out = append(out, r)
		}
	}
	return out
}

// CountryTimeSeries returns field for one country, ordered by year.
// Non-numeric cells are reported as Null.
func CountryTimeSeries(records []dataset.Record, country, field string) []Point {
	rows := CountryData(records, country)
	out := make([]Point, 0, len(rows))
	for _, r := range rows {
		v, _ := r.Field(field)
		if !v.IsNumber() {
			v = dataset.Null
		}
		out = append(out, Point{Year: r.Year, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Latest returns the records of the most recent year present.
func Latest(records []dataset.Record) []dataset.Record {
	if len(records) == 0 {
		return nil
	}
	maxYear := records[0].Year
	for _, r := range records[1:] {
		if r.Year > maxYear {
			maxYear = r.Year
		}
	}
	return Filter(records, Options{Years: []int{maxYear}})
}

package analysis

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

const co2 = `"Annual production-based emissions of carbon dioxide (CO2), measured in million tonnes"`

var scenarioCSV = "Country Name,Country Code,Year,Continent," + co2 + `,"Life expectancy at birth, total (years) - SP.DYN.LE00.IN"` + "\n" +
	"Brazil,BRA,2018,South America,2.1,75.7\n" +
	"Brazil,BRA,2017,South America,2.3,75.5\n" +
	"Germany,DEU,2018,Europe,9.1,81.0\n"

func parse(t *testing.T, text string) []dataset.Record {
	t.Helper()
	res, err := dataset.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return res.Records
}

func TestScenarioSummaryAndUnique(t *testing.T) {
	recs := parseScenario(t)
	s := Summarize(recs, dataset.FieldCarbon)
	if s.Count != 3 || s.Min != 2.1 || s.Max != 9.1 || s.Median != 2.3 {
		t.Fatalf("summary=%+v", s)
	}
	if math.Abs(s.Mean-4.5) > 1e-9 {
		t.Fatalf("mean=%v", s.Mean)
	}
	got := UniqueValues(recs, dataset.FieldRegion)
	if !reflect.DeepEqual(got, []string{"Europe", "South America"}) {
		t.Fatalf("unique regions=%v", got)
	}
}

func parseScenario(t *testing.T) []dataset.Record {
	t.Helper()
	return parse(t, scenarioCSV)
}

func TestSummaryTotality(t *testing.T) {
	if s := Summarize(nil, dataset.FieldCarbon); s != (Summary{}) {
		t.Fatalf("empty summary=%+v", s)
	}
	recs := parseScenario(t)
	if s := Summarize(recs, dataset.FieldForestArea); s != (Summary{}) {
		t.Fatalf("all-null summary=%+v", s)
	}
	if s := Summarize(recs, "Not A Field"); s != (Summary{}) {
		t.Fatalf("unknown field summary=%+v", s)
	}
}

func TestSummaryEvenMedian(t *testing.T) {
	recs := parse(t, "Country Name,Country Code,Year,v\nA,AA,2000,1\nB,BB,2000,4\nC,CC,2000,2\nD,DD,2000,10\n")
	if s := Summarize(recs, "v"); s.Median != 3 || s.Count != 4 {
		t.Fatalf("summary=%+v", s)
	}
}

func TestRegionalAverage(t *testing.T) {
	recs := parseScenario(t)
	got := RegionalAverage(recs, dataset.FieldCarbon, 0)
	if len(got) != 2 || got[0].Region != "South America" || got[1].Region != "Europe" {
		t.Fatalf("regional=%+v", got)
	}
	if got[0].Count != 2 || math.Abs(got[0].Average-2.2) > 1e-9 {
		t.Fatalf("south america=%+v", got[0])
	}
	only2017 := RegionalAverage(recs, dataset.FieldCarbon, 2017)
	if len(only2017) != 1 || only2017[0].Average != 2.3 {
		t.Fatalf("2017=%+v", only2017)
	}
	if got := RegionalAverage(recs, dataset.FieldForestArea, 0); len(got) != 0 {
		t.Fatalf("regions without values must be omitted: %+v", got)
	}
}

func TestCorrelation(t *testing.T) {
	recs := parseScenario(t)
	r := Correlation(recs, dataset.FieldCarbon, dataset.FieldLifeExpectancy)
	if r <= 0.9 || r > 1 {
		t.Fatalf("r=%v", r)
	}
	if r := Correlation(recs, dataset.FieldCarbon, dataset.FieldCarbon); math.Abs(r-1) > 1e-9 {
		t.Fatalf("self r=%v", r)
	}
	// constant field -> zero denominator
	constant := parse(t, "Country Name,Country Code,Year,a,b\nA,AA,2000,1,5\nB,BB,2000,2,5\nC,CC,2000,3,5\n")
	if r := Correlation(constant, "a", "b"); r != 0 {
		t.Fatalf("constant r=%v", r)
	}
	if r := Correlation(recs[:1], dataset.FieldCarbon, dataset.FieldLifeExpectancy); r != 0 {
		t.Fatalf("single pair r=%v", r)
	}
	if r := Correlation(recs, dataset.FieldCarbon, "missing"); r != 0 || math.IsNaN(r) {
		t.Fatalf("missing field r=%v", r)
	}
}

func TestCorrelationBounded(t *testing.T) {
	var b strings.Builder
	b.WriteString("Country Name,Country Code,Year,x,y\n")
	xs := []string{"1e10", "1e10", "1e10", "1.0000001e10"}
	ys := []string{"3", "3", "3", "3.0000001"}
	for i := range xs {
		b.WriteString("C,CC,2000," + xs[i] + "," + ys[i] + "\n")
	}
	r := Correlation(parse(t, b.String()), "x", "y")
	if math.IsNaN(r) || r < -1 || r > 1 {
		t.Fatalf("r out of bounds: %v", r)
	}
}

func TestInfo(t *testing.T) {
	recs := parseScenario(t)
	info := Info(recs)
	if info.TotalRecords != 3 || info.Countries != 2 || info.YearRange != [2]int{2017, 2018} {
		t.Fatalf("info=%+v", info)
	}
	if info.MetricsCount != 54 || info.Name != DatasetName || info.TotalYears != 2 {
		t.Fatalf("metadata=%+v", info)
	}
	empty := Info(nil)
	if empty.TotalRecords != 0 || empty.YearRange != [2]int{0, 0} || empty.TotalYears != 0 {
		t.Fatalf("empty info=%+v", empty)
	}
	if TotalYears(recs) != 2 {
		t.Fatalf("total years=%d", TotalYears(recs))
	}
}

func TestMedianMADAndQuantile(t *testing.T) {
	median, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if median != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", median, mad)
	}
	if q := quantile([]float64{0, 10}, 0.25); q != 2.5 {
		t.Fatalf("q=%v", q)
	}
}

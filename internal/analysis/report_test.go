package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

func reportFixture(t *testing.T) []dataset.Record {
	t.Helper()
	var b strings.Builder
	b.WriteString("Country Name,Country Code,Year,Continent,Income Classification (World Bank Definition)," + co2 +
		",GDP per capita (current US$) - NY.GDP.PCAP.CD\n")
	// nine ordinary rows and one extreme emitter
	for i := 0; i < 9; i++ {
		region := "Europe"
		if i%2 == 0 {
			region = "Africa"
		}
		fmt.Fprintf(&b, "C%d,C%02d,%d,%s,High income,%.1f,%d\n", i, i, 2010+i, region, 2.0+float64(i)*0.1, 1000+i*100)
	}
	b.WriteString("Big,BIG,2018,Asia,Upper-middle income,50,2000\n")
	return parse(t, b.String())
}

func TestAnalyzeProfilesFields(t *testing.T) {
	recs := reportFixture(t)
	rep := Analyze("fixture.csv", recs, DefaultReportOptions())
	if rep.Rows != 10 || rep.Years != [2]int{2010, 2018} {
		t.Fatalf("rows=%d years=%v", rep.Rows, rep.Years)
	}
	byName := map[string]ColumnSummary{}
	for _, c := range rep.Cols {
		byName[c.Name] = c
	}
	carbon := byName[dataset.FieldCarbon]
	if carbon.Kind != "numeric" || carbon.NonNull != 10 || carbon.Max != 50 {
		t.Fatalf("carbon=%+v", carbon)
	}
	if carbon.OutliersCount < 1 || carbon.OutlierThreshold != 3.5 {
		t.Fatalf("expected extreme emitter flagged: %+v", carbon)
	}
	region := byName[dataset.FieldRegion]
	if region.Kind != "categorical" || region.Unique != 3 || region.TopValues[0].Value != "Africa" {
		t.Fatalf("region=%+v", region)
	}
	if forest := byName[dataset.FieldForestArea]; forest.Kind != "empty" || forest.Missing != 10 {
		t.Fatalf("forest=%+v", forest)
	}
	if len(rep.Groups) != 3 || rep.Groups[0].Key != "Africa" || rep.Groups[0].Size != 5 {
		t.Fatalf("groups=%+v", rep.Groups)
	}
	if rep.Corr == nil || len(rep.Corr.Columns) < 2 {
		t.Fatalf("expected correlation matrix")
	}
	for i := range rep.Corr.Columns {
		if rep.Corr.Values[i][i] != 1 {
			t.Fatalf("diagonal must be 1")
		}
	}
}

func TestReportMarkdownSections(t *testing.T) {
	rep := Analyze("fixture.csv", reportFixture(t), DefaultReportOptions())
	md := rep.Markdown()
	for _, want := range []string{"[DATASET SUMMARY]", "Records: 10", "Years: 2010-2018", "[FIELDS]", "[BY REGION]", "[CORRELATIONS]", "[SAMPLE ROWS]", "[NOTES]"} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	if !strings.Contains(md, "Forest area (% of land area) has no values") {
		t.Fatalf("expected note about empty field:\n%s", md)
	}
}

func TestAnalyzeEmptySelection(t *testing.T) {
	rep := Analyze("", nil, DefaultReportOptions())
	if rep.Rows != 0 || rep.Corr != nil || len(rep.Groups) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if md := rep.Markdown(); !strings.Contains(md, "Records: 0") {
		t.Fatalf("markdown=%s", md)
	}
}

func TestTopPairsOrdering(t *testing.T) {
	m := &CorrMatrix{
		Columns: []string{"a", "b", "c"},
		Values: [][]float64{
			{1, 0.2, -0.9},
			{0.2, 1, 0.5},
			{-0.9, 0.5, 1},
		},
	}
	pairs := m.TopPairs(2)
	if len(pairs) != 2 || pairs[0].B != "c" || pairs[1].R != 0.5 {
		t.Fatalf("pairs=%+v", pairs)
	}
	var nilMatrix *CorrMatrix
	if nilMatrix.TopPairs(5) != nil {
		t.Fatalf("nil matrix should yield nil")
	}
}

package insights

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/ai"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// countryKeywords are matched, in order, against the lowercased question.
// Aliases also match the country's full name.
var countryKeywords = []string{
	"brazil", "usa", "germany", "china", "india", "france", "japan",
	"canada", "australia", "uk", "united kingdom", "united states",
}

var keywordAliases = map[string]string{
	"usa": "united states",
	"uk":  "united kingdom",
}

// NarrowToCountry returns the records of the first country named in
// question that has any rows, or records unchanged.
func NarrowToCountry(question string, records []dataset.Record) []dataset.Record {
	q := strings.ToLower(question)
	for _, kw := range countryKeywords {
		if !strings.Contains(q, kw) {
			continue
		}
		alias := keywordAliases[kw]
		var hits []dataset.Record
		for _, r := range records {
			name := strings.ToLower(r.Country)
			if strings.Contains(name, kw) || (alias != "" && strings.Contains(name, alias)) {
				hits = append(hits, r)
			}
		}
		if len(hits) > 0 {
			return hits
		}
	}
	return records
}

// Ask answers question from the selection. Failures never surface as
// errors: the answer is a fixed apology, and the cause is logged.
func (r *Remote) Ask(ctx context.Context, question string, records []dataset.Record, c Context, onDelta func(string)) (string, error) {
	if len(records) == 0 {
		return MsgUnavailable, nil
	}
	relevant := NarrowToCountry(question, records)
	req := ai.GenerateRequest{
		Model:    r.model,
		Messages: []ai.Message{{Role: "user", Content: askPrompt(question, relevant, c)}},
	}

	var (
		answer string
		err    error
	)
	if sr, ok := r.rt.(ai.StreamRuntime); ok && onDelta != nil {
		var b strings.Builder
		err = sr.GenerateStream(ctx, req, func(d string) {
			b.WriteString(d)
			onDelta(d)
		})
		answer = b.String()
		if err != nil && answer != "" {
			r.logger.Warn("ai answer stream interrupted", "provider", r.provider, "err", err)
			return answer, nil
		}
	} else {
		var resp *ai.GenerateResponse
		if resp, err = r.rt.Generate(ctx, req); err == nil {
			answer = resp.Text()
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.logger.Warn("ai question failed", "provider", r.provider, "model", r.model, "err", err)
		if ai.IsUnavailable(err) {
			return MsgUnavailable, nil
		}
		return MsgAskFailed, nil
	}
	return answer, nil
}

func askPrompt(question string, records []dataset.Record, c Context) string {
	countries := uniqueCountries(records)
	st := headlineStats(records)
	var b strings.Builder
	b.WriteString("You are a sustainability data expert. Answer this question based on the provided dataset:\n\n")
	fmt.Fprintf(&b, "QUESTION: %s\n\n", question)
	b.WriteString("DATASET CONTEXT:\n")
	fmt.Fprintf(&b, "- Records analyzed: %d\n", len(records))
	fmt.Fprintf(&b, "- Countries in analysis: %d\n", len(countries))
	fmt.Fprintf(&b, "- Time Period: %s\n", c.YearRange)
	fmt.Fprintf(&b, "- Sample includes: %s\n\n", strings.Join(countries[:min(5, len(countries))], ", "))
	b.WriteString("STATISTICS:\n")
	fmt.Fprintf(&b, "- Avg Carbon Emissions: %s MT per capita\n", fixed(st.carbon.Mean, 2))
	fmt.Fprintf(&b, "- Avg Renewable Energy: %s%%\n", fixed(st.renewable.Mean, 1))
	fmt.Fprintf(&b, "- Avg GDP per Capita: $%s\n", grouped(st.gdp.Mean))
	fmt.Fprintf(&b, "- Avg Life Expectancy: %s years\n\n", fixed(st.life.Mean, 1))
	fmt.Fprintf(&b, "SAMPLE DATA:\n%s\n\n", sampleJSON(records, 3))
	b.WriteString("Provide a clear, concise answer based on the data. If the question cannot be answered from the available data, explain what data would be needed.\n")
	return b.String()
}

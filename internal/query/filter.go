package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
)

// Options selects records. Dimensions are AND-combined and values within a
// dimension are OR-combined. An empty slice imposes no constraint.
type Options struct {
	Countries    []string `json:"countries,omitempty"`
	Years        []int    `json:"years,omitempty"`
	Regions      []string `json:"regions,omitempty"`
	IncomeGroups []string `json:"incomeGroups,omitempty"`
	RegimeTypes  []string `json:"regimeTypes,omitempty"`
	SearchTerm   string   `json:"searchTerm,omitempty"`
}

// IsEmpty reports whether no option constrains the result.
func (o Options) IsEmpty() bool {
	return len(o.Countries) == 0 && len(o.Years) == 0 && len(o.Regions) == 0 &&
		len(o.IncomeGroups) == 0 && len(o.RegimeTypes) == 0 && o.SearchTerm == ""
}

// Filter returns the records matching every supplied option, in input order.
// The input is never modified.
func Filter(records []dataset.Record, opts Options) []dataset.Record {
	countries := toSet(opts.Countries)
	regions := toSet(opts.Regions)
	incomes := toSet(opts.IncomeGroups)
	regimes := toSet(opts.RegimeTypes)
	years := make(map[int]struct{}, len(opts.Years))
	for _, y := range opts.Years {
		years[y] = struct{}{}
	}
	term := strings.ToLower(opts.SearchTerm)

	out := make([]dataset.Record, 0, len(records))
	for _, r := range records {
		if countries != nil && !has(countries, r.Country) {
			continue
		}
		if len(years) > 0 {
			if _, ok := years[r.Year]; !ok {
				continue
			}
		}
		if regions != nil && !has(regions, r.Region) {
			continue
		}
		if incomes != nil && !has(incomes, r.IncomeGroup) {
			continue
		}
		if regimes != nil {
			v := r.Raw.Get(dataset.ColRegimeType)
			if v.IsNull() || !has(regimes, v.String()) {
				continue
			}
		}
		if term != "" && !matchesSearch(r, term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesSearch(r dataset.Record, lowerTerm string) bool {
	fields := []string{
		r.Country,
		r.Region,
		r.IncomeGroup,
		r.Raw.Get(dataset.ColRegimeType).String(),
		r.Raw.Get(dataset.ColUNSDGRegion).String(),
	}
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), lowerTerm) {
			return true
		}
	}
	return false
}

func toSet(items []string) map[string]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func has(set map[string]struct{}, s string) bool {
	_, ok := set[s]
	return ok
}

// Merge combines two option sets. Slices are unioned; a non-empty search
// term in other replaces the receiver's.
func (o Options) Merge(other Options) Options {
	out := Options{
		Countries:    unionStrings(o.Countries, other.Countries),
		Regions:      unionStrings(o.Regions, other.Regions),
		IncomeGroups: unionStrings(o.IncomeGroups, other.IncomeGroups),
		RegimeTypes:  unionStrings(o.RegimeTypes, other.RegimeTypes),
		SearchTerm:   o.SearchTerm,
	}
	seen := map[int]bool{}
	for _, y := range append(append([]int(nil), o.Years...), other.Years...) {
		if !seen[y] {
			seen[y] = true
			out.Years = append(out.Years, y)
		}
	}
	if other.SearchTerm != "" {
		out.SearchTerm = other.SearchTerm
	}
	return out
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Describe renders the options for humans, e.g. in prompts. It returns ""
// when nothing is selected.
func (o Options) Describe() string {
	var parts []string
	add := func(label string, vals []string) {
		if len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(vals, ", ")))
		}
	}
	add("countries", o.Countries)
	if len(o.Years) > 0 {
		ys := append([]int(nil), o.Years...)
		sort.Ints(ys)
		strs := make([]string, len(ys))
		for i, y := range ys {
			strs[i] = strconv.Itoa(y)
		}
		add("years", strs)
	}
	add("regions", o.Regions)
	add("income groups", o.IncomeGroups)
	add("regime types", o.RegimeTypes)
	if o.SearchTerm != "" {
		parts = append(parts, fmt.Sprintf("search: %q", o.SearchTerm))
	}
	return strings.Join(parts, "; ")
}

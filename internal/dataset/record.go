package dataset

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// RawRecord is one parsed CSV row keyed by trimmed header name.
// Header is shared by every row of a load and must not be modified.
type RawRecord struct {
	Header []Column
	Values map[Column]Value
}

// Get returns the cell for c, or Null when the column is absent.
func (r RawRecord) Get(c Column) Value {
	if r.Values == nil {
		return Null
	}
	return r.Values[c]
}

// Valid reports whether the mandatory key cells are all truthy.
func (r RawRecord) Valid() bool {
	return r.Get(ColCountryName).Truthy() &&
		r.Get(ColCountryCode).Truthy() &&
		r.Get(ColYear).Truthy()
}

// Record is the normalized view of a RawRecord. The raw cells stay
// reachable through Field and Raw.
type Record struct {
	Country        string
	Year           int
	Region         string
	IncomeGroup    string
	Carbon         Value
	Renewable      Value
	GDPPerCapita   Value
	LifeExpectancy Value
	ForestArea     Value

	Raw RawRecord
}

// Normalize derives a Record from a valid raw row.
func Normalize(raw RawRecord) Record {
	year, _ := raw.Get(ColYear).Float()
	return Record{
		Country:        raw.Get(ColCountryName).String(),
		Year:           int(year),
		Region:         firstTruthy(raw.Get(ColContinent), raw.Get(ColUNSDGRegion)),
		IncomeGroup:    firstTruthy(raw.Get(ColIncomeClass)),
		Carbon:         numeric(raw.Get(ColCO2Emissions)),
		Renewable:      numeric(raw.Get(ColRenewableConsumption)),
		GDPPerCapita:   numeric(raw.Get(ColGDPPerCapita)),
		LifeExpectancy: numeric(raw.Get(ColLifeExpectancy)),
		ForestArea:     Null,
		Raw:            raw,
	}
}

func firstTruthy(vals ...Value) string {
	for _, v := range vals {
		if v.Truthy() {
			return v.String()
		}
	}
	return UnknownClassifier
}

// numeric drops stray text from a headline metric cell.
func numeric(v Value) Value {
	if v.IsNumber() {
		return v
	}
	return Null
}

// Field looks a value up by name: canonical fields first, then raw columns.
// Unknown names return (Null, false).
func (r Record) Field(name string) (Value, bool) {
	switch name {
	case FieldCountry:
		return Text(r.Country), true
	case FieldYear:
		return Number(float64(r.Year)), true
	case FieldRegion:
		return Text(r.Region), true
	case FieldIncomeGroup:
		return Text(r.IncomeGroup), true
	case FieldCarbon:
		return r.Carbon, true
	case FieldRenewable:
		return r.Renewable, true
	case FieldGDPPerCapita:
		return r.GDPPerCapita, true
	case FieldLifeExpectancy:
		return r.LifeExpectancy, true
	case FieldForestArea:
		return r.ForestArea, true
	}
	if r.Raw.Values != nil {
		if v, ok := r.Raw.Values[Column(name)]; ok {
			return v, true
		}
	}
	for _, c := range r.Raw.Header {
		if string(c) == name {
			return Null, true
		}
	}
	return Null, false
}

// Number returns the numeric value of name, if present.
func (r Record) Number(name string) (float64, bool) {
	v, _ := r.Field(name)
	return v.Float()
}

// Keys returns the export key order: raw header order, then the canonical
// fields the header does not already carry.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Raw.Header)+len(CanonicalFields))
	seen := make(map[string]struct{}, cap(keys))
	for _, c := range r.Raw.Header {
		if _, dup := seen[string(c)]; dup {
			continue
		}
		seen[string(c)] = struct{}{}
		keys = append(keys, string(c))
	}
	for _, f := range CanonicalFields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		keys = append(keys, f)
	}
	return keys
}

// MarshalJSON encodes the record as an object with keys in Keys() order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		v, _ := r.Field(k)
		vb, err := v.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

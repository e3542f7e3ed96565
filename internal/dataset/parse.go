package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseResult is the outcome of one parse pass.
type ParseResult struct {
	Header   []Column
	Records  []Record
	Rows     int // data rows read, rejected and skipped rows included
	Rejected int // rows failing the key-field validity check
	Warnings []ParseWarning
}

// Parse reads a headered CSV document and returns the normalized records.
// Malformed rows produce warnings; only I/O failures abort.
func Parse(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	// Strict quoting: a stray or unterminated quote must surface as a
	// warning instead of folding later rows into one cell.
	cr.ReuseRecord = true

	res := &ParseResult{}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	res.Header = make([]Column, len(header))
	seen := make(map[Column]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		c := Column(strings.TrimSpace(h))
		if seen[c] {
			res.Warnings = append(res.Warnings, ParseWarning{Field: string(c), Message: "duplicate column; later cells win"})
		}
		seen[c] = true
		res.Header[i] = c
	}
	ncol := len(res.Header)

	lastErrLine := -1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Rows++
				if pe.StartLine == lastErrLine {
					// reader is not advancing
					return nil, fmt.Errorf("read row %d: %w", res.Rows, err)
				}
				lastErrLine = pe.StartLine
				res.Warnings = append(res.Warnings, ParseWarning{Row: res.Rows, Message: pe.Error()})
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", res.Rows+1, err)
		}
		res.Rows++
		switch {
		case len(rec) < ncol:
			res.Warnings = append(res.Warnings, ParseWarning{
				Row:     res.Rows,
				Message: fmt.Sprintf("too few fields: expected %d, got %d", ncol, len(rec)),
			})
		case len(rec) > ncol:
			res.Warnings = append(res.Warnings, ParseWarning{
				Row:     res.Rows,
				Message: fmt.Sprintf("too many fields: expected %d, got %d", ncol, len(rec)),
			})
		}

		values := make(map[Column]Value, ncol)
		for j, c := range res.Header {
			if j >= len(rec) {
				values[c] = Null
				continue
			}
			values[c] = parseCell(c, rec[j])
		}
		raw := RawRecord{Header: res.Header, Values: values}
		if !raw.Valid() {
			res.Rejected++
			continue
		}
		res.Records = append(res.Records, Normalize(raw))
	}
	return res, nil
}

func parseCell(c Column, s string) Value {
	if c == ColYear {
		if s == "" || s == "null" {
			return Null
		}
		y, ok := ParseYear(s)
		if !ok {
			return Null
		}
		return Number(float64(y))
	}
	return ParseValue(s)
}

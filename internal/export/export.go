package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/xuri/excelize/v2"

	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/dataset"
	"github.com/Abeelha/portaljs-World-Sustainability-Dataset/internal/utils"
)

// Format is an export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// SheetName is the worksheet written by XLSX.
const SheetName = "Data"

// ParseFormat accepts csv, json and xlsx in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use csv, json or xlsx)", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// CSV writes records with a header row taken from the first record's keys.
// Fields containing commas, quotes or line breaks are quoted; Null is empty.
// An empty sequence writes nothing.
func CSV(w io.Writer, records []dataset.Record) error {
	if len(records) == 0 {
		return nil
	}
	keys := records[0].Keys()
	cw := csv.NewWriter(w)
	if err := cw.Write(keys); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(keys))
	for i, r := range records {
		for j, k := range keys {
			v, _ := r.Field(k)
			row[j] = v.String()
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSON writes records as a 2-space indented array. Keys keep record order.
func JSON(w io.Writer, records []dataset.Record) error {
	if records == nil {
		records = []dataset.Record{}
	}
	b, err := utils.PrettyJSON(records)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// XLSX writes records to a single-sheet workbook. Numbers are stored as
// numeric cells.
func XLSX(w io.Writer, records []dataset.Record) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	if len(records) > 0 {
		sw, err := f.NewStreamWriter(SheetName)
		if err != nil {
			return fmt.Errorf("xlsx stream: %w", err)
		}
		keys := records[0].Keys()
		header := make([]any, len(keys))
		for i, k := range keys {
			header[i] = k
		}
		if err := sw.SetRow("A1", header); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
		for i, r := range records {
			row := make([]any, len(keys))
			for j, k := range keys {
				v, _ := r.Field(k)
				if x, ok := v.Float(); ok {
					row[j] = x
				} else if !v.IsNull() {
					row[j] = v.String()
				}
			}
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			if err := sw.SetRow(cell, row); err != nil {
				return fmt.Errorf("xlsx row %d: %w", i+1, err)
			}
		}
		if err := sw.Flush(); err != nil {
			return fmt.Errorf("xlsx flush: %w", err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Write encodes records in format.
func Write(w io.Writer, records []dataset.Record, format Format) error {
	switch format {
	case FormatJSON:
		return JSON(w, records)
	case FormatXLSX:
		return XLSX(w, records)
	case FormatCSV, "":
		return CSV(w, records)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// String renders records as text. XLSX is rejected.
func String(records []dataset.Record, format Format) (string, error) {
	if format == FormatXLSX {
		return "", fmt.Errorf("xlsx is a binary format")
	}
	var buf bytes.Buffer
	if err := Write(&buf, records, format); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// FormatForPath infers a format from a file name, ignoring a trailing
// .gz or .zst compression suffix.
func FormatForPath(path string) Format {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".gz"), ".zst")
	switch filepath.Ext(base) {
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	}
	return FormatCSV
}

// WriteFile encodes records to path atomically. A .gz or .zst suffix
// compresses the output.
func WriteFile(path string, records []dataset.Record, format Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, records, format); err != nil {
		return err
	}
	data, err := compress(path, buf.Bytes())
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, data)
}

func compress(path string, data []byte) ([]byte, error) {
	lower := strings.ToLower(path)
	var out bytes.Buffer
	switch {
	case strings.HasSuffix(lower, ".gz"):
		zw := gzip.NewWriter(&out)
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
	case strings.HasSuffix(lower, ".zst"):
		zw, err := zstd.NewWriter(&out)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
	default:
		return data, nil
	}
	return out.Bytes(), nil
}

package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads one worksheet of a workbook and serves it as CSV.
// Sheet selects by name; empty means the first sheet.
type XLSXSource struct {
	Path  string
	Sheet string
}

func (s XLSXSource) Name() string {
	if s.Sheet != "" {
		return s.Path + "#" + s.Sheet
	}
	return s.Path
}

func (s XLSXSource) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return sheetCSV(f, s.Sheet)
}

func sheetCSV(f *excelize.File, sheet string) (io.ReadCloser, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	target := sheets[0]
	if sheet != "" {
		target = ""
		for _, name := range sheets {
			if strings.EqualFold(name, sheet) {
				target = name
				break
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet %q not found; available sheets: %s", sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.Rows(target)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	defer rows.Close()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	width := -1
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", target, err)
		}
		// trailing empty cells are dropped by the reader
		if width < 0 {
			width = len(cols)
		}
		for len(cols) < width {
			cols = append(cols, "")
		}
		if err := w.Write(cols); err != nil {
			return nil, err
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", target, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return io.NopCloser(&buf), nil
}

package extractors

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

// ErrUnsupportedFormat is returned for file extensions without a decoder
var ErrUnsupportedFormat = errors.New("unsupported file format")

// DecodeError reports a file that could not be decoded. It never aborts the
// processing of other files.
type DecodeError struct {
	File     string
	Category models.Category
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("decoding %s: %v", e.File, e.Err)
	}
	return fmt.Sprintf("decoding %s file %s: %v", e.Category, e.File, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// SupportedExtension reports whether a file name has a decoder
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm", ".json":
		return true
	}
	return false
}

// Decode reads the rows of an export, choosing the decoder by file extension
func Decode(name string, r io.Reader) ([]models.RawRow, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return DecodeCSV(r)
	case ".xlsx", ".xlsm":
		return DecodeXLSX(r)
	case ".json":
		return DecodeJSON(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(name))
}

// DecodeCSV reads a comma separated export whose first record is the header.
// Cell values are kept as text.
func DecodeCSV(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return buildRows(records, func(_, _ int, raw string) any { return raw }), nil
}

// DecodeXLSX reads the first sheet of a workbook whose first row is the header.
// Numeric and date cells keep their raw numeric value so that date serials
// survive; text cells are kept as written.
func DecodeXLSX(r io.Reader) ([]models.RawRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	return buildRows(records, func(row, col int, raw string) any {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return raw
		}
		cellType, err := f.GetCellType(sheet, cell)
		if err != nil {
			return raw
		}
		return xlsxValue(cellType, raw)
	}), nil
}

func xlsxValue(cellType excelize.CellType, raw string) any {
	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeDate, excelize.CellTypeError:
		return raw
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return f
	}
	return raw
}

// DecodeJSON reads an array of objects. Numbers are decoded as float64 and
// the key order of every object is kept.
func DecodeJSON(r io.Reader) ([]models.RawRow, error) {
	var rows []models.RawRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}
	out := rows[:0]
	for _, row := range rows {
		if row.Len() > 0 {
			out = append(out, row)
		}
	}
	return out, nil
}

type cellConverter func(row, col int, raw string) any

// buildRows maps records[1:] onto the header of records[0]. Blank header cells
// are skipped, duplicated headers get a numeric suffix, empty cells become
// absent keys and rows without any value are dropped.
func buildRows(records [][]string, convert cellConverter) []models.RawRow {
	if len(records) == 0 {
		return nil
	}
	headers := headerNames(records[0])

	rows := make([]models.RawRow, 0, len(records)-1)
	for i, record := range records[1:] {
		row := models.NewRawRow()
		for col, raw := range record {
			if col >= len(headers) || headers[col] == "" || raw == "" {
				continue
			}
			row.Set(headers[col], convert(i+1, col, raw))
		}
		if row.Len() > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}

func headerNames(record []string) []string {
	headers := make([]string, len(record))
	seen := make(map[string]int, len(record))
	for i, h := range record {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == "" {
			continue
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n)
		} else {
			seen[h] = 1
		}
		headers[i] = h
	}
	return headers
}

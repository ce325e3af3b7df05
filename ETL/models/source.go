package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Category identifies one of the three spreadsheet exports
type Category string

const (
	CategoryTickets     Category = "tickets"
	CategoryServices    Category = "servicios"
	CategoryValidations Category = "validaciones"
)

// Categories lists the dataset categories in processing order
var Categories = []Category{CategoryTickets, CategoryServices, CategoryValidations}

// ParseCategory returns the category for its name
func ParseCategory(name string) (Category, error) {
	for _, c := range Categories {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown dataset category %q", name)
}

// FilePrefix is the prefix every export file name of the category must carry
func (c Category) FilePrefix() string {
	return strings.TrimSuffix(string(c), "s")
}

// RawRow is one decoded spreadsheet row. Columns keeps the physical headers
// in export order so that lookups are deterministic.
type RawRow struct {
	Columns []string
	Values  map[string]any
}

// NewRawRow creates an empty row
func NewRawRow() RawRow {
	return RawRow{Values: make(map[string]any)}
}

// RowOf builds a row from alternating column/value pairs
func RowOf(pairs ...any) RawRow {
	row := NewRawRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		row.Set(fmt.Sprint(pairs[i]), pairs[i+1])
	}
	return row
}

// Set assigns a value, appending the column if it is new
func (r *RawRow) Set(column string, value any) {
	if r.Values == nil {
		r.Values = make(map[string]any)
	}
	if _, exists := r.Values[column]; !exists {
		r.Columns = append(r.Columns, column)
	}
	r.Values[column] = value
}

// Get returns the value stored under the exact physical column
func (r RawRow) Get(column string) (any, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Delete removes a column
func (r *RawRow) Delete(column string) {
	if _, exists := r.Values[column]; !exists {
		return
	}
	delete(r.Values, column)
	for i, c := range r.Columns {
		if c == column {
			r.Columns = append(r.Columns[:i:i], r.Columns[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy of the column list and value map
func (r RawRow) Clone() RawRow {
	out := RawRow{
		Columns: append([]string(nil), r.Columns...),
		Values:  make(map[string]any, len(r.Values)),
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}

// Len returns the number of columns
func (r RawRow) Len() int {
	return len(r.Columns)
}

// MarshalJSON writes the row as an object in column order
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[col])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping the key order of the document
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("row must be a JSON object")
	}

	*r = NewRawRow()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("column %q: %w", key, err)
		}
		r.Set(key, fromJSONValue(raw))
	}
	_, err = dec.Token()
	return err
}

func fromJSONValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// StringValue renders a raw scalar the way a spreadsheet export would print it
func StringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

// Datasets holds the rows of all three categories for one pipeline invocation
type Datasets struct {
	Tickets     []RawRow
	Services    []RawRow
	Validations []RawRow
}

// Rows returns the rows of a category
func (d Datasets) Rows(c Category) []RawRow {
	switch c {
	case CategoryTickets:
		return d.Tickets
	case CategoryServices:
		return d.Services
	case CategoryValidations:
		return d.Validations
	}
	return nil
}

// Empty reports whether no category carries any row
func (d Datasets) Empty() bool {
	return len(d.Tickets) == 0 && len(d.Services) == 0 && len(d.Validations) == 0
}

// FileData is one decoded export file
type FileData struct {
	Name     string    `json:"name"`
	Category Category  `json:"category"`
	Rows     []RawRow  `json:"-"`
	LoadedAt time.Time `json:"loadedAt"`
}

// ExtractedData contains the outcome of the Extract phase
type ExtractedData struct {
	Datasets  Datasets
	Files     []FileData
	Errors    []error
	LastRunTS time.Time
}

package schema

import (
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"golang.org/x/text/cases"
)

// Resolver maps logical column names to the physical headers of a row
type Resolver struct {
	aliases map[string][]string
}

// NewResolver creates a resolver over the alias table of the contract
func NewResolver(contract Contract) *Resolver {
	aliases := make(map[string][]string, len(contract.Aliases))
	for logical, list := range contract.Aliases {
		key := NormalizeHeader(logical)
		for _, alias := range list {
			aliases[key] = append(aliases[key], NormalizeHeader(alias))
		}
	}
	return &Resolver{aliases: aliases}
}

// NormalizeHeader trims and case-folds a header. A new Caser is built per call:
// casers are stateful and the resolver is shared across goroutines.
func NormalizeHeader(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Resolve returns the physical header of row matching the logical name, then
// its aliases. The first column in export order wins.
func (r *Resolver) Resolve(row models.RawRow, logical string) (string, bool) {
	normalized := make([]string, len(row.Columns))
	for i, col := range row.Columns {
		normalized[i] = NormalizeHeader(col)
	}

	target := NormalizeHeader(logical)
	if col, ok := firstMatch(row.Columns, normalized, target); ok {
		return col, true
	}
	for _, alias := range r.aliases[target] {
		if col, ok := firstMatch(row.Columns, normalized, alias); ok {
			return col, true
		}
	}
	return "", false
}

func firstMatch(columns, normalized []string, target string) (string, bool) {
	for i, n := range normalized {
		if n == target {
			return columns[i], true
		}
	}
	return "", false
}

// FindHeader returns the first physical header equal to header after
// normalization. Aliases are not consulted.
func FindHeader(row models.RawRow, header string) (string, bool) {
	target := NormalizeHeader(header)
	for _, col := range row.Columns {
		if NormalizeHeader(col) == target {
			return col, true
		}
	}
	return "", false
}

// Value resolves the logical column and returns its value
func (r *Resolver) Value(row models.RawRow, logical string) (any, bool) {
	col, ok := r.Resolve(row, logical)
	if !ok {
		return nil, false
	}
	return row.Get(col)
}

// String resolves the logical column and returns its printed value
func (r *Resolver) String(row models.RawRow, logical string) (string, bool) {
	v, ok := r.Value(row, logical)
	if !ok {
		return "", false
	}
	return models.StringValue(v), true
}

package aggregate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

const (
	// AllPeriods disables the year or month filter
	AllPeriods = "all"
	// AllUserTypes disables the user type filter
	AllUserTypes = "Todos"
)

// Filter selects a subset of the combined records. The zero value matches everything.
type Filter struct {
	Year     int
	Month    int
	UserType models.UserType
}

// View is a filtered subset with its KPIs recomputed
type View struct {
	Records []models.CombinedRecord `json:"combinedData"`
	KPIs    *models.KPISummary      `json:"kpis"`
}

// NewFilter parses the dashboard filter values. Empty values mean "all".
func NewFilter(year, month, userType string) (Filter, error) {
	var f Filter

	year = strings.TrimSpace(year)
	if year != "" && !strings.EqualFold(year, AllPeriods) {
		y, err := strconv.Atoi(year)
		if err != nil || y < 1 || y > 9999 {
			return Filter{}, fmt.Errorf("invalid year filter %q", year)
		}
		f.Year = y
	}

	month = strings.TrimSpace(month)
	if month != "" && !strings.EqualFold(month, AllPeriods) {
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return Filter{}, fmt.Errorf("invalid month filter %q", month)
		}
		f.Month = m
	}

	switch userType = strings.TrimSpace(userType); {
	case userType == "" || strings.EqualFold(userType, AllUserTypes):
	case strings.EqualFold(userType, string(models.UserTypeStudent)):
		f.UserType = models.UserTypeStudent
	case strings.EqualFold(userType, string(models.UserTypeStaff)):
		f.UserType = models.UserTypeStaff
	default:
		return Filter{}, fmt.Errorf("invalid user type filter %q", userType)
	}

	return f, nil
}

// Matches reports whether the record passes every active predicate
func (f Filter) Matches(r models.CombinedRecord) bool {
	if f.Year != 0 && r.Year() != f.Year {
		return false
	}
	if f.Month != 0 && r.Month() != f.Month {
		return false
	}
	if f.UserType != "" && r.UserType != f.UserType {
		return false
	}
	return true
}

// Select returns the matching records in input order
func (f Filter) Select(records []models.CombinedRecord) []models.CombinedRecord {
	out := make([]models.CombinedRecord, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Apply filters the records and recomputes the KPIs over the subset
func (f Filter) Apply(records []models.CombinedRecord) View {
	subset := f.Select(records)
	return View{Records: subset, KPIs: ComputeKPIs(subset)}
}

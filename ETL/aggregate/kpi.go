// Package aggregate derives KPIs, filter views and chart series from combined
// records. Every function is a pure projection of its input.
package aggregate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

// Pass-type keywords, matched as substrings of the lower-cased pass type
const (
	PassSemestral          = "semestral"
	PassSemanal            = "semanal"
	PassRedondo            = "redondo"
	PassVerano             = "verano"
	PassMensualColaborador = "mensual colaborador"
	PassEspecial           = "especial"
	PassInvitado           = "invitado"
)

// Summary is the initial projection of a reconciliation run
type Summary struct {
	KPIs   *models.KPISummary
	Years  []string
	Months []string
}

// Summarize computes the KPIs and the available periods of the records
func Summarize(records []models.CombinedRecord) Summary {
	return Summary{
		KPIs:   ComputeKPIs(records),
		Years:  AvailableYears(records),
		Months: AvailableMonths(records),
	}
}

// ComputeKPIs counts the records by user type and pass type in one scan.
// TotalTickets is the number of records.
func ComputeKPIs(records []models.CombinedRecord) *models.KPISummary {
	kpis := &models.KPISummary{TotalTickets: len(records)}
	for _, r := range records {
		switch r.UserType {
		case models.UserTypeStudent:
			kpis.TotalEstudiantes++
		case models.UserTypeStaff:
			kpis.TotalColaboradores++
		}

		pass := r.PassTypeLower()
		if pass == "" {
			continue
		}
		if strings.Contains(pass, PassSemestral) {
			kpis.PasesSemestrales++
		}
		if strings.Contains(pass, PassSemanal) {
			kpis.PasesSemanales++
		}
		if strings.Contains(pass, PassRedondo) {
			kpis.PasesRedondos++
		}
		if strings.Contains(pass, PassVerano) {
			kpis.PasesVerano++
		}
		if strings.Contains(pass, PassMensualColaborador) {
			kpis.PasesMensualColaborador++
		}
		if strings.Contains(pass, PassEspecial) {
			kpis.PasesEspeciales++
		}
		if strings.Contains(pass, PassInvitado) {
			kpis.PasesInvitado++
		}
	}
	return kpis
}

// AvailableYears returns the distinct record years, newest first
func AvailableYears(records []models.CombinedRecord) []string {
	years := distinct(records, models.CombinedRecord.Year)
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return itoaAll(years)
}

// AvailableMonths returns the distinct record months ("1".."12") in calendar order
func AvailableMonths(records []models.CombinedRecord) []string {
	months := distinct(records, models.CombinedRecord.Month)
	sort.Ints(months)
	return itoaAll(months)
}

func distinct(records []models.CombinedRecord, part func(models.CombinedRecord) int) []int {
	seen := make(map[int]struct{})
	out := []int{}
	for _, r := range records {
		v := part(r)
		if v == 0 {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func itoaAll(values []int) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return out
}

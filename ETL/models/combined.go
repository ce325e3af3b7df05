package models

import (
	"strconv"
	"strings"
)

// InvalidDate is the sentinel produced by the date normalizer for unparseable input
const InvalidDate = "Invalid Date"

// UserType is the closed enumeration of rider roles
type UserType string

const (
	UserTypeStudent UserType = "Estudiante"
	UserTypeStaff   UserType = "Colaborador"
	UserTypeUnknown UserType = "Desconocido"
)

// Validation is the outcome of a ride validation
type Validation string

const (
	ValidationConfirmed    Validation = "Sí"
	ValidationNotConfirmed Validation = "No"
)

// CombinedRecord is one reconciled validation event.
// Optional fields are nil when the validation matched no service or ticket.
type CombinedRecord struct {
	Date        string     `json:"Fecha"`
	User        string     `json:"Usuario"`
	UserType    UserType   `json:"Tipo_usuario"`
	Route       string     `json:"Descripcion ruta"`
	Validated   Validation `json:"Validado"`
	PassType    *string    `json:"Tipo de pase"`
	Tickets     *int       `json:"Tickets"`
	RunID       string     `json:"ID salida"`
	Occupancy   *float64   `json:"% Ocupacion"`
	UsedTickets *int       `json:"Tickets utilizados"`
}

// Year returns the calendar year of the record date, 0 if the date is malformed
func (r CombinedRecord) Year() int {
	return r.datePart(0, 4)
}

// Month returns the calendar month (1-12) of the record date
func (r CombinedRecord) Month() int {
	return r.datePart(5, 7)
}

// Day returns the day of month of the record date
func (r CombinedRecord) Day() int {
	return r.datePart(8, 10)
}

func (r CombinedRecord) datePart(from, to int) int {
	if len(r.Date) < to {
		return 0
	}
	n, err := strconv.Atoi(r.Date[from:to])
	if err != nil {
		return 0
	}
	return n
}

// PassTypeLower returns the case-folded pass type, empty when absent
func (r CombinedRecord) PassTypeLower() string {
	if r.PassType == nil {
		return ""
	}
	return strings.ToLower(*r.PassType)
}

// IsConfirmed reports whether the validation was confirmed
func (r CombinedRecord) IsConfirmed() bool {
	return r.Validated == ValidationConfirmed
}

// UsedTicketsOrZero returns the used ticket count of the matched service or 0
func (r CombinedRecord) UsedTicketsOrZero() int {
	if r.UsedTickets == nil {
		return 0
	}
	return *r.UsedTickets
}

// OccupancyOrZero returns the occupancy ratio of the matched service or 0
func (r CombinedRecord) OccupancyOrZero() float64 {
	if r.Occupancy == nil {
		return 0
	}
	return *r.Occupancy
}

// KPISummary holds the dashboard counters
type KPISummary struct {
	TotalTickets            int `json:"totalTickets"`
	TotalEstudiantes        int `json:"totalEstudiantes"`
	TotalColaboradores      int `json:"totalColaboradores"`
	PasesSemestrales        int `json:"pasesSemestrales"`
	PasesSemanales          int `json:"pasesSemanales"`
	PasesRedondos           int `json:"pasesRedondos"`
	PasesVerano             int `json:"pasesVerano"`
	PasesMensualColaborador int `json:"pasesMensualColaborador"`
	PasesEspeciales         int `json:"pasesEspeciales"`
	PasesInvitado           int `json:"pasesInvitado"`
}

// BackupSnapshot retains the raw rows of every category that has data
type BackupSnapshot struct {
	Tickets     []RawRow `json:"tickets,omitempty"`
	Services    []RawRow `json:"servicios,omitempty"`
	Validations []RawRow `json:"validaciones,omitempty"`
}

// NewBackupSnapshot captures the rows of the datasets verbatim
func NewBackupSnapshot(d Datasets) *BackupSnapshot {
	return &BackupSnapshot{
		Tickets:     nonEmpty(d.Tickets),
		Services:    nonEmpty(d.Services),
		Validations: nonEmpty(d.Validations),
	}
}

func nonEmpty(rows []RawRow) []RawRow {
	if len(rows) == 0 {
		return nil
	}
	return rows
}

// HasData reports whether any category was captured
func (b *BackupSnapshot) HasData() bool {
	return b != nil && (len(b.Tickets) > 0 || len(b.Services) > 0 || len(b.Validations) > 0)
}

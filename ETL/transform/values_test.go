package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

func TestNormalizeUserType(t *testing.T) {
	tests := []struct {
		input any
		want  models.UserType
	}{
		{"alumno", models.UserTypeStudent},
		{"  Estudiante de posgrado ", models.UserTypeStudent},
		{"STUDENT", models.UserTypeStudent},
		{"Colaborador", models.UserTypeStaff},
		{"staff member", models.UserTypeStaff},
		{"alumno colaborador", models.UserTypeStudent},
		{"visitante", models.UserTypeUnknown},
		{"", models.UserTypeUnknown},
		{nil, models.UserTypeUnknown},
		{42.0, models.UserTypeUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeUserType(tt.input), "input %v", tt.input)
	}
}

func TestParseLeadingInt(t *testing.T) {
	tests := []struct {
		input any
		want  int
	}{
		{5.0, 5},
		{5.7, 5},
		{"10", 10},
		{" 12 tickets", 12},
		{"-3", -3},
		{"abc", 0},
		{"", 0},
		{nil, 0},
		{7, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLeadingInt(tt.input), "input %v", tt.input)
	}
}

func TestParseOccupancy(t *testing.T) {
	tests := []struct {
		input any
		want  float64
	}{
		{"80%", 0.8},
		{"80 %", 0.8},
		{"80", 0.8},
		{80.0, 0.8},
		{"12.5%", 0.125},
		{"", 0},
		{"n/a", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseOccupancy(tt.input), 1e-9, "input %v", tt.input)
	}
}

func TestParseValidation(t *testing.T) {
	assert.Equal(t, models.ValidationConfirmed, parseValidation("Sí"))
	assert.Equal(t, models.ValidationConfirmed, parseValidation(" SÍ "))
	assert.Equal(t, models.ValidationNotConfirmed, parseValidation("Si"))
	assert.Equal(t, models.ValidationNotConfirmed, parseValidation("No"))
	assert.Equal(t, models.ValidationNotConfirmed, parseValidation(nil))
}

func TestPreprocessTickets(t *testing.T) {
	original := models.RowOf("Usuario", "a@x.com", "Unnamed: 6", "x", "Tickets", 10.0, " UNNAMED: 11 ", "Semestral")
	rows := PreprocessTickets([]models.RawRow{original})

	assert.Len(t, rows, 1)
	assert.Equal(t, []string{"Usuario", "Tickets", "Tipo de pase"}, rows[0].Columns)
	pass, ok := rows[0].Get("Tipo de pase")
	assert.True(t, ok)
	assert.Equal(t, "Semestral", pass)

	assert.Equal(t, 4, original.Len(), "input row must not be modified")
	assert.Nil(t, PreprocessTickets(nil))
}

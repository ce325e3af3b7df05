package schema

import (
	"errors"
	"testing"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *Validator {
	return NewValidator(DefaultContract, NewResolver(DefaultContract))
}

func TestValidateRowReportsAllMissingColumns(t *testing.T) {
	v := newTestValidator()
	row := models.RowOf("ID salida", "S1", "Usuario", "a@x.com")

	err := v.ValidateRow(row, models.CategoryValidations)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSchemaMismatch))

	var mismatch *models.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, models.CategoryValidations, mismatch.Category)
	assert.Equal(t, []string{ColDate, ColUserType, ColValidated}, mismatch.MissingColumns)
	assert.Equal(t,
		"schema mismatch in validaciones file: missing columns: Fecha, Tipo_usuario, Validado",
		err.Error())
}

func TestValidateRowAcceptsAliases(t *testing.T) {
	v := newTestValidator()
	row := models.RowOf(
		"id servicio", "S1",
		"Fecha", "01/03/2024",
		"descripcion ruta", "R1",
		"Tickets utilizados", 5,
		"Ocupacion", "80%",
	)
	assert.NoError(t, v.ValidateRow(row, models.CategoryServices))
}

func TestValidateDatasetSamplesFirstRowOnly(t *testing.T) {
	v := newTestValidator()
	rows := []models.RawRow{
		models.RowOf("Usuario", "a@x.com", "Tickets", 1, "Tipo de pase", "Semanal"),
		models.RowOf("Usuario", "b@x.com"),
	}
	assert.NoError(t, v.ValidateDataset(rows, models.CategoryTickets))
	assert.NoError(t, v.ValidateDataset(nil, models.CategoryTickets))
}

func TestValidateAllStopsAtFirstFailingCategory(t *testing.T) {
	v := newTestValidator()
	datasets := models.Datasets{
		Tickets:     []models.RawRow{models.RowOf("Usuario", "a@x.com")},
		Validations: []models.RawRow{models.RowOf("Usuario", "a@x.com")},
	}

	err := v.ValidateAll(datasets)
	var mismatch *models.SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, models.CategoryTickets, mismatch.Category)
	assert.Equal(t, []string{ColTickets, ColPassType}, mismatch.MissingColumns)
}

package extractors

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

func TestDecodeCSV(t *testing.T) {
	input := "\ufeffID salida,Fecha,,Descripción de ruta,Fecha\n" +
		"S1,01/03/2024,ignored,\"Ruta, Norte\",x\n" +
		",,,,\n" +
		"S2,02/03/2024\n"

	rows, err := DecodeCSV(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID salida", "Fecha", "Descripción de ruta", "Fecha_1"}, rows[0].Columns)
	route, _ := rows[0].Get("Descripción de ruta")
	assert.Equal(t, "Ruta, Norte", route)
	assert.Equal(t, []string{"ID salida", "Fecha"}, rows[1].Columns)
}

func TestDecodeCSVEmpty(t *testing.T) {
	rows, err := DecodeCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDecodeJSONKeepsOrderAndNumbers(t *testing.T) {
	rows, err := DecodeJSON(strings.NewReader(`[{"Usuario":"a@x.com","Tickets":10,"Unnamed: 11":"Semestral"},{}]`))

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Usuario", "Tickets", "Unnamed: 11"}, rows[0].Columns)
	tickets, _ := rows[0].Get("Tickets")
	assert.Equal(t, 10.0, tickets)
}

func TestDecodeJSONRejectsNonArray(t *testing.T) {
	_, err := DecodeJSON(strings.NewReader(`{"Usuario":"a"}`))
	assert.Error(t, err)
}

func TestDecodeXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"ID salida", "Fecha", "Tickets utilizados", "% Ocupación"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"007", 45352, 5, "80%"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	rows, err := DecodeXLSX(&buf)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	runID, _ := rows[0].Get("ID salida")
	assert.Equal(t, "007", runID)
	date, _ := rows[0].Get("Fecha")
	assert.Equal(t, 45352.0, date)
	used, _ := rows[0].Get("Tickets utilizados")
	assert.Equal(t, 5.0, used)
	occupancy, _ := rows[0].Get("% Ocupación")
	assert.Equal(t, "80%", occupancy)
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode("tickets.txt", strings.NewReader("x"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.False(t, SupportedExtension("tickets.txt"))
	assert.True(t, SupportedExtension("Tickets.XLSX"))
}

func TestDecodeErrorUnwraps(t *testing.T) {
	err := &DecodeError{File: "ticket.csv", Category: models.CategoryTickets, Err: ErrUnsupportedFormat}
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "decoding tickets file ticket.csv: unsupported file format", err.Error())
}

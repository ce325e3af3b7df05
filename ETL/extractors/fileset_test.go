package extractors

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
)

func TestCategoryForFileName(t *testing.T) {
	tests := map[string]models.Category{
		"tickets_marzo.csv":      models.CategoryTickets,
		"Servicios 2024.xlsx":    models.CategoryServices,
		"VALIDACIONES-01.json":   models.CategoryValidations,
		"dir/validaciones_a.csv": models.CategoryValidations,
	}
	for name, want := range tests {
		got, ok := CategoryForFileName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := CategoryForFileName("reporte.csv")
	assert.False(t, ok)
}

func TestFileSetAddReplaceDelete(t *testing.T) {
	set := NewFileSet()

	replaced, err := set.Add(models.FileData{Name: "tickets_a.csv", Category: models.CategoryTickets, Rows: []models.RawRow{models.RowOf("Usuario", "a")}})
	require.NoError(t, err)
	assert.False(t, replaced)

	_, err = set.Add(models.FileData{Name: "tickets_b.csv", Category: models.CategoryTickets, Rows: []models.RawRow{models.RowOf("Usuario", "b")}})
	require.NoError(t, err)

	replaced, err = set.Add(models.FileData{Name: "tickets_a.csv", Category: models.CategoryTickets, Rows: []models.RawRow{models.RowOf("Usuario", "a2"), models.RowOf("Usuario", "a3")}})
	require.NoError(t, err)
	assert.True(t, replaced)

	ds := set.Datasets()
	require.Len(t, ds.Tickets, 3)
	first, _ := ds.Tickets[0].Get("Usuario")
	assert.Equal(t, "a2", first, "a replaced file keeps its registration slot")
	assert.Nil(t, ds.Services)

	assert.True(t, set.Delete(models.CategoryTickets, "tickets_a.csv"))
	assert.False(t, set.Delete(models.CategoryTickets, "tickets_a.csv"))
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, []string{"tickets_b.csv"}, set.Names(models.CategoryTickets))
}

func TestFileSetRejectsWrongPrefix(t *testing.T) {
	set := NewFileSet()

	_, err := set.Add(models.FileData{Name: "servicios.csv", Category: models.CategoryTickets})
	assert.ErrorIs(t, err, ErrFileNamePrefix)

	_, err = set.Load(models.CategoryValidations, "tickets.csv", strings.NewReader("a\n1\n"))
	assert.ErrorIs(t, err, ErrFileNamePrefix)
	assert.Zero(t, set.Len())
}

func TestFileSetLoadReportsDecodeError(t *testing.T) {
	set := NewFileSet()

	_, err := set.Load(models.CategoryServices, "servicios.json", strings.NewReader("not json"))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, models.CategoryServices, decodeErr.Category)
	assert.Zero(t, set.Len())
}

func TestFileSetList(t *testing.T) {
	set := NewFileSet()
	_, err := set.Load(models.CategoryValidations, "validaciones.csv", strings.NewReader("ID salida,Fecha\nS1,01/03/2024\n"))
	require.NoError(t, err)
	_, err = set.Load(models.CategoryTickets, "tickets.csv", strings.NewReader("Usuario\na\nb\n"))
	require.NoError(t, err)

	list := set.List()
	require.Len(t, list, 2)
	assert.Equal(t, models.CategoryTickets, list[0].Category)
	assert.Equal(t, 2, list[0].Rows)
	assert.Equal(t, "validaciones.csv", list[1].Name)
	assert.False(t, list[1].LoadedAt.IsZero())
}

func TestExtractorReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("tickets.csv", "Usuario,Tickets,Unnamed: 11\na@x.com,10,Semestral\n")
	write("servicios.json", `[{"ID salida":"S1","Fecha":"01/03/2024"}]`)
	write("validaciones.json", "broken")
	write("notas.csv", "x\n1\n")
	write("readme.txt", "hello")

	data, err := NewExtractor(dir, nil).Extract(context.Background())

	require.NoError(t, err)
	assert.Len(t, data.Files, 2)
	assert.Len(t, data.Datasets.Tickets, 1)
	assert.Len(t, data.Datasets.Services, 1)
	assert.Empty(t, data.Datasets.Validations)
	require.Len(t, data.Errors, 1)

	var decodeErr *DecodeError
	require.ErrorAs(t, data.Errors[0], &decodeErr)
	assert.Equal(t, "validaciones.json", decodeErr.File)
}

func TestExtractorMissingDirectory(t *testing.T) {
	_, err := NewExtractor(filepath.Join(t.TempDir(), "missing"), nil).Extract(context.Background())
	assert.Error(t, err)
}

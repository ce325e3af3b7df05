package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRowKeepsColumnOrder(t *testing.T) {
	row := RowOf("b", 1.0, "a", "x")
	row.Set("c", nil)
	row.Set("b", 2.0)

	assert.Equal(t, []string{"b", "a", "c"}, row.Columns)

	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":2,"a":"x","c":null}`, string(data))
	assert.Equal(t, `{"b":2,"a":"x","c":null}`, string(data))

	var back RawRow
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, row.Columns, back.Columns)
	v, _ := back.Get("b")
	assert.Equal(t, 2.0, v)
}

func TestRawRowDeleteAndClone(t *testing.T) {
	row := RowOf("a", 1, "b", 2, "c", 3)
	clone := row.Clone()

	clone.Delete("b")
	clone.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, clone.Columns)
	assert.Equal(t, []string{"a", "b", "c"}, row.Columns)
	_, ok := clone.Get("b")
	assert.False(t, ok)
}

func TestRawRowUnmarshalRejectsArrays(t *testing.T) {
	var row RawRow
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &row))
}

func TestStringValue(t *testing.T) {
	assert.Equal(t, "", StringValue(nil))
	assert.Equal(t, "10", StringValue(10.0))
	assert.Equal(t, "0.8", StringValue(0.8))
	assert.Equal(t, "", StringValue(math.NaN()))
	assert.Equal(t, "7", StringValue(7))
	assert.Equal(t, "true", StringValue(true))
	assert.Equal(t, "2024-03-01T00:00:00Z", StringValue(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Servicios ")
	require.NoError(t, err)
	assert.Equal(t, CategoryServices, c)
	assert.Equal(t, "validacione", CategoryValidations.FilePrefix())
	assert.Equal(t, "ticket", CategoryTickets.FilePrefix())

	_, err = ParseCategory("otros")
	assert.Error(t, err)
}

func TestCombinedRecordDateParts(t *testing.T) {
	rec := CombinedRecord{Date: "2024-03-09"}
	assert.Equal(t, 2024, rec.Year())
	assert.Equal(t, 3, rec.Month())
	assert.Equal(t, 9, rec.Day())

	bad := CombinedRecord{Date: InvalidDate}
	assert.Zero(t, bad.Year())
	assert.Zero(t, bad.Day())
}

func TestCombinedRecordJSONShowsNullFields(t *testing.T) {
	data, err := json.Marshal(CombinedRecord{Date: "2024-03-01", UserType: UserTypeStudent, Validated: ValidationConfirmed, Route: "N/A"})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Contains(t, fields, "% Ocupacion")
	assert.Nil(t, fields["% Ocupacion"])
	assert.Nil(t, fields["Tipo de pase"])
	assert.Equal(t, "Estudiante", fields["Tipo_usuario"])
	assert.Equal(t, "Sí", fields["Validado"])
}

func TestBackupSnapshotKeepsOnlyCategoriesWithData(t *testing.T) {
	b := NewBackupSnapshot(Datasets{Tickets: []RawRow{RowOf("Usuario", "a")}})
	assert.True(t, b.HasData())
	assert.Nil(t, b.Services)

	data, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"tickets":[{"Usuario":"a"}]}`, string(data))

	var empty *BackupSnapshot
	assert.False(t, empty.HasData())
}

func TestErrorKindsAreDistinct(t *testing.T) {
	mismatch := fmt.Errorf("processing: %w", &SchemaMismatchError{Category: CategoryTickets, MissingColumns: []string{"Usuario", "Tickets"}})
	failure := &ReconciliationFailureError{Reason: "no matches"}

	assert.True(t, IsSchemaMismatch(mismatch))
	assert.False(t, IsReconciliationFailure(mismatch))
	assert.True(t, IsReconciliationFailure(failure))
	assert.False(t, IsSchemaMismatch(failure))
	assert.False(t, errors.Is(ErrNoInput, ErrSchemaMismatch))

	assert.Equal(t, "reconciliation failure: no matches", failure.Error())
	assert.Contains(t, mismatch.Error(), "missing columns: Usuario, Tickets")
}

package schema

import (
	"testing"

	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolve(t *testing.T) {
	resolver := NewResolver(DefaultContract)

	tests := []struct {
		name    string
		row     models.RawRow
		logical string
		want    string
		found   bool
	}{
		{
			name:    "whitespace and case insensitive",
			row:     models.RowOf(" Fecha de Compra ", "01/03/2024"),
			logical: ColPurchaseDate,
			want:    " Fecha de Compra ",
			found:   true,
		},
		{
			name:    "alias",
			row:     models.RowOf("fecha", "01/03/2024"),
			logical: ColPurchaseDate,
			want:    "fecha",
			found:   true,
		},
		{
			name:    "alias is case insensitive",
			row:     models.RowOf("Email de Usuario", "a@x.com"),
			logical: ColUser,
			want:    "Email de Usuario",
			found:   true,
		},
		{
			name:    "accented logical name",
			row:     models.RowOf("DESCRIPCIÓN DE RUTA", "R1"),
			logical: ColRoute,
			want:    "DESCRIPCIÓN DE RUTA",
			found:   true,
		},
		{
			name:    "primary name preferred over alias",
			row:     models.RowOf("email", "b@x.com", "Usuario", "a@x.com"),
			logical: ColUser,
			want:    "Usuario",
			found:   true,
		},
		{
			name:    "first column wins on duplicates",
			row:     models.RowOf("usuario", "first", " USUARIO", "second"),
			logical: ColUser,
			want:    "usuario",
			found:   true,
		},
		{
			name:    "no fuzzy matching",
			row:     models.RowOf("Usuarios", "a@x.com"),
			logical: ColUser,
			found:   false,
		},
		{
			name:    "missing column",
			row:     models.RowOf("Otro", 1),
			logical: ColTickets,
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := resolver.Resolve(tt.row, tt.logical)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolverString(t *testing.T) {
	resolver := NewResolver(DefaultContract)
	row := models.RowOf("Tickets", 10.0, "ID de salida", " S1 ")

	v, ok := resolver.String(row, ColTickets)
	require.True(t, ok)
	assert.Equal(t, "10", v)

	v, ok = resolver.String(row, ColRunID)
	require.True(t, ok)
	assert.Equal(t, " S1 ", v)

	_, ok = resolver.String(row, ColUser)
	assert.False(t, ok)
}

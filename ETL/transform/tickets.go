package transform

import (
	"github.com/LilVoxy/mayabus_analytics/ETL/models"
	"github.com/LilVoxy/mayabus_analytics/ETL/schema"
)

// PreprocessTickets renames the legacy pass-type placeholder to "Tipo de pase"
// and drops the ignored placeholder. The input rows are not modified.
func PreprocessTickets(rows []models.RawRow) []models.RawRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]models.RawRow, len(rows))
	for i, row := range rows {
		out[i] = preprocessTicketRow(row)
	}
	return out
}

func preprocessTicketRow(row models.RawRow) models.RawRow {
	fixed := row.Clone()
	if col, ok := schema.FindHeader(fixed, schema.LegacyPassTypeHeader); ok {
		value, _ := fixed.Get(col)
		fixed.Delete(col)
		fixed.Set(schema.ColPassType, value)
	}
	if col, ok := schema.FindHeader(fixed, schema.LegacyIgnoredHeader); ok {
		fixed.Delete(col)
	}
	return fixed
}

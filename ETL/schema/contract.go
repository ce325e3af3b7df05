// Package schema holds the logical column contract of the three exports and the
// resolution of logical names to physical headers.
package schema

import "github.com/LilVoxy/mayabus_analytics/ETL/models"

// Logical column names
const (
	ColPurchaseDate = "Fecha de compra"
	ColUser         = "Usuario"
	ColTickets      = "Tickets"
	ColPassType     = "Tipo de pase"
	ColRunID        = "ID salida"
	ColDate         = "Fecha"
	ColRoute        = "Descripción de ruta"
	ColUsedTickets  = "Tickets utilizados"
	ColOccupancy    = "% Ocupación"
	ColUserType     = "Tipo_usuario"
	ColValidated    = "Validado"
)

// Legacy placeholder headers of the tickets export
const (
	LegacyPassTypeHeader = "unnamed: 11"
	LegacyIgnoredHeader  = "unnamed: 6"
)

// Contract maps each category to its required logical columns and holds the
// alternate spellings accepted for a logical name.
type Contract struct {
	Required map[models.Category][]string
	Aliases  map[string][]string
}

// DefaultContract is the contract of the shuttle exports. The purchase date
// keeps its aliases but is not required: ticket exports without it still join.
var DefaultContract = Contract{
	Required: map[models.Category][]string{
		models.CategoryTickets:     {ColUser, ColTickets, ColPassType},
		models.CategoryServices:    {ColRunID, ColDate, ColRoute, ColUsedTickets, ColOccupancy},
		models.CategoryValidations: {ColRunID, ColDate, ColUser, ColUserType, ColValidated},
	},
	Aliases: map[string][]string{
		ColPurchaseDate: {"fecha de operacion", "fecha"},
		ColUser:         {"email", "email de usuario"},
		ColRunID:        {"id de salida", "id servicio"},
		ColRoute:        {"descripcion ruta"},
		ColOccupancy:    {"ocupacion"},
	},
}

// RequiredColumns returns the required logical columns of a category
func (c Contract) RequiredColumns(category models.Category) []string {
	return c.Required[category]
}

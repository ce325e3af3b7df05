package schema

import "github.com/LilVoxy/mayabus_analytics/ETL/models"

// Validator checks datasets against the contract
type Validator struct {
	contract Contract
	resolver *Resolver
}

// NewValidator creates a validator for the contract
func NewValidator(contract Contract, resolver *Resolver) *Validator {
	return &Validator{contract: contract, resolver: resolver}
}

// MissingColumns returns every required logical column the row cannot resolve
func (v *Validator) MissingColumns(row models.RawRow, category models.Category) []string {
	var missing []string
	for _, col := range v.contract.RequiredColumns(category) {
		if _, ok := v.resolver.Resolve(row, col); !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// ValidateRow fails with a SchemaMismatchError listing all unresolved columns
func (v *Validator) ValidateRow(row models.RawRow, category models.Category) error {
	missing := v.MissingColumns(row, category)
	if len(missing) == 0 {
		return nil
	}
	return &models.SchemaMismatchError{Category: category, MissingColumns: missing}
}

// ValidateDataset samples the first row of the dataset. Empty datasets pass.
func (v *Validator) ValidateDataset(rows []models.RawRow, category models.Category) error {
	if len(rows) == 0 {
		return nil
	}
	return v.ValidateRow(rows[0], category)
}

// ValidateAll validates the categories in order and stops at the first mismatch
func (v *Validator) ValidateAll(datasets models.Datasets) error {
	for _, category := range models.Categories {
		if err := v.ValidateDataset(datasets.Rows(category), category); err != nil {
			return err
		}
	}
	return nil
}

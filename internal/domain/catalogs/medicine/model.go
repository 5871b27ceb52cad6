// Package medicine provides the Medicine catalog.
// Medicines are the items tracked by the inventory ledger.
package medicine

import (
	"context"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/entity"
	"pharmstock/internal/core/types"
)

// Form defines the dosage form of a medicine.
type Form string

const (
	FormTablet    Form = "tablet"
	FormCapsule   Form = "capsule"
	FormSyrup     Form = "syrup"
	FormInjection Form = "injection"
	FormOintment  Form = "ointment"
	FormDrops     Form = "drops"
)

// Medicine represents a dispensable pharmaceutical item.
// Code doubles as the SKU and is unique across the catalog.
type Medicine struct {
	entity.Catalog

	// GenericName is the INN (international nonproprietary name)
	GenericName *string `db:"generic_name" json:"genericName,omitempty"`

	// Form defines the dosage form
	Form Form `db:"form" json:"form"`

	// Strength is the dosage strength label (e.g., "500mg")
	Strength *string `db:"strength" json:"strength,omitempty"`

	// UnitCost is the default purchase cost per unit
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// UnitPrice is the selling price per unit
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`

	// RequiresPrescription marks prescription-only medicines
	RequiresPrescription bool `db:"requires_prescription" json:"requiresPrescription"`

	// MinStockLevel triggers low-stock reporting when remaining falls below it
	MinStockLevel types.Quantity `db:"min_stock_level" json:"minStockLevel"`

	// Manufacturer is the producing company name
	Manufacturer *string `db:"manufacturer" json:"manufacturer,omitempty"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewMedicine creates a new Medicine with required fields.
func NewMedicine(sku, name string, form Form) *Medicine {
	return &Medicine{
		Catalog:   entity.NewCatalog(sku, name),
		Form:      form,
		UnitCost:  types.ZeroMoney(),
		UnitPrice: types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable interface.
func (m *Medicine) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidForm(m.Form) {
		return apperror.NewValidation("invalid dosage form").
			WithDetail("field", "form").
			WithDetail("value", string(m.Form))
	}

	if m.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	if m.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	if m.MinStockLevel.IsNegative() {
		return apperror.NewValidation("min stock level cannot be negative").
			WithDetail("field", "minStockLevel")
	}

	return nil
}

// SKU returns the catalog code under its domain name.
func (m *Medicine) SKU() string {
	return m.Code
}

// --- Validation Helpers ---

func isValidForm(f Form) bool {
	switch f {
	case FormTablet, FormCapsule, FormSyrup, FormInjection, FormOintment, FormDrops:
		return true
	}
	return false
}

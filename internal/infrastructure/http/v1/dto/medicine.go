package dto

import (
	"pharmstock/internal/core/types"
	"pharmstock/internal/domain/catalogs/medicine"
)

// --- Request DTOs ---

// CreateMedicineRequest is the request body for creating a medicine.
// Code (the SKU) is optional; a sequential one is generated when empty.
type CreateMedicineRequest struct {
	Code                 string         `json:"code"`
	Name                 string         `json:"name" binding:"required"`
	GenericName          *string        `json:"genericName"`
	Form                 medicine.Form  `json:"form" binding:"required"`
	Strength             *string        `json:"strength"`
	UnitCost             types.Money    `json:"unitCost"`
	UnitPrice            types.Money    `json:"unitPrice"`
	RequiresPrescription bool           `json:"requiresPrescription"`
	MinStockLevel        types.Quantity `json:"minStockLevel"`
	Manufacturer         *string        `json:"manufacturer"`
	Description          *string        `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateMedicineRequest) ToEntity() *medicine.Medicine {
	m := medicine.NewMedicine(r.Code, r.Name, r.Form)
	m.GenericName = r.GenericName
	m.Strength = r.Strength
	m.UnitCost = r.UnitCost
	m.UnitPrice = r.UnitPrice
	m.RequiresPrescription = r.RequiresPrescription
	m.MinStockLevel = r.MinStockLevel
	m.Manufacturer = r.Manufacturer
	m.Description = r.Description
	return m
}

// UpdateMedicineRequest is the request body for updating a medicine.
type UpdateMedicineRequest struct {
	Code                 string         `json:"code"`
	Name                 string         `json:"name" binding:"required"`
	GenericName          *string        `json:"genericName,omitempty"`
	Form                 medicine.Form  `json:"form" binding:"required"`
	Strength             *string        `json:"strength,omitempty"`
	UnitCost             types.Money    `json:"unitCost"`
	UnitPrice            types.Money    `json:"unitPrice"`
	RequiresPrescription bool           `json:"requiresPrescription"`
	MinStockLevel        types.Quantity `json:"minStockLevel"`
	Manufacturer         *string        `json:"manufacturer,omitempty"`
	Description          *string        `json:"description,omitempty"`
	Version              int            `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateMedicineRequest) ApplyTo(m *medicine.Medicine) {
	m.Code = r.Code
	m.Name = r.Name
	m.GenericName = r.GenericName
	m.Form = r.Form
	m.Strength = r.Strength
	m.UnitCost = r.UnitCost
	m.UnitPrice = r.UnitPrice
	m.RequiresPrescription = r.RequiresPrescription
	m.MinStockLevel = r.MinStockLevel
	m.Manufacturer = r.Manufacturer
	m.Description = r.Description
	m.Version = r.Version
}

// --- Response DTOs ---

// MedicineResponse is the response body for a medicine.
type MedicineResponse struct {
	ID                   string         `json:"id"`
	SKU                  string         `json:"sku"`
	Name                 string         `json:"name"`
	GenericName          *string        `json:"genericName,omitempty"`
	Form                 medicine.Form  `json:"form"`
	Strength             *string        `json:"strength,omitempty"`
	UnitCost             types.Money    `json:"unitCost"`
	UnitPrice            types.Money    `json:"unitPrice"`
	RequiresPrescription bool           `json:"requiresPrescription"`
	MinStockLevel        types.Quantity `json:"minStockLevel"`
	Manufacturer         *string        `json:"manufacturer,omitempty"`
	Description          *string        `json:"description,omitempty"`
	DeletionMark         bool           `json:"deletionMark"`
	Version              int            `json:"version"`
}

// FromMedicine creates response DTO from domain entity.
func FromMedicine(m *medicine.Medicine) *MedicineResponse {
	return &MedicineResponse{
		ID:                   m.ID.String(),
		SKU:                  m.Code,
		Name:                 m.Name,
		GenericName:          m.GenericName,
		Form:                 m.Form,
		Strength:             m.Strength,
		UnitCost:             m.UnitCost,
		UnitPrice:            m.UnitPrice,
		RequiresPrescription: m.RequiresPrescription,
		MinStockLevel:        m.MinStockLevel,
		Manufacturer:         m.Manufacturer,
		Description:          m.Description,
		DeletionMark:         m.DeletionMark,
		Version:              m.Version,
	}
}

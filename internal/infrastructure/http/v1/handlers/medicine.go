package handlers

import (
	"pharmstock/internal/domain/catalogs/medicine"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// MedicineHTTPHandler is the catalog handler instantiated for medicines.
type MedicineHTTPHandler = CatalogHandler[
	*medicine.Medicine,
	dto.CreateMedicineRequest,
	dto.UpdateMedicineRequest,
]

// NewMedicineHandler wires the generic catalog handler with medicine mappers.
func NewMedicineHandler(
	base *BaseHandler,
	service *medicine.Service,
) *MedicineHTTPHandler {

	config := CatalogHandlerConfig[
		*medicine.Medicine,
		dto.CreateMedicineRequest,
		dto.UpdateMedicineRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "medicine",

		MapCreateDTO: func(req dto.CreateMedicineRequest) *medicine.Medicine {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateMedicineRequest, existing *medicine.Medicine) *medicine.Medicine {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *medicine.Medicine) any {
			return dto.FromMedicine(entity)
		},
	}

	return NewCatalogHandler(base, config)
}

package node

import (
	"pharmstock/internal/domain"
)

// Repository defines the interface for Node persistence.
type Repository interface {
	domain.CatalogRepository[*Node]
}

// Package node provides the Node catalog.
// Nodes are the physical stock locations of the network: village posts,
// regional warehouses, and clinics.
package node

import (
	"context"

	"pharmstock/internal/core/apperror"
	"pharmstock/internal/core/entity"
)

// NodeType defines the type of stock location.
type NodeType string

const (
	TypeVillage   NodeType = "village"
	TypeWarehouse NodeType = "warehouse"
	TypeClinic    NodeType = "clinic"
)

// Node represents a stock location.
type Node struct {
	entity.Catalog

	// Type defines the node category
	Type NodeType `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Region groups nodes for distribution reporting
	Region *string `db:"region" json:"region,omitempty"`

	// IsActive indicates if node is operational
	IsActive bool `db:"is_active" json:"isActive"`

	// Description
	Description *string `db:"description" json:"description,omitempty"`
}

// NewNode creates a new Node with required fields.
func NewNode(code, name string, nodeType NodeType) *Node {
	return &Node{
		Catalog:  entity.NewCatalog(code, name),
		Type:     nodeType,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (n *Node) Validate(ctx context.Context) error {
	if err := n.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidNodeType(n.Type) {
		return apperror.NewValidation("invalid node type").
			WithDetail("field", "type").
			WithDetail("value", string(n.Type))
	}

	return nil
}

// CanHoldStock returns true if the node can receive and dispense stock.
func (n *Node) CanHoldStock() bool {
	return n.IsActive && !n.DeletionMark
}

// --- Validation Helpers ---

func isValidNodeType(t NodeType) bool {
	switch t {
	case TypeVillage, TypeWarehouse, TypeClinic:
		return true
	}
	return false
}

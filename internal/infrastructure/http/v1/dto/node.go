package dto

import (
	"pharmstock/internal/domain/catalogs/node"
)

// --- Request DTOs ---

// CreateNodeRequest is the request body for creating a stock node.
type CreateNodeRequest struct {
	Code        string        `json:"code"`
	Name        string        `json:"name" binding:"required"`
	Type        node.NodeType `json:"type" binding:"required"`
	Address     *string       `json:"address"`
	Region      *string       `json:"region"`
	IsActive    *bool         `json:"isActive"`
	Description *string       `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateNodeRequest) ToEntity() *node.Node {
	n := node.NewNode(r.Code, r.Name, r.Type)
	n.Address = r.Address
	n.Region = r.Region
	if r.IsActive != nil {
		n.IsActive = *r.IsActive
	}
	n.Description = r.Description
	return n
}

// UpdateNodeRequest is the request body for updating a node.
type UpdateNodeRequest struct {
	Code        string        `json:"code"`
	Name        string        `json:"name" binding:"required"`
	Type        node.NodeType `json:"type" binding:"required"`
	Address     *string       `json:"address,omitempty"`
	Region      *string       `json:"region,omitempty"`
	IsActive    bool          `json:"isActive"`
	Description *string       `json:"description,omitempty"`
	Version     int           `json:"version" binding:"required"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateNodeRequest) ApplyTo(n *node.Node) {
	n.Code = r.Code
	n.Name = r.Name
	n.Type = r.Type
	n.Address = r.Address
	n.Region = r.Region
	n.IsActive = r.IsActive
	n.Description = r.Description
	n.Version = r.Version
}

// --- Response DTOs ---

// NodeResponse is the response body for a node.
type NodeResponse struct {
	ID           string        `json:"id"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Type         node.NodeType `json:"type"`
	Address      *string       `json:"address,omitempty"`
	Region       *string       `json:"region,omitempty"`
	IsActive     bool          `json:"isActive"`
	Description  *string       `json:"description,omitempty"`
	DeletionMark bool          `json:"deletionMark"`
	Version      int           `json:"version"`
}

// FromNode creates response DTO from domain entity.
func FromNode(n *node.Node) *NodeResponse {
	return &NodeResponse{
		ID:           n.ID.String(),
		Code:         n.Code,
		Name:         n.Name,
		Type:         n.Type,
		Address:      n.Address,
		Region:       n.Region,
		IsActive:     n.IsActive,
		Description:  n.Description,
		DeletionMark: n.DeletionMark,
		Version:      n.Version,
	}
}

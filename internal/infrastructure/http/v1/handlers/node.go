package handlers

import (
	"pharmstock/internal/domain/catalogs/node"
	"pharmstock/internal/infrastructure/http/v1/dto"
)

// NodeHTTPHandler is the catalog handler instantiated for stock nodes.
type NodeHTTPHandler = CatalogHandler[
	*node.Node,
	dto.CreateNodeRequest,
	dto.UpdateNodeRequest,
]

// NewNodeHandler wires the generic catalog handler with node mappers.
func NewNodeHandler(
	base *BaseHandler,
	service *node.Service,
) *NodeHTTPHandler {

	config := CatalogHandlerConfig[
		*node.Node,
		dto.CreateNodeRequest,
		dto.UpdateNodeRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "node",

		MapCreateDTO: func(req dto.CreateNodeRequest) *node.Node {
			return req.ToEntity()
		},

		MapUpdateDTO: func(req dto.UpdateNodeRequest, existing *node.Node) *node.Node {
			req.ApplyTo(existing)
			return existing
		},

		MapToDTO: func(entity *node.Node) any {
			return dto.FromNode(entity)
		},
	}

	return NewCatalogHandler(base, config)
}

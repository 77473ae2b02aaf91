package server

import (
	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/haileyok/seneca/registry"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetSchema(e echo.Context) error {
	id, err := getIDFromContext(e, "id")
	if err != nil {
		return helpers.InputError(e, nil)
	}

	entry, err := s.schemas.GetSchema(e.Request().Context(), registry.SchemaID(id))
	if err != nil {
		return s.registryError(e, "registry.getSchema", err)
	}

	view, err := api.FromSchemaEntry(entry)
	if err != nil {
		s.logger.Error("error rendering schema", "id", id, "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, view)
}

func (s *Server) handleListSchemas(e echo.Context) error {
	entries, err := s.schemas.ListSchemas(e.Request().Context())
	if err != nil {
		return s.registryError(e, "registry.listSchemas", err)
	}

	items := []api.SchemaView{}
	for _, entry := range entries {
		view, err := api.FromSchemaEntry(entry)
		if err != nil {
			s.logger.Error("error rendering schema", "id", entry.ID, "error", err)
			return helpers.ServerError(e, nil)
		}
		items = append(items, *view)
	}

	return e.JSON(200, api.ListSchemasResponse{
		Schemas: items,
	})
}

package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/haileyok/seneca/registry"
	"github.com/haileyok/seneca/signature"
	"github.com/labstack/echo/v4"
)

func (s *Server) bindSchemaRequest(e echo.Context, endpoint string) (*registry.SignedSchema, uint32, error) {
	var req api.CreateSchemaRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error receiving request", "endpoint", endpoint, "error", err)
		return nil, 0, helpers.InputError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) && verr.Field == "Signature" {
			return nil, 0, helpers.InputError(e, to.StringPtr("InvalidSignature"))
		}
		return nil, 0, helpers.InputError(e, nil)
	}

	schema, err := api.ToSchema(&req.Schema)
	if err != nil {
		s.logger.Info("rejecting malformed schema", "endpoint", endpoint, "error", err)
		return nil, 0, invalidRecord(e)
	}

	sig, err := signature.ParseHex(req.Signature)
	if err != nil {
		return nil, 0, helpers.InputError(e, to.StringPtr("InvalidSignature"))
	}

	return &registry.SignedSchema{Signature: sig, Schema: *schema}, req.ID, nil
}

func (s *Server) schemaMutationResponse(e echo.Context, id uint32, signed *registry.SignedSchema) error {
	ctx := e.Request().Context()

	resp := api.MutationResponse{ID: id}

	if signed != nil {
		raw, err := registry.EncodeSignedSchema(signed)
		if err != nil {
			return helpers.ServerError(e, nil)
		}

		c, err := registry.RecordCID(raw)
		if err != nil {
			return helpers.ServerError(e, nil)
		}
		resp.Cid = c.String()
	}

	nonce, err := s.schemas.Nonce(ctx)
	if err != nil {
		s.logger.Error("error reading schema nonce", "error", err)
		return helpers.ServerError(e, nil)
	}
	resp.Nonce = nonce

	return e.JSON(200, resp)
}

func (s *Server) handleCreateSchema(e echo.Context) error {
	ctx := e.Request().Context()

	// on a nil record the response has already been written
	signed, id, resp := s.bindSchemaRequest(e, "registry.createSchema")
	if signed == nil {
		return resp
	}

	signer, err := signerFromContext(e)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.schemas.CreateSchema(ctx, signer, registry.SchemaID(id), &signed.Schema, signed.Signature); err != nil {
		return s.registryError(e, "registry.createSchema", err)
	}

	return s.schemaMutationResponse(e, id, signed)
}

func (s *Server) handleUpdateSchema(e echo.Context) error {
	ctx := e.Request().Context()

	// on a nil record the response has already been written
	signed, id, resp := s.bindSchemaRequest(e, "registry.updateSchema")
	if signed == nil {
		return resp
	}

	signer, err := signerFromContext(e)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.schemas.UpdateSchema(ctx, signer, registry.SchemaID(id), signed); err != nil {
		return s.registryError(e, "registry.updateSchema", err)
	}

	return s.schemaMutationResponse(e, id, signed)
}

func (s *Server) handleDeleteSchema(e echo.Context) error {
	ctx := e.Request().Context()

	var req api.DeleteRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error receiving request", "endpoint", "registry.deleteSchema", "error", err)
		return helpers.InputError(e, nil)
	}

	signer, err := signerFromContext(e)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.schemas.DeleteSchema(ctx, signer, registry.SchemaID(req.ID)); err != nil {
		return s.registryError(e, "registry.deleteSchema", err)
	}

	return s.schemaMutationResponse(e, req.ID, nil)
}

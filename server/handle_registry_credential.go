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

func (s *Server) bindCredentialRequest(e echo.Context, endpoint string) (*registry.SignedCredential, uint32, error) {
	var req api.CreateCredentialRequest
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

	credential, err := api.ToCredential(&req.Credential)
	if err != nil {
		s.logger.Info("rejecting malformed credential", "endpoint", endpoint, "error", err)
		return nil, 0, invalidRecord(e)
	}

	sig, err := signature.ParseHex(req.Signature)
	if err != nil {
		return nil, 0, helpers.InputError(e, to.StringPtr("InvalidSignature"))
	}

	return &registry.SignedCredential{Signature: sig, Credential: *credential}, req.ID, nil
}

func (s *Server) credentialMutationResponse(e echo.Context, id uint32, signed *registry.SignedCredential) error {
	ctx := e.Request().Context()

	resp := api.MutationResponse{ID: id}

	if signed != nil {
		raw, err := registry.EncodeSignedCredential(signed)
		if err != nil {
			return helpers.ServerError(e, nil)
		}

		c, err := registry.RecordCID(raw)
		if err != nil {
			return helpers.ServerError(e, nil)
		}
		resp.Cid = c.String()
	}

	nonce, err := s.credentials.Nonce(ctx)
	if err != nil {
		s.logger.Error("error reading credential nonce", "error", err)
		return helpers.ServerError(e, nil)
	}
	resp.Nonce = nonce

	return e.JSON(200, resp)
}

func (s *Server) handleCreateCredential(e echo.Context) error {
	ctx := e.Request().Context()

	// on a nil record the response has already been written
	signed, id, resp := s.bindCredentialRequest(e, "registry.createCredential")
	if signed == nil {
		return resp
	}

	signer, err := signerFromContext(e)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.credentials.CreateCredential(ctx, signer, registry.CredentialID(id), &signed.Credential, signed.Signature); err != nil {
		return s.registryError(e, "registry.createCredential", err)
	}

	return s.credentialMutationResponse(e, id, signed)
}

func (s *Server) handleUpdateCredential(e echo.Context) error {
	ctx := e.Request().Context()

	signed, id, resp := s.bindCredentialRequest(e, "registry.updateCredential")
	if signed == nil {
		return resp
	}

	signer, err := signerFromContext(e)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.credentials.UpdateCredential(ctx, signer, registry.CredentialID(id), signed); err != nil {
		return s.registryError(e, "registry.updateCredential", err)
	}

	return s.credentialMutationResponse(e, id, signed)
}

func (s *Server) handleDeleteCredential(e echo.Context) error {
	ctx := e.Request().Context()

	var req api.DeleteRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error receiving request", "endpoint", "registry.deleteCredential", "error", err)
		return helpers.InputError(e, nil)
	}

	signer, err := signerFromContext(e)
	if err != nil {
		return helpers.ServerError(e, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.credentials.DeleteCredential(ctx, signer, registry.CredentialID(req.ID)); err != nil {
		return s.registryError(e, "registry.deleteCredential", err)
	}

	return s.credentialMutationResponse(e, req.ID, nil)
}

package server

import (
	"bytes"
	"context"

	"github.com/haileyok/seneca/api"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/haileyok/seneca/registry"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleGetCredential(e echo.Context) error {
	id, err := getIDFromContext(e, "id")
	if err != nil {
		return helpers.InputError(e, nil)
	}

	entry, err := s.credentials.GetCredential(e.Request().Context(), registry.CredentialID(id))
	if err != nil {
		return s.registryError(e, "registry.getCredential", err)
	}

	view, err := api.FromCredentialEntry(entry)
	if err != nil {
		s.logger.Error("error rendering credential", "id", id, "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, view)
}

type credentialFilter struct {
	schema  *registry.SchemaID
	holder  []byte
	issuer  []byte
	subject []byte
}

func (f *credentialFilter) matches(vc *registry.VerifiableCredential) bool {
	if f.schema != nil && vc.Schema != *f.schema {
		return false
	}
	if f.holder != nil && !bytes.Equal(vc.CredentialHolder, f.holder) {
		return false
	}
	if f.issuer != nil && !bytes.Equal(vc.Issuer, f.issuer) {
		return false
	}
	if f.subject != nil && !bytes.Equal(vc.Subject.ID, f.subject) {
		return false
	}
	return true
}

// query picks the narrowest registry index for the filter and applies the
// remaining conditions to its result.
func (f *credentialFilter) query(ctx context.Context, creds *registry.Credentials) ([]*registry.CredentialEntry, error) {
	switch {
	case f.schema != nil:
		return creds.CredentialsBySchema(ctx, *f.schema)
	case f.subject != nil:
		return creds.CredentialsBySubject(ctx, f.subject)
	case f.holder != nil:
		return creds.CredentialsByHolder(ctx, f.holder)
	case f.issuer != nil:
		return creds.CredentialsByIssuer(ctx, f.issuer)
	default:
		return creds.ListCredentials(ctx)
	}
}

func (s *Server) handleListCredentials(e echo.Context) error {
	ctx := e.Request().Context()

	var f credentialFilter

	if e.QueryParam("schema") != "" {
		id, err := getIDFromContext(e, "schema")
		if err != nil {
			return helpers.InputError(e, nil)
		}
		sid := registry.SchemaID(id)
		f.schema = &sid
	}

	if v := e.QueryParam("holder"); v != "" {
		f.holder = []byte(v)
	}

	if v := e.QueryParam("issuer"); v != "" {
		f.issuer = []byte(v)
	}

	if v := e.QueryParam("subject"); v != "" {
		f.subject = []byte(v)
	}

	entries, err := f.query(ctx, s.credentials)
	if err != nil {
		return s.registryError(e, "registry.listCredentials", err)
	}

	items := []api.CredentialView{}
	for _, entry := range entries {
		if !f.matches(&entry.Credential) {
			continue
		}

		view, err := api.FromCredentialEntry(entry)
		if err != nil {
			s.logger.Error("error rendering credential", "id", entry.ID, "error", err)
			return helpers.ServerError(e, nil)
		}
		items = append(items, *view)
	}

	return e.JSON(200, api.ListCredentialsResponse{
		Credentials: items,
	})
}

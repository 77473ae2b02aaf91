package server

import (
	"errors"
	"strconv"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/haileyok/seneca/did"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/haileyok/seneca/registry"
	"github.com/labstack/echo/v4"
)

// registryError turns a registry failure into a response. Errors that are not
// part of the registry taxonomy are logged and reported as server errors.
func (s *Server) registryError(e echo.Context, endpoint string, err error) error {
	name := registry.ErrorName(err)
	if name == "" {
		s.logger.Error("error applying registry operation", "endpoint", endpoint, "error", err)
		return helpers.ServerError(e, nil)
	}

	if errors.Is(err, registry.ErrUnknownSchema) || errors.Is(err, registry.ErrUnknownCredential) {
		if e.Request().Method == "GET" {
			return helpers.NotFound(e, &name)
		}
	}

	return helpers.InputError(e, &name)
}

func getIDFromContext(e echo.Context, param string) (uint32, error) {
	idstr := e.QueryParam(param)
	if idstr == "" {
		return 0, errors.New("missing id")
	}

	id, err := strconv.ParseUint(idstr, 10, 32)
	if err != nil {
		return 0, err
	}

	return uint32(id), nil
}

func signerFromContext(e echo.Context) (did.AccountID, error) {
	acct, ok := e.Get("account").(did.AccountID)
	if !ok {
		return acct, errors.New("no session account on context")
	}
	return acct, nil
}

func invalidRecord(e echo.Context) error {
	return helpers.InputError(e, to.StringPtr(registry.ErrorName(registry.ErrInvalidRecord)))
}

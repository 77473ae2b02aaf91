package server

import (
	"github.com/Azure/go-autorest/autorest/to"
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleResolveDid(e echo.Context) error {
	d := e.QueryParam("did")
	if d == "" {
		return helpers.InputError(e, nil)
	}

	doc, err := s.passport.FetchDoc(e.Request().Context(), d)
	if err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidDID"))
	}

	return e.JSON(200, doc)
}

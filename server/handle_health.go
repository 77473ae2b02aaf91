package server

import "github.com/labstack/echo/v4"

func (s *Server) handleHealth(e echo.Context) error {
	return e.JSON(200, map[string]string{
		"version": "seneca " + s.config.Version,
	})
}

func (s *Server) handleRoot(e echo.Context) error {
	return e.String(200, "This is a seneca schema and credential registry. Most API routes are under /xrpc/")
}

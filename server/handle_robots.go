package server

import "github.com/labstack/echo/v4"

func (s *Server) handleRobots(e echo.Context) error {
	return e.String(200, "# Beep boop beep boop\n\nUser-agent: *\nAllow: /xrpc/registry.getSchema\nAllow: /xrpc/registry.listSchemas\nDisallow: /xrpc/registry.subscribe")
}

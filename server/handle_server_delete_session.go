package server

import (
	"github.com/haileyok/seneca/internal/helpers"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleDeleteSession(e echo.Context) error {
	token := e.Get("token").(string)

	if err := s.db.Exec("DELETE FROM tokens WHERE token = ?", token).Error; err != nil {
		s.logger.Error("error deleting access token from db", "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.NoContent(200)
}

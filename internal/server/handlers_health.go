package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rohan-ak43/Remo/internal/version"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":         "ok",
		"uptime_seconds": s.clock.Since(s.startTime).Seconds(),
	})
}

// handleReadiness checks that the gateway actor is answering commands.
// A count of -1 means the actor timed out and the process should be
// rotated out of service.
func (s *Server) handleReadiness(c echo.Context) error {
	count := s.gateway.ClientCount()
	if count < 0 {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status": "unavailable",
			"reason": "gateway not responding",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":            "ok",
		"connected_clients": count,
	})
}

func (s *Server) handleVersion(c echo.Context) error {
	return c.JSON(http.StatusOK, version.Get())
}

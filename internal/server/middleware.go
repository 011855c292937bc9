package server

import (
	"github.com/labstack/echo/v4"

	apperrors "github.com/rohan-ak43/Remo/internal/errors"
	"github.com/rohan-ak43/Remo/internal/metrics"
)

const apiKeyHeader = "x-api-key"

// requireAPIKey rejects ingestion requests whose shared-secret header
// is missing or not an exact match. Runs before any body parsing.
func (s *Server) requireAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Header.Get(apiKeyHeader)
		if key == "" || key != s.config.SensorAPIKey {
			metrics.IngestRequestsTotal.WithLabelValues(c.Path(), "unauthorized").Inc()
			return apperrors.UnauthorizedError("Invalid API key").WithField("endpoint", c.Path())
		}
		return next(c)
	}
}

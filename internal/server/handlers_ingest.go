package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rohan-ak43/Remo/internal/event"
	"github.com/rohan-ak43/Remo/internal/metrics"
)

type ingestResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// handleSensorReading accepts FSR readings from the ESP32 and broadcasts
// them to connected dashboards. Missing or wrong-typed fields default to
// zero; the body is never rejected.
func (s *Server) handleSensorReading(c echo.Context) error {
	var raw event.RawSensorReading
	if err := c.Bind(&raw); err != nil {
		raw = event.RawSensorReading{}
	}

	reading := event.NormalizeSensor(raw, s.clock)
	s.gateway.PublishSensor(reading)

	metrics.IngestRequestsTotal.WithLabelValues(c.Path(), "ok").Inc()
	slog.Info("Received sensor reading", "value", reading.Value)

	return c.JSON(http.StatusOK, ingestResponse{
		Success:   true,
		Message:   "Sensor reading received and broadcasted",
		Timestamp: reading.Timestamp,
	})
}

// handleCVUpdate accepts rep count and form accuracy from the patient
// webcam page and broadcasts them to connected dashboards.
func (s *Server) handleCVUpdate(c echo.Context) error {
	var raw event.RawCVUpdate
	if err := c.Bind(&raw); err != nil {
		raw = event.RawCVUpdate{}
	}

	update := event.NormalizeCV(raw, s.clock)
	s.gateway.PublishCV(update)

	metrics.IngestRequestsTotal.WithLabelValues(c.Path(), "ok").Inc()
	slog.Info("Received CV update", "reps", update.Reps, "form_accuracy", update.FormAccuracy)

	return c.JSON(http.StatusOK, ingestResponse{
		Success:   true,
		Message:   "CV update received and broadcasted",
		Timestamp: update.Timestamp,
	})
}

package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Telemetry ingestion (shared-secret header required)
	s.echo.POST("/iot/reading", s.handleSensorReading, s.requireAPIKey)
	s.echo.POST("/cv/update", s.handleCVUpdate, s.requireAPIKey)

	// Dashboard / patient WebSocket
	s.echo.GET("/ws", s.handleWebSocket)

	// Gemini proxy endpoints
	s.echo.POST("/gemini/analyze-form", s.handleAnalyzeForm)
	s.echo.POST("/gemini/analyze-form-quick", s.handleAnalyzeFormQuick)
	s.echo.POST("/gemini/generate-report", s.handleGenerateReport)
	s.echo.POST("/gemini/chat", s.handleChat)
	s.echo.POST("/gemini/detect-anomalies", s.handleDetectAnomalies)
	s.echo.POST("/gemini/recommend-exercises", s.handleRecommendExercises)
	s.echo.POST("/gemini/assess-discomfort", s.handleAssessDiscomfort)

	// Patient page and doctor dashboard
	s.echo.Static("/", "public")
}

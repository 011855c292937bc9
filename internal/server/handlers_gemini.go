package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rohan-ak43/Remo/internal/gemini"
)

// Request bodies for the Gemini proxy endpoints. Bind errors fall back
// to zero values so the AI layer can answer with its fallbacks instead
// of the endpoint rejecting the request.

type analyzeFormRequest struct {
	ImageBase64 string          `json:"imageBase64"`
	PoseData    gemini.PoseData `json:"poseData"`
}

type analyzeFormQuickRequest struct {
	PoseData gemini.PoseData `json:"poseData"`
}

type generateReportRequest struct {
	SessionData gemini.SessionData `json:"sessionData"`
}

type chatRequest struct {
	Message        string                `json:"message"`
	SessionContext gemini.SessionContext `json:"sessionContext"`
}

type detectAnomaliesRequest struct {
	RecentReps []gemini.RepSample `json:"recentReps"`
}

type recommendExercisesRequest struct {
	PatientProfile gemini.PatientProfile `json:"patientProfile"`
	ProgressData   gemini.ProgressData   `json:"progressData"`
}

type assessDiscomfortRequest struct {
	FaceImageBase64 string              `json:"faceImageBase64"`
	PainDescription string              `json:"painDescription"`
	ExerciseData    gemini.ExerciseData `json:"exerciseData"`
}

func (s *Server) handleAnalyzeForm(c echo.Context) error {
	var req analyzeFormRequest
	_ = c.Bind(&req)

	analysis := s.gemini.AnalyzeFormWithImage(c.Request().Context(), req.ImageBase64, req.PoseData)

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"analysis":  analysis,
		"timestamp": s.clock.Now().UnixMilli(),
	})
}

func (s *Server) handleAnalyzeFormQuick(c echo.Context) error {
	var req analyzeFormQuickRequest
	_ = c.Bind(&req)

	feedback := s.gemini.AnalyzeFormQuick(c.Request().Context(), req.PoseData)

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"feedback":  feedback,
		"timestamp": s.clock.Now().UnixMilli(),
	})
}

func (s *Server) handleGenerateReport(c echo.Context) error {
	var req generateReportRequest
	_ = c.Bind(&req)

	report := s.gemini.GenerateSessionReport(c.Request().Context(), req.SessionData)

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"report":    report,
		"timestamp": s.clock.Now().UnixMilli(),
	})
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	_ = c.Bind(&req)

	response := s.gemini.ChatWithPatient(c.Request().Context(), req.Message, req.SessionContext)

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"response":  response,
		"timestamp": s.clock.Now().UnixMilli(),
	})
}

// handleDetectAnomalies flattens the anomaly result into the response
// body rather than nesting it under a key.
func (s *Server) handleDetectAnomalies(c echo.Context) error {
	var req detectAnomaliesRequest
	_ = c.Bind(&req)

	result := s.gemini.DetectAnomalies(c.Request().Context(), req.RecentReps)

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"isAnomalous": result.IsAnomalous,
		"alert":       result.Alert,
		"severity":    result.Severity,
		"timestamp":   s.clock.Now().UnixMilli(),
	})
}

func (s *Server) handleRecommendExercises(c echo.Context) error {
	var req recommendExercisesRequest
	_ = c.Bind(&req)

	recommendations := s.gemini.RecommendExercises(c.Request().Context(), req.PatientProfile, req.ProgressData)

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"recommendations": recommendations,
		"timestamp":       s.clock.Now().UnixMilli(),
	})
}

func (s *Server) handleAssessDiscomfort(c echo.Context) error {
	var req assessDiscomfortRequest
	_ = c.Bind(&req)

	assessment := s.gemini.AssessDiscomfort(c.Request().Context(), req.FaceImageBase64, req.PainDescription, req.ExerciseData)

	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"assessment": assessment,
		"timestamp":  s.clock.Now().UnixMilli(),
	})
}

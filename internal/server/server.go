// Package server exposes the HTTP and WebSocket surface: telemetry
// ingestion, the dashboard WebSocket endpoint, the Gemini proxy
// endpoints, and observability routes.
package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rohan-ak43/Remo/internal/config"
	apperrors "github.com/rohan-ak43/Remo/internal/errors"
	"github.com/rohan-ak43/Remo/internal/event"
	"github.com/rohan-ak43/Remo/internal/gemini"
)

// broadcastGateway is what the handlers need from the gateway.
type broadcastGateway interface {
	Register(conn *websocket.Conn) error
	Unregister(conn *websocket.Conn)
	HandleInbound(conn *websocket.Conn, payload []byte)
	ClientCount() int
	PublishSensor(ev event.SensorReading)
	PublishCV(ev event.CVUpdate)
}

// geminiService is the AI collaborator boundary. Implementations never
// return errors; failures degrade to fixed fallback values.
type geminiService interface {
	AnalyzeFormWithImage(ctx context.Context, imageBase64 string, pose gemini.PoseData) gemini.FormAnalysis
	AnalyzeFormQuick(ctx context.Context, pose gemini.PoseData) string
	GenerateSessionReport(ctx context.Context, data gemini.SessionData) string
	ChatWithPatient(ctx context.Context, message string, sctx gemini.SessionContext) string
	DetectAnomalies(ctx context.Context, samples []gemini.RepSample) gemini.AnomalyResult
	RecommendExercises(ctx context.Context, profile gemini.PatientProfile, progress gemini.ProgressData) string
	AssessDiscomfort(ctx context.Context, faceImageBase64, painDescription string, data gemini.ExerciseData) gemini.DiscomfortAssessment
}

type Server struct {
	echo      *echo.Echo
	config    *config.Config
	gateway   broadcastGateway
	gemini    geminiService
	clock     clockwork.Clock
	startTime time.Time
}

func NewServer(cfg *config.Config, gw broadcastGateway, ai geminiService, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	// Open CORS: the patient page, doctor dashboard, and ESP32 all call
	// from other origins.
	e.Use(middleware.CORS())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:      e,
		config:    cfg,
		gateway:   gw,
		gemini:    ai,
		clock:     clock,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	slog.Info("Starting server", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

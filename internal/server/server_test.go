package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorilla/websocket"

	"github.com/rohan-ak43/Remo/internal/config"
	"github.com/rohan-ak43/Remo/internal/event"
	"github.com/rohan-ak43/Remo/internal/gateway"
	"github.com/rohan-ak43/Remo/internal/gemini"
)

const testAPIKey = "test-secret"

// mockGateway records published events without any real connections.
type mockGateway struct {
	sensorEvents []event.SensorReading
	cvEvents     []event.CVUpdate
	clientCount  int
}

func (m *mockGateway) Register(conn *websocket.Conn) error                 { return nil }
func (m *mockGateway) Unregister(conn *websocket.Conn)                     {}
func (m *mockGateway) HandleInbound(conn *websocket.Conn, payload []byte)  {}
func (m *mockGateway) ClientCount() int                                    { return m.clientCount }
func (m *mockGateway) PublishSensor(ev event.SensorReading)                { m.sensorEvents = append(m.sensorEvents, ev) }
func (m *mockGateway) PublishCV(ev event.CVUpdate)                         { m.cvEvents = append(m.cvEvents, ev) }

// mockGemini returns canned values and records what it was asked.
type mockGemini struct {
	lastChatMessage string
	lastPose        gemini.PoseData
}

func (m *mockGemini) AnalyzeFormWithImage(ctx context.Context, imageBase64 string, pose gemini.PoseData) gemini.FormAnalysis {
	m.lastPose = pose
	return gemini.FormAnalysis{Feedback: "Good form", RiskLevel: "low", Tip: "Keep going", Corrections: []string{}}
}

func (m *mockGemini) AnalyzeFormQuick(ctx context.Context, pose gemini.PoseData) string {
	m.lastPose = pose
	return "Nice rep!"
}

func (m *mockGemini) GenerateSessionReport(ctx context.Context, data gemini.SessionData) string {
	return "Session report text"
}

func (m *mockGemini) ChatWithPatient(ctx context.Context, message string, sctx gemini.SessionContext) string {
	m.lastChatMessage = message
	return "You're doing great"
}

func (m *mockGemini) DetectAnomalies(ctx context.Context, samples []gemini.RepSample) gemini.AnomalyResult {
	return gemini.AnomalyResult{IsAnomalous: true, Alert: "Sharp accuracy drop", Severity: "warning"}
}

func (m *mockGemini) RecommendExercises(ctx context.Context, profile gemini.PatientProfile, progress gemini.ProgressData) string {
	return "1. Wall slides"
}

func (m *mockGemini) AssessDiscomfort(ctx context.Context, faceImageBase64, painDescription string, data gemini.ExerciseData) gemini.DiscomfortAssessment {
	return gemini.DiscomfortAssessment{Severity: 3, ShouldPause: false, Recommendation: "Continue with caution"}
}

type testServer struct {
	server  *Server
	gateway *mockGateway
	gemini  *mockGemini
	clock   *clockwork.FakeClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.UnixMilli(1_700_000_000_000))
	gw := &mockGateway{}
	ai := &mockGemini{}

	cfg := &config.Config{
		Host:         "127.0.0.1",
		Port:         "0",
		SensorAPIKey: testAPIKey,
	}

	return &testServer{
		server:  NewServer(cfg, gw, ai, clock),
		gateway: gw,
		gemini:  ai,
		clock:   clock,
	}
}

func (ts *testServer) request(method, path, apiKey, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	rec := httptest.NewRecorder()
	ts.server.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSensorReading_MissingAPIKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/iot/reading", "", `{"value": 42}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.gateway.sensorEvents)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
}

func TestSensorReading_WrongAPIKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/iot/reading", "wrong-key", `{"value": 42}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.gateway.sensorEvents)
}

func TestSensorReading_ValidKeyBroadcasts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/iot/reading", testAPIKey, `{"value": 512.5}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, ts.gateway.sensorEvents, 1)
	assert.Equal(t, 512.5, ts.gateway.sensorEvents[0].Value)
	assert.Equal(t, ts.clock.Now().UnixMilli(), ts.gateway.sensorEvents[0].Timestamp)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Sensor reading received and broadcasted", body["message"])
	assert.Equal(t, float64(ts.clock.Now().UnixMilli()), body["timestamp"])
}

func TestSensorReading_SensorFieldFallback(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/iot/reading", testAPIKey, `{"sensor": 15}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.gateway.sensorEvents, 1)
	assert.Equal(t, 15.0, ts.gateway.sensorEvents[0].Value)
}

func TestSensorReading_EmptyBodyDefaultsToZero(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/iot/reading", testAPIKey, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.gateway.sensorEvents, 1)
	assert.Equal(t, 0.0, ts.gateway.sensorEvents[0].Value)
}

func TestSensorReading_MalformedBodyDefaultsToZero(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/iot/reading", testAPIKey, `{"value": "not a number"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.gateway.sensorEvents, 1)
	assert.Equal(t, 0.0, ts.gateway.sensorEvents[0].Value)
}

func TestCVUpdate_ValidKeyBroadcasts(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/cv/update", testAPIKey, `{"reps": 7, "formAccuracy": 91.2}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, ts.gateway.cvEvents, 1)
	assert.Equal(t, 7, ts.gateway.cvEvents[0].Reps)
	assert.Equal(t, 91.2, ts.gateway.cvEvents[0].FormAccuracy)

	body := decodeBody(t, rec)
	assert.Equal(t, "CV update received and broadcasted", body["message"])
}

func TestCVUpdate_IgnoresCallerTimestamp(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/cv/update", testAPIKey, `{"reps": 1, "formAccuracy": 50, "timestamp": 12345}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.gateway.cvEvents, 1)
	assert.Equal(t, ts.clock.Now().UnixMilli(), ts.gateway.cvEvents[0].Timestamp)
}

func TestCVUpdate_MissingAPIKey(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/cv/update", "", `{"reps": 7}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, ts.gateway.cvEvents)
}

func TestGeminiChat(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/chat", "", `{"message": "Am I doing ok?", "sessionContext": {"reps": 5, "formAccuracy": 80, "active": true}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Am I doing ok?", ts.gemini.lastChatMessage)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "You're doing great", body["response"])
	assert.NotZero(t, body["timestamp"])
}

func TestGeminiAnalyzeFormQuick(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/analyze-form-quick", "", `{"poseData": {"reps": 3, "formAccuracy": 77}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, ts.gemini.lastPose.Reps)

	body := decodeBody(t, rec)
	assert.Equal(t, "Nice rep!", body["feedback"])
}

func TestGeminiAnalyzeForm(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/analyze-form", "", `{"imageBase64": "abc", "poseData": {"reps": 2, "formAccuracy": 60}}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	analysis, ok := body["analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Good form", analysis["feedback"])
	assert.Equal(t, "low", analysis["riskLevel"])
}

func TestGeminiDetectAnomalies_FlattensResult(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/detect-anomalies", "", `{"recentReps": [{"rep": 1, "accuracy": 40, "fsrValue": 100}]}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["isAnomalous"])
	assert.Equal(t, "Sharp accuracy drop", body["alert"])
	assert.Equal(t, "warning", body["severity"])
}

func TestGeminiGenerateReport(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/generate-report", "", `{"sessionData": {"totalReps": 10, "duration": 120}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Session report text", decodeBody(t, rec)["report"])
}

func TestGeminiRecommendExercises(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/recommend-exercises", "", `{"patientProfile": {"weeksInTherapy": 4}, "progressData": {"sessions": 8}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1. Wall slides", decodeBody(t, rec)["recommendations"])
}

func TestGeminiAssessDiscomfort(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodPost, "/gemini/assess-discomfort", "", `{"painDescription": "mild ache", "exerciseData": {"reps": 6, "formAccuracy": 85}}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assessment, ok := body["assessment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, assessment["shouldPause"])
	assert.Equal(t, 3.0, assessment["severity"])
}

func TestHealthLiveness(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/health/live", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestHealthReadiness(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.clientCount = 3

	rec := ts.request(http.MethodGet, "/health/ready", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 3.0, body["connected_clients"])
}

func TestHealthReadiness_GatewayNotResponding(t *testing.T) {
	ts := newTestServer(t)
	ts.gateway.clientCount = -1

	rec := ts.request(http.MethodGet, "/health/ready", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestVersionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(http.MethodGet, "/version", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", decodeBody(t, rec)["version"])
}

// TestWebSocketEndToEnd runs the full path: HTTP ingestion through the
// real gateway out to a connected WebSocket client.
func TestWebSocketEndToEnd(t *testing.T) {
	clock := clockwork.NewRealClock()
	gw := gateway.New(clock, 10)
	t.Cleanup(gw.Stop)

	cfg := &config.Config{SensorAPIKey: testAPIKey}
	srv := NewServer(cfg, gw, &mockGemini{}, clock)

	httpSrv := httptest.NewServer(srv.echo)
	t.Cleanup(httpSrv.Close)

	wsURL := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Wait for the registration to land in the actor.
	require.Eventually(t, func() bool {
		return gw.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	req, err := http.NewRequest(http.MethodPost, httpSrv.URL+"/iot/reading", strings.NewReader(`{"value": 321}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env gateway.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, gateway.ChannelSensorData, env.Event)

	var reading event.SensorReading
	require.NoError(t, json.Unmarshal(env.Data, &reading))
	assert.Equal(t, 321.0, reading.Value)
}

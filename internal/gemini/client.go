package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/google/generative-ai-go/genai"
	"github.com/jonboulle/clockwork"
	"google.golang.org/api/option"

	"github.com/rohan-ak43/Remo/internal/metrics"
)

const modelName = "gemini-2.0-flash-lite"

// Fixed fallback responses. The HTTP surface never reports a Gemini
// failure as an error, so every task has a canned best-effort answer.
var (
	fallbackQuickFeedback = "Good effort! Maintain consistent form throughout the exercise."
	fallbackChat          = "I'm facing technical issues now. Please try again shortly."
	fallbackReport        = "## Report Generation Failed\nCould not generate report due to API issue."
	fallbackRecommend     = "## Recommendation Failed\nPlease retry later."
	fallbackFormAnalysis  = FormAnalysis{
		Feedback:    "Error analyzing image. Please try again.",
		RiskLevel:   "low",
		Tip:         "Ensure your full body is visible to the camera.",
		Corrections: []string{},
	}
	fallbackAnomaly = AnomalyResult{
		IsAnomalous: false,
		Alert:       "Normal pattern",
		Severity:    "info",
	}
	fallbackDiscomfort = DiscomfortAssessment{
		Severity:       5,
		ShouldPause:    true,
		Recommendation: "Please pause and consult your therapist.",
	}
)

// contentGenerator is the slice of *genai.GenerativeModel the client
// depends on; tests substitute fakes.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client proxies exercise and session data to the Gemini API. Three
// differently configured models cover the task kinds: free text
// (reports, chat, quick feedback), JSON output (anomaly detection), and
// vision (form and discomfort analysis).
type Client struct {
	api         *genai.Client
	textModel   contentGenerator
	jsonModel   contentGenerator
	visionModel contentGenerator
	breaker     circuitbreaker.CircuitBreaker[any]
	clock       clockwork.Clock
}

// NewClient creates a Gemini client using the given API key.
func NewClient(ctx context.Context, apiKey string, clock clockwork.Clock) (*Client, error) {
	api, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	textModel := api.GenerativeModel(modelName)
	textModel.SetTemperature(0.7)
	textModel.SetTopK(40)
	textModel.SetTopP(0.95)
	textModel.SetMaxOutputTokens(1024)

	jsonModel := api.GenerativeModel(modelName)
	jsonModel.SetTemperature(0.2)
	jsonModel.SetMaxOutputTokens(1024)
	jsonModel.ResponseMIMEType = "application/json"

	visionModel := api.GenerativeModel(modelName)
	visionModel.SetTemperature(0.4)
	visionModel.SetMaxOutputTokens(512)

	return &Client{
		api:         api,
		textModel:   textModel,
		jsonModel:   jsonModel,
		visionModel: visionModel,
		breaker:     newBreaker(),
		clock:       clock,
	}, nil
}

// newBreaker builds the collaborator circuit breaker: 60% failure rate
// over min 5 requests in a 10s window opens it, 30s delay before
// half-open, one success closes it again.
func newBreaker() circuitbreaker.CircuitBreaker[any] {
	return circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 10*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Gemini circuit breaker state changed",
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			metrics.GeminiCircuitState.Set(breakerStateToFloat(e.NewState))
		}).
		Build()
}

func breakerStateToFloat(state circuitbreaker.State) float64 {
	switch state {
	case circuitbreaker.ClosedState:
		return 0
	case circuitbreaker.HalfOpenState:
		return 1
	case circuitbreaker.OpenState:
		return 2
	default:
		return 0
	}
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	if c.api != nil {
		return c.api.Close()
	}
	return nil
}

// AnalyzeFormWithImage evaluates exercise form from a webcam frame plus
// pose data. Returns a fixed analysis when the model call or parse fails.
func (c *Client) AnalyzeFormWithImage(ctx context.Context, imageBase64 string, pose PoseData) FormAnalysis {
	const task = "analyze_form"

	img, err := decodeBase64Image(imageBase64)
	if err != nil {
		slog.Error("Failed to decode form image", "error", err)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return fallbackFormAnalysis
	}

	text, err := c.generate(ctx, task, c.visionModel,
		genai.Text(formAnalysisPrompt(pose)),
		genai.ImageData("jpeg", img),
	)
	if err != nil {
		return fallbackFormAnalysis
	}

	var analysis FormAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		slog.Error("Failed to parse form analysis", "error", err)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return fallbackFormAnalysis
	}

	if analysis.Feedback == "" {
		analysis.Feedback = "Form analysis complete."
	}
	if analysis.RiskLevel == "" {
		analysis.RiskLevel = "low"
	}
	if analysis.Tip == "" {
		analysis.Tip = "Maintain steady movement and alignment."
	}
	if analysis.Corrections == nil {
		analysis.Corrections = []string{}
	}
	return analysis
}

// AnalyzeFormQuick produces short encouraging feedback without an image.
func (c *Client) AnalyzeFormQuick(ctx context.Context, pose PoseData) string {
	text, err := c.generate(ctx, "quick_feedback", c.textModel, genai.Text(quickFeedbackPrompt(pose)))
	if err != nil {
		return fallbackQuickFeedback
	}
	return strings.TrimSpace(text)
}

// GenerateSessionReport produces a markdown session report.
func (c *Client) GenerateSessionReport(ctx context.Context, data SessionData) string {
	text, err := c.generate(ctx, "session_report", c.textModel, genai.Text(sessionReportPrompt(data)))
	if err != nil {
		return fallbackReport
	}
	return text
}

// ChatWithPatient answers one patient chat turn with session context.
func (c *Client) ChatWithPatient(ctx context.Context, message string, sctx SessionContext) string {
	text, err := c.generate(ctx, "chat", c.textModel, genai.Text(chatPrompt(message, sctx)))
	if err != nil {
		return fallbackChat
	}
	return strings.TrimSpace(text)
}

// DetectAnomalies checks recent reps for abnormal accuracy/force patterns.
func (c *Client) DetectAnomalies(ctx context.Context, samples []RepSample) AnomalyResult {
	const task = "detect_anomalies"

	if len(samples) == 0 {
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return fallbackAnomaly
	}

	text, err := c.generate(ctx, task, c.jsonModel, genai.Text(anomalyPrompt(samples)))
	if err != nil {
		return fallbackAnomaly
	}

	var result AnomalyResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		slog.Error("Failed to parse anomaly result", "error", err)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return fallbackAnomaly
	}
	return result
}

// RecommendExercises produces markdown next-step exercise recommendations.
func (c *Client) RecommendExercises(ctx context.Context, profile PatientProfile, progress ProgressData) string {
	text, err := c.generate(ctx, "recommend_exercises", c.textModel, genai.Text(recommendPrompt(profile, progress)))
	if err != nil {
		return fallbackRecommend
	}
	return text
}

// AssessDiscomfort rates patient discomfort from a face image and pain
// description.
func (c *Client) AssessDiscomfort(ctx context.Context, faceImageBase64, painDescription string, data ExerciseData) DiscomfortAssessment {
	const task = "assess_discomfort"

	img, err := decodeBase64Image(faceImageBase64)
	if err != nil {
		slog.Error("Failed to decode face image", "error", err)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return fallbackDiscomfort
	}

	text, err := c.generate(ctx, task, c.visionModel,
		genai.Text(discomfortPrompt(painDescription, data)),
		genai.ImageData("jpeg", img),
	)
	if err != nil {
		return fallbackDiscomfort
	}

	var assessment DiscomfortAssessment
	if err := json.Unmarshal([]byte(text), &assessment); err != nil {
		slog.Error("Failed to parse discomfort assessment", "error", err)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return fallbackDiscomfort
	}
	return assessment
}

// generate runs one model call through the circuit breaker and returns
// the concatenated text of the response. No retries: a failure is
// recorded and surfaced so the caller falls back.
func (c *Client) generate(ctx context.Context, task string, model contentGenerator, parts ...genai.Part) (string, error) {
	if !c.breaker.TryAcquirePermit() {
		slog.Warn("Gemini circuit open, using fallback", "task", task)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return "", fmt.Errorf("gemini call rejected: %w", circuitbreaker.ErrOpen)
	}

	start := c.clock.Now()
	resp, err := model.GenerateContent(ctx, parts...)
	metrics.GeminiRequestDuration.WithLabelValues(task).Observe(c.clock.Since(start).Seconds())

	if err != nil {
		c.breaker.RecordError(err)
		slog.Error("Gemini request failed", "task", task, "error", err)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	c.breaker.RecordSuccess()

	text := responseText(resp)
	if text == "" {
		slog.Error("Gemini returned empty response", "task", task)
		metrics.GeminiRequestsTotal.WithLabelValues(task, "fallback").Inc()
		return "", fmt.Errorf("gemini returned empty response")
	}

	metrics.GeminiRequestsTotal.WithLabelValues(task, "ok").Inc()
	return text, nil
}

// responseText concatenates all text parts of the first candidates.
func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}

// decodeBase64Image strips an optional data-URL prefix
// (data:image/...;base64,) and decodes the payload.
func decodeBase64Image(s string) ([]byte, error) {
	if idx := strings.Index(s, "base64,"); idx >= 0 {
		s = s[idx+len("base64,"):]
	}
	return base64.StdEncoding.DecodeString(s)
}

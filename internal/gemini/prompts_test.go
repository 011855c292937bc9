package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickFeedbackPrompt_MissingAngleRendersNA(t *testing.T) {
	prompt := quickFeedbackPrompt(PoseData{Reps: 5, FormAccuracy: 88.5})

	assert.Contains(t, prompt, "Reps: 5")
	assert.Contains(t, prompt, "Form Accuracy: 88.5%")
	assert.Contains(t, prompt, "Elbow Angle: N/A")
}

func TestFormAnalysisPrompt_IncludesAngles(t *testing.T) {
	prompt := formAnalysisPrompt(PoseData{
		Reps:         3,
		FormAccuracy: 75,
		ElbowAngle:   ptr(92.4),
		HipAngle:     ptr(178.0),
	})

	assert.Contains(t, prompt, "Elbow: 92°")
	assert.Contains(t, prompt, "Shoulder: N/A")
	assert.Contains(t, prompt, "Hip: 178°")
}

func TestSessionReportPrompt_PoorFormReps(t *testing.T) {
	prompt := sessionReportPrompt(SessionData{
		TotalReps:    12,
		PoorFormReps: []int{3, 7, 11},
		Duration:     300,
	})

	assert.Contains(t, prompt, "Poor Form Reps: 3, 7, 11")
	assert.Contains(t, prompt, "Duration: 5.0 mins")
	assert.Contains(t, prompt, "the patient")
}

func TestSessionReportPrompt_NamedPatientNoPoorReps(t *testing.T) {
	prompt := sessionReportPrompt(SessionData{PatientName: "Alex", TotalReps: 8})

	assert.Contains(t, prompt, "report for Alex")
	assert.Contains(t, prompt, "Poor Form Reps: None")
}

func TestAnomalyPrompt_ComputesAverages(t *testing.T) {
	prompt := anomalyPrompt([]RepSample{
		{Rep: 1, Accuracy: 80, FSRValue: 400},
		{Rep: 2, Accuracy: 60, FSRValue: 200},
	})

	assert.Contains(t, prompt, "Rep 1: Accuracy 80.0%, FSR 400.0")
	assert.Contains(t, prompt, "Accuracy: 70.0%")
	assert.Contains(t, prompt, "FSR: 300.0")
}

func TestAnalyzeFSRPattern(t *testing.T) {
	tests := []struct {
		name     string
		readings []float64
		want     string
	}{
		{"no data", nil, "No data"},
		{"consistent", []float64{100, 101, 99, 100}, "Consistent activation"},
		{"moderate", []float64{100, 130, 70, 100}, "Moderate variation"},
		{"high", []float64{100, 300, 20, 180}, "High variation detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, analyzeFSRPattern(tt.readings))
		})
	}
}

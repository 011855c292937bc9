package gemini

import (
	"fmt"
	"math"
	"strings"
)

func quickFeedbackPrompt(pose PoseData) string {
	return fmt.Sprintf(`As a physiotherapist, give short encouraging feedback on this exercise.
Data:
Reps: %d
Form Accuracy: %.1f%%
Elbow Angle: %s
Use under 20 words.`, pose.Reps, pose.FormAccuracy, formatAngle(pose.ElbowAngle))
}

func formAnalysisPrompt(pose PoseData) string {
	return fmt.Sprintf(`You are a physiotherapist AI analyzing a bicep curl.
Use both the image and exercise data to evaluate.

Exercise Data:
- Reps: %d
- Accuracy: %.1f%%
- Elbow: %s
- Shoulder: %s
- Hip: %s

Return JSON:
{
  "feedback": "short personalized feedback",
  "riskLevel": "low" | "medium" | "high",
  "tip": "safety or improvement tip",
  "corrections": ["list", "of", "corrections"]
}`, pose.Reps, pose.FormAccuracy,
		formatAngle(pose.ElbowAngle), formatAngle(pose.ShoulderAngle), formatAngle(pose.HipAngle))
}

func sessionReportPrompt(data SessionData) string {
	patient := data.PatientName
	if patient == "" {
		patient = "the patient"
	}

	poorReps := "None"
	if len(data.PoorFormReps) > 0 {
		parts := make([]string, len(data.PoorFormReps))
		for i, rep := range data.PoorFormReps {
			parts[i] = fmt.Sprintf("%d", rep)
		}
		poorReps = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(`Generate a detailed rehabilitation session report for %s.

Data:
Total Reps: %d
Average Accuracy: %.1f%%
Max: %.1f%%
Min: %.1f%%
Avg FSR: %.0f
Poor Form Reps: %s
Duration: %.1f mins
Muscle Activation: %s

Structure in markdown:
## Performance Summary
## Muscle Activation Analysis
## Areas for Improvement
## Recommendations
## Motivation`,
		patient, data.TotalReps, data.AvgAccuracy, data.MaxAccuracy, data.MinAccuracy,
		data.AvgFSRReading, poorReps, data.Duration/60, analyzeFSRPattern(data.FSRReadings))
}

func chatPrompt(message string, sctx SessionContext) string {
	active := "No"
	if sctx.Active {
		active = "Yes"
	}

	return fmt.Sprintf(`You are a kind, supportive physiotherapy AI assistant.
Session:
- Reps: %d
- Accuracy: %.1f%%
- Active: %s

Patient says: %q
Respond warmly in 2-3 sentences, with helpful advice (no medical diagnosis).`,
		sctx.Reps, sctx.FormAccuracy, active, message)
}

func anomalyPrompt(samples []RepSample) string {
	var accSum, fsrSum float64
	lines := make([]string, len(samples))
	for i, s := range samples {
		accSum += s.Accuracy
		fsrSum += s.FSRValue
		lines[i] = fmt.Sprintf("Rep %d: Accuracy %.1f%%, FSR %.1f", s.Rep, s.Accuracy, s.FSRValue)
	}
	n := float64(len(samples))

	return fmt.Sprintf(`Analyze the following exercise data for abnormalities.
%s

Averages:
Accuracy: %.1f%%
FSR: %.1f

Return JSON:
{
  "isAnomalous": boolean,
  "alert": "short alert",
  "severity": "info" | "warning" | "critical"
}`, strings.Join(lines, "\n"), accSum/n, fsrSum/n)
}

func recommendPrompt(profile PatientProfile, progress ProgressData) string {
	return fmt.Sprintf(`Recommend 3 next-step exercises for a patient in rehab.
Profile:
Weeks in therapy: %d
Goal: %s
Progress:
Accuracy: %.1f%%
Pain: %s
Strength: %s
Sessions: %d

Output format:
## [Exercise Name]
**Difficulty:** [Beginner/Intermediate/Advanced]
**Why Now:** [short reason]
**Description:** [one sentence description]`,
		profile.WeeksInTherapy, profile.Goal,
		progress.AvgAccuracy, progress.PainLevel, progress.StrengthLevel, progress.Sessions)
}

func discomfortPrompt(painDescription string, data ExerciseData) string {
	return fmt.Sprintf(`Analyze patient discomfort using the face image and data.

Pain description: %q
Reps: %d
Form Accuracy: %.1f%%

Return JSON:
{
  "severity": number (1-10),
  "shouldPause": boolean,
  "recommendation": string
}`, painDescription, data.Reps, data.FormAccuracy)
}

func formatAngle(angle *float64) string {
	if angle == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f°", *angle)
}

// analyzeFSRPattern classifies muscle activation consistency from the
// spread of force readings relative to their mean.
func analyzeFSRPattern(readings []float64) string {
	if len(readings) == 0 {
		return "No data"
	}

	var sum float64
	for _, v := range readings {
		sum += v
	}
	avg := sum / float64(len(readings))

	var variance float64
	for _, v := range readings {
		variance += (v - avg) * (v - avg)
	}
	std := math.Sqrt(variance / float64(len(readings)))

	switch {
	case std < avg*0.2:
		return "Consistent activation"
	case std < avg*0.4:
		return "Moderate variation"
	default:
		return "High variation detected"
	}
}

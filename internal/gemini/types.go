package gemini

// PoseData carries the pose-estimation snapshot sent with analysis requests.
// Joint angles are optional; the patient page only reports the ones it tracks.
type PoseData struct {
	Reps          int      `json:"reps"`
	FormAccuracy  float64  `json:"formAccuracy"`
	ElbowAngle    *float64 `json:"elbowAngle,omitempty"`
	ShoulderAngle *float64 `json:"shoulderAngle,omitempty"`
	HipAngle      *float64 `json:"hipAngle,omitempty"`
}

// SessionData summarizes one completed exercise session for report generation.
type SessionData struct {
	TotalReps     int       `json:"totalReps"`
	AvgAccuracy   float64   `json:"avgAccuracy"`
	MaxAccuracy   float64   `json:"maxAccuracy"`
	MinAccuracy   float64   `json:"minAccuracy"`
	FSRReadings   []float64 `json:"fsrReadings"`
	AvgFSRReading float64   `json:"avgFsrReading"`
	PoorFormReps  []int     `json:"poorFormReps"`
	Duration      float64   `json:"duration"` // seconds
	PatientName   string    `json:"patientName,omitempty"`
}

// FormAnalysis is the structured result of an image-based form check.
type FormAnalysis struct {
	Feedback    string   `json:"feedback"`
	RiskLevel   string   `json:"riskLevel"` // low, medium, high
	Tip         string   `json:"tip"`
	Corrections []string `json:"corrections"`
}

// SessionContext is the live session state attached to chat turns.
type SessionContext struct {
	Reps         int     `json:"reps"`
	FormAccuracy float64 `json:"formAccuracy"`
	Active       bool    `json:"active"`
}

// RepSample is one rep's accuracy and force reading for anomaly detection.
type RepSample struct {
	Rep      int     `json:"rep"`
	Accuracy float64 `json:"accuracy"`
	FSRValue float64 `json:"fsrValue"`
}

// AnomalyResult is the structured outcome of anomaly detection.
type AnomalyResult struct {
	IsAnomalous bool   `json:"isAnomalous"`
	Alert       string `json:"alert"`
	Severity    string `json:"severity"` // info, warning, critical
}

// PatientProfile describes the patient for exercise recommendations.
type PatientProfile struct {
	WeeksInTherapy int    `json:"weeksInTherapy"`
	Goal           string `json:"goal"`
}

// ProgressData describes rehabilitation progress for exercise recommendations.
type ProgressData struct {
	AvgAccuracy   float64 `json:"avgAccuracy"`
	Sessions      int     `json:"sessions"`
	StrengthLevel string  `json:"strengthLevel"`
	Consistency   string  `json:"consistency"`
	PainLevel     string  `json:"painLevel"`
}

// ExerciseData is the minimal exercise state attached to discomfort assessments.
type ExerciseData struct {
	Reps         int     `json:"reps"`
	FormAccuracy float64 `json:"formAccuracy"`
}

// DiscomfortAssessment is the structured outcome of a discomfort check.
type DiscomfortAssessment struct {
	Severity       int    `json:"severity"` // 1-10
	ShouldPause    bool   `json:"shouldPause"`
	Recommendation string `json:"recommendation"`
}

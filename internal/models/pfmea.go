package models

import "time"

// Risk levels derived from the risk priority number.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

const PFMEAStatusOpen = "OPEN"

// PFMEAItem is a process failure mode and effects analysis row attached to an inspection.
type PFMEAItem struct {
	ID               string    `json:"id"`
	InspectionID     string    `json:"inspectionId"`
	EquipmentID      string    `json:"equipmentId"`
	ClientID         string    `json:"clientId"`
	FailureMode      string    `json:"failureMode"`
	FailureCause     string    `json:"failureCause"`
	FailureEffect    string    `json:"failureEffect"`
	ExistingControls *string   `json:"existingControls,omitempty"`
	Severity         int       `json:"severity"`
	Occurrence       int       `json:"occurrence"`
	Detection        int       `json:"detection"`
	RPN              int       `json:"rpn"`
	RiskLevel        string    `json:"riskLevel"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ClampScore limits a PFMEA score to 1..10.
func ClampScore(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// CalcRPN returns severity × occurrence × detection with each score clamped.
func CalcRPN(severity, occurrence, detection int) int {
	return ClampScore(severity) * ClampScore(occurrence) * ClampScore(detection)
}

// RiskLevelFromRPN buckets an RPN into a risk level.
func RiskLevelFromRPN(rpn int) string {
	switch {
	case rpn >= 200:
		return RiskCritical
	case rpn >= 100:
		return RiskHigh
	case rpn >= 50:
		return RiskMedium
	default:
		return RiskLow
	}
}

package models

import (
	"testing"
)

func TestCalcRPN(t *testing.T) {
	tests := []struct {
		name                            string
		severity, occurrence, detection int
		expected                        int
	}{
		{name: "in range", severity: 5, occurrence: 4, detection: 3, expected: 60},
		{name: "max scores", severity: 10, occurrence: 10, detection: 10, expected: 1000},
		{name: "clamped high", severity: 15, occurrence: 2, detection: 1, expected: 20},
		{name: "clamped low", severity: 0, occurrence: -3, detection: 7, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalcRPN(tt.severity, tt.occurrence, tt.detection); got != tt.expected {
				t.Errorf("CalcRPN(%d, %d, %d) = %d, want %d", tt.severity, tt.occurrence, tt.detection, got, tt.expected)
			}
		})
	}
}

func TestRiskLevelFromRPN(t *testing.T) {
	tests := []struct {
		rpn      int
		expected string
	}{
		{1, RiskLow},
		{49, RiskLow},
		{50, RiskMedium},
		{99, RiskMedium},
		{100, RiskHigh},
		{199, RiskHigh},
		{200, RiskCritical},
		{1000, RiskCritical},
	}

	for _, tt := range tests {
		if got := RiskLevelFromRPN(tt.rpn); got != tt.expected {
			t.Errorf("RiskLevelFromRPN(%d) = %s, want %s", tt.rpn, got, tt.expected)
		}
	}
}

func TestCompliancePct(t *testing.T) {
	tests := []struct {
		compliant, total, expected int
	}{
		{0, 0, 100},
		{3, 3, 100},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
	}

	for _, tt := range tests {
		if got := CompliancePct(tt.compliant, tt.total); got != tt.expected {
			t.Errorf("CompliancePct(%d, %d) = %d, want %d", tt.compliant, tt.total, got, tt.expected)
		}
	}
}

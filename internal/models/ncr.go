package models

import "time"

// NCR categories
const (
	NCRCategoryMajor       = "MAJOR"
	NCRCategoryMinor       = "MINOR"
	NCRCategoryObservation = "OBSERVATION"
)

// NCR statuses
const (
	NCRStatusOpen       = "OPEN"
	NCRStatusInProgress = "IN_PROGRESS"
	NCRStatusClosed     = "CLOSED"
)

// NCR is a non-conformance report raised against a piece of equipment.
type NCR struct {
	ID          string     `json:"id"`
	NCRCode     string     `json:"ncrCode"`
	ClientID    string     `json:"clientId"`
	EquipmentID string     `json:"equipmentId"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

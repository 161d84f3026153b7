package models

import "time"

const InspectionStatusSubmitted = "SUBMITTED"

type Inspection struct {
	ID                    string     `json:"id"`
	InspectionCode        string     `json:"inspectionCode"`
	EquipmentID           string     `json:"equipmentId"`
	ClientID              string     `json:"clientId"`
	SiteID                *string    `json:"siteId,omitempty"`
	InspectorID           string     `json:"inspectorId"`
	Type                  string     `json:"type"`
	DatePerformed         time.Time  `json:"datePerformed"`
	FindingsText          *string    `json:"findingsText,omitempty"`
	NonConformance        bool       `json:"nonConformance"`
	CertificateIssued     bool       `json:"certificateIssued"`
	CertificateExpiryDate *time.Time `json:"certificateExpiryDate,omitempty"`
	Status                string     `json:"status"`
	CreatedAt             time.Time  `json:"createdAt"`
}

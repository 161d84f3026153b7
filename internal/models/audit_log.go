package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Audit actions
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLoginFailed      = "LOGIN_FAILED"
	AuditActionAccountLocked    = "ACCOUNT_LOCKED"
	AuditActionLogout           = "LOGOUT"
	AuditActionLogoutAll        = "LOGOUT_ALL"
	AuditActionUserCreate       = "USER_CREATE"
	AuditActionUserStatusUpdate = "USER_STATUS_UPDATE"
	AuditActionPasswordReset    = "USER_PASSWORD_RESET"
	AuditActionClientCreate     = "CLIENT_CREATE"
	AuditActionEquipmentCreate  = "EQUIPMENT_CREATE"
	AuditActionInspectionCreate = "INSPECTION_CREATE"
	AuditActionPFMEACreate      = "PFMEA_CREATE"
	AuditActionNCRCreate        = "NCR_CREATE"
	AuditActionNCRUpdate        = "NCR_UPDATE"
)

// Entity types
const (
	AuditEntityUser       = "User"
	AuditEntityClient     = "Client"
	AuditEntityEquipment  = "Equipment"
	AuditEntityInspection = "Inspection"
	AuditEntityPFMEA      = "PfmeaItem"
	AuditEntityNCR        = "Ncr"
)

type AuditLog struct {
	ID         string        `json:"id"`
	UserID     *string       `json:"userId,omitempty"`
	Action     string        `json:"action"`
	EntityType *string       `json:"entityType,omitempty"`
	EntityID   *string       `json:"entityId,omitempty"`
	IP         *string       `json:"ip,omitempty"`
	UserAgent  *string       `json:"userAgent,omitempty"`
	Metadata   AuditMetadata `json:"metadata,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// AuditEntry is the input for recording an audit log row.
type AuditEntry struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	IP         string
	UserAgent  string
	Metadata   AuditMetadata
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(am))
}

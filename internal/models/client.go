package models

import "time"

// Client categories
const (
	ClientCategoryMine         = "MINE"
	ClientCategoryIndustrial   = "INDUSTRIAL"
	ClientCategoryConstruction = "CONSTRUCTION"
)

// Client statuses
const (
	ClientStatusActive    = "ACTIVE"
	ClientStatusInactive  = "INACTIVE"
	ClientStatusSuspended = "SUSPENDED"
)

// Client is an inspected organisation and the tenant boundary for CLIENT accounts.
type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

package models

import "time"

type Equipment struct {
	ID                string     `json:"id"`
	EquipmentCode     string     `json:"equipmentCode"`
	ClientID          string     `json:"clientId"`
	SiteID            *string    `json:"siteId,omitempty"`
	Type              string     `json:"type"`
	SerialNumber      string     `json:"serialNumber"`
	Manufacturer      *string    `json:"manufacturer,omitempty"`
	YearOfManufacture *int       `json:"yearOfManufacture,omitempty"`
	CountryOfOrigin   *string    `json:"countryOfOrigin,omitempty"`
	SWL               *float64   `json:"swl,omitempty"`
	MAWP              *float64   `json:"mawp,omitempty"`
	DesignPressure    *float64   `json:"designPressure,omitempty"`
	TestPressure      *float64   `json:"testPressure,omitempty"`
	PublicCode        string     `json:"publicCode"`
	LastInspectedAt   *time.Time `json:"lastInspectedAt,omitempty"`
	NextDueDate       *time.Time `json:"nextDueDate,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// EquipmentFilter narrows an equipment listing.
type EquipmentFilter struct {
	ClientID *string
	Type     string
	Search   string
	Limit    int
	Offset   int
}

// Page is a paginated listing envelope.
type Page[T any] struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Items      []T `json:"items"`
}

// NewPage builds a Page, reporting at least one page even when empty.
func NewPage[T any](page, pageSize, total int, items []T) Page[T] {
	totalPages := 1
	if pageSize > 0 && total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Items:      items,
	}
}

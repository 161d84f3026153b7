package models

// DashboardKPIs are the headline counters for the dashboard.
type DashboardKPIs struct {
	TotalClients     int `json:"totalClients"`
	TotalEquipment   int `json:"totalEquipment"`
	Expiring30       int `json:"expiring30"`
	Expiring15       int `json:"expiring15"`
	ExpiredEquipment int `json:"expiredEquipment"`
	OpenNCRs         int `json:"openNcrs"`
	HighRiskPFMEA    int `json:"highRiskPfmea"`
	CompliancePct    int `json:"compliancePct"`
}

// MonthlyCount is the number of inspections performed in a calendar month (YYYY-MM).
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CompliancePct rounds compliant/total to a whole percentage; no equipment is 100%.
func CompliancePct(compliant, total int) int {
	if total == 0 {
		return 100
	}
	return (compliant*100*2 + total) / (total * 2)
}

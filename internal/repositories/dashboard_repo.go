package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/models"
)

// highRiskLevels are the PFMEA risk levels counted as high risk on the dashboard.
var highRiskLevels = []string{models.RiskHigh, models.RiskCritical}

// DashboardRepository runs the aggregate queries behind the dashboard.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

func NewDashboardRepository(db *database.DB) *DashboardRepository {
	return &DashboardRepository{pool: db.Pool}
}

// DashboardCounts are the raw counts the KPI figures are derived from.
type DashboardCounts struct {
	TotalClients     int
	TotalEquipment   int
	Expiring30       int
	Expiring15       int
	ExpiredEquipment int
	Compliant        int
	OpenNCRs         int
	HighRiskPFMEA    int
}

// Counts computes the dashboard counters at now. A non-nil clientID limits every count to that tenant.
func (r *DashboardRepository) Counts(ctx context.Context, clientID *string, now time.Time) (*DashboardCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM clients WHERE ($1::uuid IS NULL OR id = $1::uuid)),
			(SELECT COUNT(*) FROM equipment WHERE ($1::uuid IS NULL OR client_id = $1::uuid)),
			(SELECT COUNT(*) FROM equipment WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
				AND next_due_date >= $2 AND next_due_date <= $2 + INTERVAL '30 days'),
			(SELECT COUNT(*) FROM equipment WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
				AND next_due_date >= $2 AND next_due_date <= $2 + INTERVAL '15 days'),
			(SELECT COUNT(*) FROM equipment WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
				AND next_due_date < $2),
			(SELECT COUNT(*) FROM equipment WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
				AND (next_due_date IS NULL OR next_due_date >= $2)),
			(SELECT COUNT(*) FROM ncrs WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
				AND status <> 'CLOSED'),
			(SELECT COUNT(*) FROM pfmea_items WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
				AND risk_level = ANY($3::text[]))
	`

	var c DashboardCounts
	err := r.pool.QueryRow(ctx, query, clientID, now, pq.Array(highRiskLevels)).Scan(
		&c.TotalClients, &c.TotalEquipment, &c.Expiring30, &c.Expiring15,
		&c.ExpiredEquipment, &c.Compliant, &c.OpenNCRs, &c.HighRiskPFMEA,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dashboard counts: %w", database.MapPostgresError(err))
	}
	return &c, nil
}

// InspectionsByMonth counts inspections per calendar month in [from, to).
// Months without inspections are absent from the result.
func (r *DashboardRepository) InspectionsByMonth(ctx context.Context, clientID *string, from, to time.Time) (map[string]int, error) {
	query := `
		SELECT to_char(date_trunc('month', date_performed AT TIME ZONE 'UTC'), 'YYYY-MM') AS month, COUNT(*)
		FROM inspections
		WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
		  AND date_performed >= $2 AND date_performed < $3
		GROUP BY month
	`

	rows, err := r.pool.Query(ctx, query, clientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspections by month: %w", database.MapPostgresError(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var month string
		var n int
		if err := rows.Scan(&month, &n); err != nil {
			return nil, fmt.Errorf("failed to scan month count: %w", err)
		}
		counts[month] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating month counts: %w", err)
	}
	return counts, nil
}

package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/models"
)

type PFMEARepository struct {
	pool *pgxpool.Pool
}

func NewPFMEARepository(db *database.DB) *PFMEARepository {
	return &PFMEARepository{pool: db.Pool}
}

const pfmeaColumns = `id, inspection_id, equipment_id, client_id, failure_mode, failure_cause, failure_effect,
	existing_controls, severity, occurrence, detection, rpn, risk_level, status, created_at`

func scanPFMEARow(row rowScanner) (*models.PFMEAItem, error) {
	var p models.PFMEAItem
	err := row.Scan(
		&p.ID, &p.InspectionID, &p.EquipmentID, &p.ClientID, &p.FailureMode, &p.FailureCause, &p.FailureEffect,
		&p.ExistingControls, &p.Severity, &p.Occurrence, &p.Detection, &p.RPN, &p.RiskLevel, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &p, nil
}

func scanPFMEARows(rows pgx.Rows) ([]*models.PFMEAItem, error) {
	defer rows.Close()

	items := make([]*models.PFMEAItem, 0)
	for rows.Next() {
		p, err := scanPFMEARow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pfmea item: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pfmea rows: %w", err)
	}
	return items, nil
}

func (r *PFMEARepository) ListByInspection(ctx context.Context, inspectionID string) ([]*models.PFMEAItem, error) {
	query := `SELECT ` + pfmeaColumns + ` FROM pfmea_items WHERE inspection_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pfmea items: %w", database.MapPostgresError(err))
	}
	return scanPFMEARows(rows)
}

func (r *PFMEARepository) Create(ctx context.Context, p *models.PFMEAItem) (*models.PFMEAItem, error) {
	query := `
		INSERT INTO pfmea_items (
			inspection_id, equipment_id, client_id, failure_mode, failure_cause, failure_effect,
			existing_controls, severity, occurrence, detection, rpn, risk_level, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + pfmeaColumns

	return scanPFMEARow(r.pool.QueryRow(ctx, query,
		p.InspectionID, p.EquipmentID, p.ClientID, p.FailureMode, p.FailureCause, p.FailureEffect,
		p.ExistingControls, p.Severity, p.Occurrence, p.Detection, p.RPN, p.RiskLevel, p.Status,
	))
}

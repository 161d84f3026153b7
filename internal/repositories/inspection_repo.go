package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/models"
)

type InspectionRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewInspectionRepository(db *database.DB) *InspectionRepository {
	return &InspectionRepository{db: db, pool: db.Pool}
}

const inspectionColumns = `id, inspection_code, equipment_id, client_id, site_id, inspector_id, type,
	date_performed, findings_text, non_conformance, certificate_issued, certificate_expiry_date,
	status, created_at`

func scanInspectionRow(row rowScanner) (*models.Inspection, error) {
	var i models.Inspection
	err := row.Scan(
		&i.ID, &i.InspectionCode, &i.EquipmentID, &i.ClientID, &i.SiteID, &i.InspectorID, &i.Type,
		&i.DatePerformed, &i.FindingsText, &i.NonConformance, &i.CertificateIssued, &i.CertificateExpiryDate,
		&i.Status, &i.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &i, nil
}

func scanInspectionRows(rows pgx.Rows) ([]*models.Inspection, error) {
	defer rows.Close()

	items := make([]*models.Inspection, 0)
	for rows.Next() {
		i, err := scanInspectionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inspection rows: %w", err)
	}
	return items, nil
}

// List returns the most recent inspections by date performed.
func (r *InspectionRepository) List(ctx context.Context, clientID *string, limit int) ([]*models.Inspection, error) {
	query := `
		SELECT ` + inspectionColumns + `
		FROM inspections
		WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
		ORDER BY date_performed DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inspections: %w", database.MapPostgresError(err))
	}
	return scanInspectionRows(rows)
}

func (r *InspectionRepository) GetByID(ctx context.Context, id string) (*models.Inspection, error) {
	return scanInspectionRow(r.pool.QueryRow(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE id = $1`, id))
}

// LatestForEquipment returns the most recent inspection of an equipment item, or ErrNotFound.
func (r *InspectionRepository) LatestForEquipment(ctx context.Context, equipmentID string) (*models.Inspection, error) {
	query := `
		SELECT ` + inspectionColumns + `
		FROM inspections
		WHERE equipment_id = $1
		ORDER BY date_performed DESC
		LIMIT 1
	`
	return scanInspectionRow(r.pool.QueryRow(ctx, query, equipmentID))
}

// Create inserts the inspection and updates the equipment's lastInspectedAt
// and nextDueDate in one transaction.
func (r *InspectionRepository) Create(ctx context.Context, in *models.Inspection) (*models.Inspection, error) {
	query := `
		INSERT INTO inspections (
			inspection_code, equipment_id, client_id, site_id, inspector_id, type, date_performed,
			findings_text, non_conformance, certificate_issued, certificate_expiry_date, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + inspectionColumns

	var created *models.Inspection
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var err error
		created, err = scanInspectionRow(tx.QueryRow(ctx, query,
			in.InspectionCode, in.EquipmentID, in.ClientID, in.SiteID, in.InspectorID, in.Type, in.DatePerformed,
			in.FindingsText, in.NonConformance, in.CertificateIssued, in.CertificateExpiryDate, in.Status,
		))
		if err != nil {
			return err
		}

		nextDue := created.CertificateExpiryDate
		if !created.CertificateIssued {
			nextDue = nil
		}
		return updateInspectionDates(ctx, tx, created.EquipmentID, created.DatePerformed, nextDue)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

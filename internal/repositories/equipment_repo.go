package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/models"
)

type EquipmentRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentRepository(db *database.DB) *EquipmentRepository {
	return &EquipmentRepository{pool: db.Pool}
}

const equipmentColumns = `id, equipment_code, client_id, site_id, type, serial_number, manufacturer,
	year_of_manufacture, country_of_origin, swl, mawp, design_pressure, test_pressure,
	public_code, last_inspected_at, next_due_date, created_at, updated_at`

func scanEquipmentRow(row rowScanner) (*models.Equipment, error) {
	var e models.Equipment
	err := row.Scan(
		&e.ID, &e.EquipmentCode, &e.ClientID, &e.SiteID, &e.Type, &e.SerialNumber, &e.Manufacturer,
		&e.YearOfManufacture, &e.CountryOfOrigin, &e.SWL, &e.MAWP, &e.DesignPressure, &e.TestPressure,
		&e.PublicCode, &e.LastInspectedAt, &e.NextDueDate, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &e, nil
}

func scanEquipmentRows(rows pgx.Rows) ([]*models.Equipment, error) {
	defer rows.Close()

	items := make([]*models.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating equipment rows: %w", err)
	}
	return items, nil
}

const equipmentFilterClause = `
	WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
	  AND ($2::text = '' OR type = $2::text)
	  AND ($3::text = '' OR serial_number ILIKE '%' || $3::text || '%' OR equipment_code ILIKE '%' || $3::text || '%')
`

// List returns one page of equipment matching f, newest first, and the total match count.
func (r *EquipmentRepository) List(ctx context.Context, f models.EquipmentFilter) ([]*models.Equipment, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM equipment` + equipmentFilterClause
	if err := r.pool.QueryRow(ctx, countQuery, f.ClientID, f.Type, f.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count equipment: %w", database.MapPostgresError(err))
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment` + equipmentFilterClause + `
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := r.pool.Query(ctx, query, f.ClientID, f.Type, f.Search, f.Limit, f.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query equipment: %w", database.MapPostgresError(err))
	}

	items, err := scanEquipmentRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*models.Equipment, error) {
	return scanEquipmentRow(r.pool.QueryRow(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE id = $1`, id))
}

func (r *EquipmentRepository) GetByPublicCode(ctx context.Context, code string) (*models.Equipment, error) {
	return scanEquipmentRow(r.pool.QueryRow(ctx, `SELECT `+equipmentColumns+` FROM equipment WHERE public_code = $1`, code))
}

func (r *EquipmentRepository) Create(ctx context.Context, e *models.Equipment) (*models.Equipment, error) {
	query := `
		INSERT INTO equipment (
			equipment_code, client_id, site_id, type, serial_number, manufacturer,
			year_of_manufacture, country_of_origin, swl, mawp, design_pressure, test_pressure, public_code
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + equipmentColumns

	return scanEquipmentRow(r.pool.QueryRow(ctx, query,
		e.EquipmentCode, e.ClientID, e.SiteID, e.Type, e.SerialNumber, e.Manufacturer,
		e.YearOfManufacture, e.CountryOfOrigin, e.SWL, e.MAWP, e.DesignPressure, e.TestPressure, e.PublicCode,
	))
}

// updateInspectionDates stamps the latest inspection onto its equipment.
// nextDue is left unchanged when nil.
func updateInspectionDates(ctx context.Context, q database.Querier, equipmentID string, inspectedAt time.Time, nextDue *time.Time) error {
	query := `
		UPDATE equipment
		SET last_inspected_at = $2,
		    next_due_date = COALESCE($3, next_due_date),
		    updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, equipmentID, inspectedAt, nextDue)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

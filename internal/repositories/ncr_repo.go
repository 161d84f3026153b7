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

type NCRRepository struct {
	pool *pgxpool.Pool
}

func NewNCRRepository(db *database.DB) *NCRRepository {
	return &NCRRepository{pool: db.Pool}
}

const ncrColumns = `id, ncr_code, client_id, equipment_id, category, description, status,
	due_date, closed_at, created_at, updated_at`

func scanNCRRow(row rowScanner) (*models.NCR, error) {
	var n models.NCR
	err := row.Scan(
		&n.ID, &n.NCRCode, &n.ClientID, &n.EquipmentID, &n.Category, &n.Description, &n.Status,
		&n.DueDate, &n.ClosedAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &n, nil
}

func scanNCRRows(rows pgx.Rows) ([]*models.NCR, error) {
	defer rows.Close()

	items := make([]*models.NCR, 0)
	for rows.Next() {
		n, err := scanNCRRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ncr: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ncr rows: %w", err)
	}
	return items, nil
}

func (r *NCRRepository) List(ctx context.Context, clientID *string, limit int) ([]*models.NCR, error) {
	query := `
		SELECT ` + ncrColumns + `
		FROM ncrs
		WHERE ($1::uuid IS NULL OR client_id = $1::uuid)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ncrs: %w", database.MapPostgresError(err))
	}
	return scanNCRRows(rows)
}

func (r *NCRRepository) GetByID(ctx context.Context, id string) (*models.NCR, error) {
	return scanNCRRow(r.pool.QueryRow(ctx, `SELECT `+ncrColumns+` FROM ncrs WHERE id = $1`, id))
}

func (r *NCRRepository) Create(ctx context.Context, n *models.NCR) (*models.NCR, error) {
	query := `
		INSERT INTO ncrs (ncr_code, client_id, equipment_id, category, description, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + ncrColumns

	return scanNCRRow(r.pool.QueryRow(ctx, query,
		n.NCRCode, n.ClientID, n.EquipmentID, n.Category, n.Description, n.Status, n.DueDate,
	))
}

// UpdateStatus sets the status; closedAt is set for CLOSED and cleared otherwise.
func (r *NCRRepository) UpdateStatus(ctx context.Context, id, status string, closedAt *time.Time) (*models.NCR, error) {
	query := `
		UPDATE ncrs
		SET status = $2, closed_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + ncrColumns

	return scanNCRRow(r.pool.QueryRow(ctx, query, id, status, closedAt))
}

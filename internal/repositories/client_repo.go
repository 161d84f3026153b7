package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/models"
)

type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(db *database.DB) *ClientRepository {
	return &ClientRepository{pool: db.Pool}
}

const clientColumns = `id, name, category, status, notes, created_at, updated_at`

func scanClientRow(row rowScanner) (*models.Client, error) {
	var c models.Client
	if err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func scanClientRows(rows pgx.Rows) ([]*models.Client, error) {
	defer rows.Close()

	clients := make([]*models.Client, 0)
	for rows.Next() {
		c, err := scanClientRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}
	return clients, nil
}

// List returns clients ordered by name. A non-nil clientID limits the result to that client.
func (r *ClientRepository) List(ctx context.Context, clientID *string) ([]*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE ($1::uuid IS NULL OR id = $1::uuid)
		ORDER BY name ASC
	`

	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", database.MapPostgresError(err))
	}
	return scanClientRows(rows)
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	return scanClientRow(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	query := `
		INSERT INTO clients (name, category, status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + clientColumns

	return scanClientRow(r.pool.QueryRow(ctx, query, c.Name, c.Category, c.Status, c.Notes))
}

package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monroy-qms/api/internal/database"
	"github.com/monroy-qms/api/internal/models"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const userColumns = `id, email, password_hash, name, role, tenant_id, status,
	failed_login_count, lock_until, last_login_at, last_login_ip, created_at, updated_at`

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.TenantID, &user.Status,
		&user.FailedLoginCount, &user.LockUntil, &user.LastLoginAt, &user.LastLoginIP,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail matches case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUserRow(r.pool.QueryRow(ctx, query, strings.TrimSpace(email)))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// Create inserts a user. A duplicate email returns models.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Status == "" {
		user.Status = models.StatusActive
	}

	query := `
		INSERT INTO users (email, password_hash, name, role, tenant_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.pool.QueryRow(ctx, query,
		strings.ToLower(strings.TrimSpace(user.Email)), user.PasswordHash, user.Name,
		user.Role, user.TenantID, user.Status,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateLoginState writes the lockout fields in a single statement.
func (r *UserRepository) UpdateLoginState(ctx context.Context, id string, s models.LoginState) error {
	query := `
		UPDATE users
		SET status = $2, failed_login_count = $3, lock_until = $4,
		    last_login_at = $5, last_login_ip = $6, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, s.Status, s.FailedLoginCount, s.LockUntil, s.LastLoginAt, s.LastLoginIP)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SwapLoginState writes next only while the stored status and lock_until
// still equal expected. It returns models.ErrConflict when they changed since
// expected was read, for example when an administrator disabled the account
// during a login.
func (r *UserRepository) SwapLoginState(ctx context.Context, id string, expected, next models.LoginState) error {
	query := `
		UPDATE users
		SET status = $2, failed_login_count = $3, lock_until = $4,
		    last_login_at = $5, last_login_ip = $6, updated_at = NOW()
		WHERE id = $1 AND status = $7 AND lock_until IS NOT DISTINCT FROM $8::timestamptz
	`

	tag, err := r.pool.Exec(ctx, query, id, next.Status, next.FailedLoginCount, next.LockUntil,
		next.LastLoginAt, next.LastLoginIP, expected.Status, expected.LockUntil)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return models.ErrConflict
	}
	return nil
}

// UpdatePassword replaces the password hash and clears any lockout.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, failed_login_count = 0, lock_until = NULL,
		    status = CASE WHEN status = 'LOCKED' THEN 'ACTIVE' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

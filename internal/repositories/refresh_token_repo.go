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

// RefreshTokenRepository stores hashed refresh tokens. Raw tokens never reach this layer.
type RefreshTokenRepository struct {
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: db.Pool}
}

func scanRefreshTokenRow(row rowScanner) (*models.RefreshToken, error) {
	var t models.RefreshToken
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &t, nil
}

func scanRefreshTokenRows(rows pgx.Rows) ([]*models.RefreshToken, error) {
	defer rows.Close()

	tokens := make([]*models.RefreshToken, 0)
	for rows.Next() {
		t, err := scanRefreshTokenRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refresh token rows: %w", err)
	}
	return tokens, nil
}

func (r *RefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (*models.RefreshToken, error) {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, token_hash, created_at, expires_at, revoked_at
	`
	return scanRefreshTokenRow(r.pool.QueryRow(ctx, query, userID, tokenHash, expiresAt))
}

// ListActiveByUser returns up to limit unrevoked, unexpired records, newest first.
func (r *RefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time, limit int) ([]*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at
		FROM refresh_tokens
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh tokens: %w", database.MapPostgresError(err))
	}
	return scanRefreshTokenRows(rows)
}

// Revoke marks one record revoked. Revoking an already revoked record is a no-op.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", database.MapPostgresError(err))
	}
	return nil
}

// RevokeAllForUser revokes every live record of a user and returns how many changed.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", database.MapPostgresError(err))
	}
	return tag.RowsAffected(), nil
}

// RevokeBeyond revokes every unrevoked record of userID except the keep newest
// live ones, the same rows ListActiveByUser returns for that limit.
func (r *RefreshTokenRepository) RevokeBeyond(ctx context.Context, userID string, keep int, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET revoked_at = $3
		WHERE user_id = $1 AND revoked_at IS NULL
		  AND id NOT IN (
			SELECT id FROM refresh_tokens
			WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT $2
		  )`,
		userID, keep, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens beyond window: %w", database.MapPostgresError(err))
	}
	return tag.RowsAffected(), nil
}

// DeleteStale removes records that expired or were revoked before cutoff.
func (r *RefreshTokenRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

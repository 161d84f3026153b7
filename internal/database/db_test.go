package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/monroy-qms/api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "nil", err: nil, expected: nil},
		{name: "no rows", err: pgx.ErrNoRows, expected: models.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), expected: models.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, expected: models.ErrConflict},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, expected: models.ErrBadRequest},
		{name: "not null violation", err: &pgconn.PgError{Code: "23502"}, expected: models.ErrBadRequest},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, expected: models.ErrBadRequest},
		{name: "malformed uuid", err: &pgconn.PgError{Code: "22P02"}, expected: models.ErrNotFound},
		{name: "wrapped pg error", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), expected: models.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.err)
			if tt.expected == nil {
				assert.NoError(t, got)
				return
			}
			assert.True(t, errors.Is(got, tt.expected), "got %v", got)
		})
	}
}

func TestMapPostgresError_PassThrough(t *testing.T) {
	orig := errors.New("connection refused")
	assert.Equal(t, orig, MapPostgresError(orig))
}

/**
 * @description
 * Data access layer for the asset service. Every collection of the service
 * lives in its own PostgreSQL table; uniqueness rules are enforced by table
 * constraints and surfaced to callers as ErrDuplicate.
 */
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Repository handles database operations for all collections.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// translateWriteError maps unique_violation to ErrDuplicate, keeping the
// constraint name for logs.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func parseNumeric(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// whereClause joins equality predicates on the non-empty values, numbering
// placeholders from 1.
func whereClause(columns []string, values []string) (string, []any) {
	var (
		parts []string
		args  []any
	)
	for i, column := range columns {
		if values[i] == "" {
			continue
		}
		args = append(args, values[i])
		parts = append(parts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}

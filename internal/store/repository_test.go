package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateWriteError(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "payments_transaction_id_key"}
	other := &pgconn.PgError{Code: "23514", ConstraintName: "packages_employee_limit_check"}

	tests := []struct {
		name          string
		err           error
		wantDuplicate bool
	}{
		{name: "nil", err: nil},
		{name: "unique violation", err: unique, wantDuplicate: true},
		{name: "wrapped unique violation", err: fmt.Errorf("insert: %w", unique), wantDuplicate: true},
		{name: "check violation", err: other},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateWriteError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if errors.Is(got, ErrDuplicate) != tt.wantDuplicate {
				t.Fatalf("expected duplicate=%v, got %v", tt.wantDuplicate, got)
			}
		})
	}
}

func TestWhereClauseSkipsEmptyValues(t *testing.T) {
	where, args := whereClause(requestFilterColumns, []string{"", "hr@x.com", "", "pending"})
	if where != " WHERE hr_email = $1 AND request_status = $2" {
		t.Fatalf("unexpected where clause %q", where)
	}
	if len(args) != 2 || args[0] != "hr@x.com" || args[1] != "pending" {
		t.Fatalf("unexpected args %v", args)
	}

	where, args = whereClause([]string{"role"}, []string{""})
	if where != "" || args != nil {
		t.Fatalf("expected no predicate, got %q %v", where, args)
	}
}

func TestMigrationURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "postgres://u:p@localhost:5432/db?sslmode=disable", want: "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{input: "postgresql://u:p@db/assets", want: "pgx5://u:p@db/assets"},
		{input: "pgx5://u:p@db/assets", want: "pgx5://u:p@db/assets"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := migrationURL(tt.input); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseNumeric(t *testing.T) {
	got, err := parseNumeric("50.00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "50" {
		t.Fatalf("expected 50, got %s", got.String())
	}

	if zero, err := parseNumeric(""); err != nil || !zero.IsZero() {
		t.Fatalf("expected zero for empty input, got %s (%v)", zero, err)
	}

	if _, err := parseNumeric("fifty"); err == nil {
		t.Fatal("expected error for non-numeric input")
	}
}

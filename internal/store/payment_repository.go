package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

const packageColumns = `id, name, employee_limit, price::text, features`

const paymentColumns = `id, transaction_id, hr_email, package_name, employee_limit, amount::text,
	payment_date, status`

func scanPackage(row rowScanner) (*domain.Package, error) {
	var (
		pkg   domain.Package
		price string
	)
	if err := row.Scan(&pkg.ID, &pkg.Name, &pkg.EmployeeLimit, &price, &pkg.Features); err != nil {
		return nil, err
	}
	amount, err := parseNumeric(price)
	if err != nil {
		return nil, fmt.Errorf("invalid package price %q: %w", price, err)
	}
	pkg.Price = amount
	if pkg.Features == nil {
		pkg.Features = []string{}
	}
	return &pkg, nil
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment domain.Payment
		amount  string
	)
	if err := row.Scan(
		&payment.ID,
		&payment.TransactionID,
		&payment.HREmail,
		&payment.PackageName,
		&payment.EmployeeLimit,
		&amount,
		&payment.PaymentDate,
		&payment.Status,
	); err != nil {
		return nil, err
	}
	value, err := parseNumeric(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid payment amount %q: %w", amount, err)
	}
	payment.Amount = value
	return &payment, nil
}

// ListPackages returns every package ordered by price.
func (r *Repository) ListPackages(ctx context.Context) ([]domain.Package, error) {
	rows, err := r.db.Query(ctx, "SELECT "+packageColumns+" FROM packages ORDER BY price, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	packages := []domain.Package{}
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, *pkg)
	}
	return packages, rows.Err()
}

// FindPackageByName returns the package whose name contains name,
// case-insensitively, preferring an exact match.
func (r *Repository) FindPackageByName(ctx context.Context, name string) (*domain.Package, error) {
	query := `SELECT ` + packageColumns + `
		FROM packages
		WHERE name ~* $1
		ORDER BY (LOWER(name) = LOWER($2)) DESC, name
		LIMIT 1`
	pkg, err := scanPackage(r.db.QueryRow(ctx, query, regexp.QuoteMeta(name), name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pkg, nil
}

// RecordSettlement inserts payment and, only if this call inserted it,
// increments the employee limit of the purchased package. Both writes commit
// in one transaction. The unique index on transaction_id arbitrates
// concurrent callers: losers observe recorded == false and change nothing.
// The returned package is nil when no package carries payment.PackageName.
func (r *Repository) RecordSettlement(ctx context.Context, payment *domain.Payment) (pkg *domain.Package, recorded bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO payments (transaction_id, hr_email, package_name, employee_limit, amount, payment_date, status)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING id
	`
	err = tx.QueryRow(ctx, insert,
		payment.TransactionID,
		payment.HREmail,
		payment.PackageName,
		payment.EmployeeLimit,
		payment.Amount.String(),
		payment.PaymentDate,
		payment.Status,
	).Scan(&payment.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || errors.Is(translateWriteError(err), ErrDuplicate) {
			return nil, false, nil
		}
		return nil, false, err
	}

	increment := `
		UPDATE packages
		SET employee_limit = employee_limit + 1
		WHERE name = $1
		RETURNING ` + packageColumns
	pkg, err = scanPackage(tx.QueryRow(ctx, increment, payment.PackageName))
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(translateWriteError(err), ErrDuplicate) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return pkg, true, nil
}

// ListPaymentsByHR returns an organization's payments, newest first.
func (r *Repository) ListPaymentsByHR(ctx context.Context, hrEmail string) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, "SELECT "+paymentColumns+" FROM payments WHERE hr_email = $1 ORDER BY payment_date DESC", hrEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}

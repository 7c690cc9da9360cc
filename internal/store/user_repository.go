package store

import (
	"context"
	"errors"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, COALESCE(role, ''), profile_image, company_name, company_logo,
	date_of_birth, package_name, employee_limit, created_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&role,
		&user.ProfileImage,
		&user.CompanyName,
		&user.CompanyLogo,
		&user.DateOfBirth,
		&user.PackageName,
		&user.EmployeeLimit,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}

// CreateUser inserts a user. A clash on email returns ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (uuid.UUID, error) {
	query := `
		INSERT INTO users (name, email, role, profile_image, company_name, company_logo,
		                   date_of_birth, package_name, employee_limit)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		string(user.Role),
		user.ProfileImage,
		user.CompanyName,
		user.CompanyLogo,
		user.DateOfBirth,
		user.PackageName,
		user.EmployeeLimit,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return uuid.Nil, translateWriteError(err)
	}
	return user.ID, nil
}

// FindUserByEmail retrieves a user by email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users, or only those with role when role is non-empty.
func (r *Repository) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	where, args := whereClause([]string{"role"}, []string{role})
	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM users"+where+" ORDER BY created_at", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateUserProfile sets name and profile image on the user with email.
func (r *Repository) UpdateUserProfile(ctx context.Context, email string, update domain.ProfileUpdate) (domain.UpdateResult, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $2,
		    profile_image = $3
		WHERE email = $1
	`, email, update.Name, update.ProfileImage)
	if err != nil {
		return domain.UpdateResult{}, err
	}
	return domain.UpdateResult{Acknowledged: true, MatchedCount: tag.RowsAffected(), ModifiedCount: tag.RowsAffected()}, nil
}

// GetUserRole returns the stored role for email. Users without a role
// yield an empty role; unknown users yield ErrNotFound.
func (r *Repository) GetUserRole(ctx context.Context, email string) (domain.Role, error) {
	var role string
	err := r.db.QueryRow(ctx, "SELECT COALESCE(role, '') FROM users WHERE email = $1", email).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return domain.Role(role), nil
}

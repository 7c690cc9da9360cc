package app

import (
	"context"
	"errors"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
)

const userExistsMessage = "user already exists"

// CreateUser registers a user. An existing email is rejected with a conflict.
func (s Service) CreateUser(ctx context.Context, user *domain.User) (domain.InsertResult, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return domain.InsertResult{}, invalidRequest("email is required")
	}
	if user.Role != "" && !user.Role.Valid() {
		return domain.InsertResult{}, invalidRequest("unsupported role %q", user.Role)
	}

	_, err := s.repo.FindUserByEmail(ctx, user.Email)
	switch {
	case err == nil:
		return domain.InsertResult{}, conflict(userExistsMessage)
	case !errors.Is(err, store.ErrNotFound):
		return domain.InsertResult{}, storageFailure("find user", err)
	}

	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return domain.InsertResult{}, insertFailure("create user", userExistsMessage, err)
	}
	return domain.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

// GetUser returns the user with email, or nil when there is none.
func (s Service) GetUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	return optional(user, err, "find user")
}

// ListUsers returns every user, optionally restricted to role.
func (s Service) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	users, err := s.repo.ListUsers(ctx, role)
	if err != nil {
		return nil, storageFailure("list users", err)
	}
	return users, nil
}

// UpdateProfile changes the caller's own name and profile image. A target
// email other than the principal is forbidden.
func (s Service) UpdateProfile(ctx context.Context, principal, email string, update domain.ProfileUpdate) (domain.UpdateResult, error) {
	if email != "" && !strings.EqualFold(email, principal) {
		return domain.UpdateResult{}, ErrForbidden
	}

	result, err := s.repo.UpdateUserProfile(ctx, principal, update)
	if err != nil {
		return domain.UpdateResult{}, storageFailure("update profile", err)
	}
	return result, nil
}

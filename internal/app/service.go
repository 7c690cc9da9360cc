/**
 * @description
 * Core business logic for the asset service: users, assets, requests,
 * assignments, affiliations, packages and payment settlement.
 */
package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
	"github.com/google/uuid"
)

// Repository defines the database operations the service needs.
type Repository interface {
	CreateUser(ctx context.Context, user *domain.User) (uuid.UUID, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, role string) ([]domain.User, error)
	UpdateUserProfile(ctx context.Context, email string, update domain.ProfileUpdate) (domain.UpdateResult, error)
	GetUserRole(ctx context.Context, email string) (domain.Role, error)

	CreateAsset(ctx context.Context, asset *domain.Asset) (uuid.UUID, error)
	FindAssetByNameAndCompany(ctx context.Context, productName, companyName string) (*domain.Asset, error)
	GetAssetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error)
	ListAssets(ctx context.Context) ([]domain.Asset, error)
	ListAssetsByHR(ctx context.Context, hrEmail string, limit, offset int) ([]domain.Asset, error)
	CountAssetsByHR(ctx context.Context, hrEmail string) (int64, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, update domain.AssetUpdate) (domain.UpdateResult, error)
	DecrementAssetAvailability(ctx context.Context, id uuid.UUID) (domain.UpdateResult, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) (domain.DeleteResult, error)

	CreateRequest(ctx context.Context, req *domain.AssetRequest) (uuid.UUID, error)
	FindRequest(ctx context.Context, filter domain.RequestFilter) (*domain.AssetRequest, error)
	ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.AssetRequest, error)
	UpdateRequestStatus(ctx context.Context, assetID, status string, approvalDate *time.Time) (domain.UpdateResult, error)
	MarkRequestReturned(ctx context.Context, assetID, requesterEmail string) (domain.UpdateResult, error)

	CreateAssignment(ctx context.Context, a *domain.AssignedAsset) (uuid.UUID, error)
	FindAssignment(ctx context.Context, employeeEmail, assetID string) (*domain.AssignedAsset, error)
	ListAssignments(ctx context.Context, search string) ([]domain.AssignedAsset, error)
	MarkAssignmentReturned(ctx context.Context, id uuid.UUID, returnDate time.Time) (domain.UpdateResult, error)

	CreateAffiliation(ctx context.Context, a *domain.Affiliation) (uuid.UUID, error)
	FindAffiliation(ctx context.Context, employeeEmail, hrEmail string) (*domain.Affiliation, error)
	ListAffiliations(ctx context.Context, filter domain.AffiliationFilter) ([]domain.Affiliation, error)
	ActivateAffiliation(ctx context.Context, employeeEmail, companyName string) (domain.UpdateResult, error)
	DeleteAffiliation(ctx context.Context, employeeEmail, hrEmail string) (domain.DeleteResult, error)

	ListPackages(ctx context.Context) ([]domain.Package, error)
	FindPackageByName(ctx context.Context, name string) (*domain.Package, error)
	RecordSettlement(ctx context.Context, payment *domain.Payment) (*domain.Package, bool, error)
	ListPaymentsByHR(ctx context.Context, hrEmail string) ([]domain.Payment, error)
}

// CheckoutGateway defines the hosted checkout provider.
type CheckoutGateway interface {
	CreateSession(ctx context.Context, amountMinor int64, productName string, metadata map[string]string) (*domain.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error)
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Mailer delivers payment receipts.
type Mailer interface {
	SendPaymentReceipt(ctx context.Context, payment domain.Payment) error
}

// Service provides the business logic for the asset service.
type Service struct {
	repo           Repository
	gateway        CheckoutGateway
	publisher      EventPublisher
	mailer         Mailer
	eventsExchange string
	now            func() time.Time
}

// NewService creates a new asset service.
func NewService(repo Repository, gateway CheckoutGateway, publisher EventPublisher, mailer Mailer, eventsExchange string) Service {
	exchange := strings.TrimSpace(eventsExchange)
	if exchange == "" {
		log.Println("level=warn component=service msg=\"payment events exchange not configured; using default\"")
		exchange = DefaultEventsExchange
	}

	return Service{
		repo:           repo,
		gateway:        gateway,
		publisher:      publisher,
		mailer:         mailer,
		eventsExchange: exchange,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// DefaultEventsExchange receives payment lifecycle events.
const DefaultEventsExchange = "assetverse.payments"

// ResolveRole returns the stored role of principal. Unknown principals and
// users without a role both yield an empty role.
func (s Service) ResolveRole(ctx context.Context, principal string) (domain.Role, error) {
	role, err := s.repo.GetUserRole(ctx, principal)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", storageFailure("resolve role", err)
	}
	return role, nil
}

// Authorize fails closed with ErrForbidden unless principal holds one of allowed.
func (s Service) Authorize(ctx context.Context, principal string, allowed ...domain.Role) (domain.Role, error) {
	if strings.TrimSpace(principal) == "" {
		return "", ErrUnauthorized
	}

	role, err := s.ResolveRole(ctx, principal)
	if err != nil {
		return "", err
	}
	if !role.Valid() {
		return "", ErrForbidden
	}
	for _, candidate := range allowed {
		if role == candidate {
			return role, nil
		}
	}
	return "", ErrForbidden
}

// optional turns a not-found lookup into a nil result.
func optional[T any](value *T, err error, op string) (*T, error) {
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, storageFailure(op, err)
	}
	return value, nil
}

// insertFailure maps a lost uniqueness race to the same conflict as the pre-check.
func insertFailure(op, conflictMessage string, err error) error {
	if errors.Is(err, store.ErrDuplicate) {
		return conflict(conflictMessage)
	}
	return storageFailure(op, err)
}

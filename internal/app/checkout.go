package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
)

// CreateCheckoutSession opens a hosted checkout for a package purchase and
// returns the redirect URL. The gateway is charged in minor units.
func (s Service) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	if req.Amount <= 0 {
		return "", invalidRequest("amount must be positive")
	}
	if strings.TrimSpace(req.PackageName) == "" {
		return "", invalidRequest("packageName is required")
	}

	metadata := map[string]string{
		"hrEmail":       req.HREmail,
		"packageName":   req.PackageName,
		"employeeLimit": strconv.Itoa(req.EmployeeLimit),
	}

	session, err := s.gateway.CreateSession(ctx, req.Amount*100, req.PackageName, metadata)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", ErrUpstreamUnavailable, err)
	}
	return session.URL, nil
}

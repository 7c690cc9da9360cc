/**
 * @description
 * Stripe Checkout gateway used to sell packages and to read back the
 * authoritative state of a checkout session during settlement.
 */
package checkoutclient

import (
	"context"
	"errors"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Config configures the Stripe client.
type Config struct {
	SecretKey  string
	SiteDomain string
	Currency   string
}

// Client creates and retrieves hosted checkout sessions.
type Client struct {
	api        *client.API
	currency   string
	successURL string
	cancelURL  string
}

// NewClient creates a Stripe-backed checkout client.
func NewClient(cfg Config) *Client {
	return newClient(cfg, nil)
}

func newClient(cfg Config, backends *stripe.Backends) *Client {
	api := &client.API{}
	api.Init(cfg.SecretKey, backends)

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	site := strings.TrimSuffix(strings.TrimSpace(cfg.SiteDomain), "/")

	return &Client{
		api:        api,
		currency:   currency,
		successURL: site + "/dashboard/upgrade-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  site + "/dashboard/upgrade-cancelled",
	}
}

// CreateSession opens a one-off payment session for a single line item of
// amountMinor in the configured currency.
func (c *Client) CreateSession(ctx context.Context, amountMinor int64, productName string, metadata map[string]string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.currency),
					UnitAmount: stripe.Int64(amountMinor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.successURL),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.Context = ctx
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, err
	}
	return toDomain(session), nil
}

// RetrieveSession fetches the current state of a checkout session.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, err
	}
	return toDomain(session), nil
}

func toDomain(session *stripe.CheckoutSession) *domain.CheckoutSession {
	result := &domain.CheckoutSession{
		ID:            session.ID,
		URL:           session.URL,
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Metadata:      session.Metadata,
	}
	if session.PaymentIntent != nil {
		result.PaymentIntent = session.PaymentIntent.ID
	}
	if result.Metadata == nil {
		result.Metadata = map[string]string{}
	}
	return result
}

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/google/uuid"
)

// settlementRepoStub keeps payments and packages in memory and enforces the
// same one-payment-per-transaction rule as the payments table.
type settlementRepoStub struct {
	Repository

	mu        sync.Mutex
	payments  map[string]domain.Payment
	packages  map[string]*domain.Package
	recordErr error
}

func newSettlementRepoStub(packages ...domain.Package) *settlementRepoStub {
	repo := &settlementRepoStub{
		payments: map[string]domain.Payment{},
		packages: map[string]*domain.Package{},
	}
	for i := range packages {
		pkg := packages[i]
		repo.packages[pkg.Name] = &pkg
	}
	return repo
}

func (s *settlementRepoStub) RecordSettlement(ctx context.Context, payment *domain.Payment) (*domain.Package, bool, error) {
	if s.recordErr != nil {
		return nil, false, s.recordErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[payment.TransactionID]; exists {
		return nil, false, nil
	}
	payment.ID = uuid.New()
	s.payments[payment.TransactionID] = *payment

	pkg, ok := s.packages[payment.PackageName]
	if !ok {
		return nil, true, nil
	}
	pkg.EmployeeLimit++
	updated := *pkg
	return &updated, true, nil
}

func (s *settlementRepoStub) paymentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payments)
}

func (s *settlementRepoStub) employeeLimit(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.packages[name].EmployeeLimit
}

type gatewayStub struct {
	sessions    map[string]*domain.CheckoutSession
	retrieveErr error

	createdAmount   int64
	createdProduct  string
	createdMetadata map[string]string
}

func (g *gatewayStub) CreateSession(ctx context.Context, amountMinor int64, productName string, metadata map[string]string) (*domain.CheckoutSession, error) {
	g.createdAmount = amountMinor
	g.createdProduct = productName
	g.createdMetadata = metadata
	return &domain.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (g *gatewayStub) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("no such checkout.session: %s", sessionID)
	}
	return session, nil
}

type publisherStub struct {
	mu     sync.Mutex
	events []domain.PaymentSettledEvent
	err    error
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := body.(domain.PaymentSettledEvent); ok {
		p.events = append(p.events, event)
	}
	return p.err
}

type mailerStub struct {
	mu       sync.Mutex
	receipts []string
}

func (m *mailerStub) SendPaymentReceipt(ctx context.Context, payment domain.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, payment.TransactionID)
	return nil
}

func paidSession(intent string) *domain.CheckoutSession {
	return &domain.CheckoutSession{
		ID:            "sess_1",
		PaymentStatus: domain.CheckoutPaid,
		PaymentIntent: intent,
		AmountTotal:   5000,
		Metadata: map[string]string{
			"hrEmail":       "a@x.com",
			"packageName":   "Gold",
			"employeeLimit": "5",
		},
	}
}

func newSettlementService(repo Repository, gateway CheckoutGateway, publisher EventPublisher, mailer Mailer) Service {
	svc := NewService(repo, gateway, publisher, mailer, "assetverse.test")
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestSettlePaymentRecordsPaidSessionOnce(t *testing.T) {
	repo := newSettlementRepoStub(domain.Package{Name: "Gold", EmployeeLimit: 10})
	gateway := &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_1": paidSession("pi_1")}}
	publisher := &publisherStub{}
	mailer := &mailerStub{}
	svc := newSettlementService(repo, gateway, publisher, mailer)

	first, err := svc.SettlePayment(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Success || first.TransactionID != "pi_1" || first.Message != "" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.UpdatedPackage == nil || first.UpdatedPackage.Name != "Gold" || first.UpdatedPackage.EmployeeLimit != 11 {
		t.Fatalf("expected Gold with limit 11, got %+v", first.UpdatedPackage)
	}

	payment := repo.payments["pi_1"]
	if payment.Amount.StringFixed(2) != "50.00" {
		t.Fatalf("expected amount 50.00, got %s", payment.Amount.StringFixed(2))
	}
	if payment.HREmail != "a@x.com" || payment.EmployeeLimit != 5 || payment.Status != domain.PaymentCompleted {
		t.Fatalf("unexpected payment record: %+v", payment)
	}

	second, err := svc.SettlePayment(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if !second.Success || second.Message != "Duplicate payment ignored" || second.TransactionID != "pi_1" || second.UpdatedPackage != nil {
		t.Fatalf("unexpected duplicate result: %+v", second)
	}
	if got := repo.employeeLimit("Gold"); got != 11 {
		t.Fatalf("expected employee limit to stay 11, got %d", got)
	}
	if repo.paymentCount() != 1 {
		t.Fatalf("expected 1 payment, got %d", repo.paymentCount())
	}
	if len(publisher.events) != 1 || len(mailer.receipts) != 1 {
		t.Fatalf("expected one event and one receipt, got %d and %d", len(publisher.events), len(mailer.receipts))
	}
}

func TestSettlePaymentConcurrentCallsIncrementOnce(t *testing.T) {
	repo := newSettlementRepoStub(domain.Package{Name: "Gold", EmployeeLimit: 3})
	gateway := &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_1": paidSession("pi_race")}}
	publisher := &publisherStub{}
	svc := newSettlementService(repo, gateway, publisher, nil)

	const callers = 32
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		winners    int
		duplicates int
		failures   []error
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			result, err := svc.SettlePayment(context.Background(), "sess_1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures = append(failures, err)
			case result.Message == "Duplicate payment ignored":
				duplicates++
			case result.Success:
				winners++
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if winners != 1 || duplicates != callers-1 {
		t.Fatalf("expected 1 winner and %d duplicates, got %d and %d", callers-1, winners, duplicates)
	}
	if repo.paymentCount() != 1 {
		t.Fatalf("expected exactly one payment, got %d", repo.paymentCount())
	}
	if got := repo.employeeLimit("Gold"); got != 4 {
		t.Fatalf("expected employee limit 4, got %d", got)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one settlement event, got %d", len(publisher.events))
	}
}

func TestSettlePaymentUnpaidSessionIsNoOp(t *testing.T) {
	repo := newSettlementRepoStub(domain.Package{Name: "Gold", EmployeeLimit: 10})
	session := paidSession("pi_2")
	session.PaymentStatus = "unpaid"
	gateway := &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_2": session}}
	svc := newSettlementService(repo, gateway, nil, nil)

	result, err := svc.SettlePayment(context.Background(), "sess_2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || result.Message != "Payment not completed" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if repo.paymentCount() != 0 || repo.employeeLimit("Gold") != 10 {
		t.Fatalf("expected no mutation, got %d payments and limit %d", repo.paymentCount(), repo.employeeLimit("Gold"))
	}
}

func TestSettlePaymentFailures(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		gateway   *gatewayStub
		recordErr error
		wantErr   error
	}{
		{
			name:      "missing session id",
			sessionID: "",
			gateway:   &gatewayStub{},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:      "whitespace session id",
			sessionID: "  ",
			gateway:   &gatewayStub{},
			wantErr:   ErrInvalidRequest,
		},
		{
			name:      "gateway unreachable",
			sessionID: "sess_1",
			gateway:   &gatewayStub{retrieveErr: errors.New("dial tcp: i/o timeout")},
			wantErr:   ErrUpstreamUnavailable,
		},
		{
			name:      "paid session without payment intent",
			sessionID: "sess_1",
			gateway:   &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_1": paidSession("")}},
			wantErr:   ErrUpstreamUnavailable,
		},
		{
			name:      "storage failure",
			sessionID: "sess_1",
			gateway:   &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_1": paidSession("pi_1")}},
			recordErr: errors.New("connection reset"),
			wantErr:   ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newSettlementRepoStub(domain.Package{Name: "Gold", EmployeeLimit: 1})
			repo.recordErr = tt.recordErr
			svc := newSettlementService(repo, tt.gateway, nil, nil)

			result, err := svc.SettlePayment(context.Background(), tt.sessionID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got result=%+v err=%v", tt.wantErr, result, err)
			}
			if repo.paymentCount() != 0 {
				t.Fatalf("expected no payment to be recorded, got %d", repo.paymentCount())
			}
		})
	}
}

func TestSettlePaymentWithoutMatchingPackage(t *testing.T) {
	repo := newSettlementRepoStub()
	gateway := &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_1": paidSession("pi_orphan")}}
	svc := newSettlementService(repo, gateway, nil, nil)

	result, err := svc.SettlePayment(context.Background(), "sess_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.UpdatedPackage != nil {
		t.Fatalf("expected success without package, got %+v", result)
	}
	if repo.paymentCount() != 1 {
		t.Fatalf("expected payment to be recorded, got %d", repo.paymentCount())
	}
}

func TestSettlePaymentIgnoresPublishFailure(t *testing.T) {
	repo := newSettlementRepoStub(domain.Package{Name: "Gold"})
	gateway := &gatewayStub{sessions: map[string]*domain.CheckoutSession{"sess_1": paidSession("pi_1")}}
	publisher := &publisherStub{err: errors.New("channel closed")}
	svc := newSettlementService(repo, gateway, publisher, nil)

	result, err := svc.SettlePayment(context.Background(), "sess_1")
	if err != nil || !result.Success {
		t.Fatalf("expected settlement to succeed, got result=%+v err=%v", result, err)
	}
}

func TestParseEmployeeLimit(t *testing.T) {
	tests := map[string]int{
		"5":    5,
		" 12 ": 12,
		"":     0,
		"five": 0,
		"2.5":  0,
	}
	for raw, want := range tests {
		if got := parseEmployeeLimit(raw); got != want {
			t.Errorf("parseEmployeeLimit(%q) = %d, want %d", raw, got, want)
		}
	}
}

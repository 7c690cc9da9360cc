package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/domain"
	"github.com/assetverse/asset-service/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type verifierStub struct {
	tokens map[string]string
}

func (v *verifierStub) Verify(ctx context.Context, token string) (string, error) {
	if principal, ok := v.tokens[token]; ok {
		return principal, nil
	}
	return "", errors.New("token rejected")
}

type apiRepoStub struct {
	app.Repository

	mu sync.Mutex

	roles     map[string]domain.Role
	roleCalls int
	users     map[string]*domain.User

	paymentCalls   int
	historyEmail   string
	requestFilter  *domain.RequestFilter
	affiliationQry *domain.AffiliationFilter
	returnedAsset  string
	recorded       map[string]bool
}

func (s *apiRepoStub) GetUserRole(ctx context.Context, email string) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roleCalls++
	role, ok := s.roles[email]
	if !ok {
		return "", store.ErrNotFound
	}
	return role, nil
}

func (s *apiRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, store.ErrNotFound
}

func (s *apiRepoStub) CreateUser(ctx context.Context, user *domain.User) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (s *apiRepoStub) ListPaymentsByHR(ctx context.Context, hrEmail string) ([]domain.Payment, error) {
	s.paymentCalls++
	s.historyEmail = hrEmail
	return []domain.Payment{{TransactionID: "pi_1", HREmail: hrEmail, Amount: decimal.NewFromInt(15)}}, nil
}

func (s *apiRepoStub) FindRequest(ctx context.Context, filter domain.RequestFilter) (*domain.AssetRequest, error) {
	s.requestFilter = &filter
	return nil, store.ErrNotFound
}

func (s *apiRepoStub) ListRequests(ctx context.Context, filter domain.RequestFilter) ([]domain.AssetRequest, error) {
	s.requestFilter = &filter
	return []domain.AssetRequest{}, nil
}

func (s *apiRepoStub) MarkRequestReturned(ctx context.Context, assetID, requesterEmail string) (domain.UpdateResult, error) {
	s.returnedAsset = assetID
	return domain.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (s *apiRepoStub) ListAffiliations(ctx context.Context, filter domain.AffiliationFilter) ([]domain.Affiliation, error) {
	s.affiliationQry = &filter
	return []domain.Affiliation{}, nil
}

func (s *apiRepoStub) RecordSettlement(ctx context.Context, payment *domain.Payment) (*domain.Package, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recorded == nil {
		s.recorded = map[string]bool{}
	}
	if s.recorded[payment.TransactionID] {
		return nil, false, nil
	}
	s.recorded[payment.TransactionID] = true
	return &domain.Package{Name: payment.PackageName, EmployeeLimit: 6, Features: []string{}}, true, nil
}

type apiGatewayStub struct {
	sessions    map[string]*domain.CheckoutSession
	retrieveErr error
	created     int
}

func (g *apiGatewayStub) CreateSession(ctx context.Context, amountMinor int64, productName string, metadata map[string]string) (*domain.CheckoutSession, error) {
	g.created++
	return &domain.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}

func (g *apiGatewayStub) RetrieveSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	if g.retrieveErr != nil {
		return nil, g.retrieveErr
	}
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return session, nil
}

type limiterStub struct {
	decision app.RateLimitDecision
	err      error
	subjects []string
}

func (l *limiterStub) Allow(ctx context.Context, subject string) (app.RateLimitDecision, error) {
	l.subjects = append(l.subjects, subject)
	return l.decision, l.err
}

type testServer struct {
	repo    *apiRepoStub
	gateway *apiGatewayStub
	limiter *limiterStub
	handler http.Handler
}

func newTestServer() *testServer {
	repo := &apiRepoStub{
		roles: map[string]domain.Role{
			"hr@acme.test":       domain.RoleHR,
			"employee@acme.test": domain.RoleEmployee,
		},
		users: map[string]*domain.User{},
	}
	gateway := &apiGatewayStub{sessions: map[string]*domain.CheckoutSession{}}
	limiter := &limiterStub{decision: app.RateLimitDecision{Allowed: true}}
	verifier := &verifierStub{tokens: map[string]string{
		"hr-token":       "hr@acme.test",
		"employee-token": "employee@acme.test",
		"stranger-token": "stranger@acme.test",
	}}

	service := app.NewService(repo, gateway, nil, nil, "test.payments")
	router := NewRouter(NewHandler(service), verifier, limiter, []string{"http://localhost:5173"})
	return &testServer{repo: repo, gateway: gateway, limiter: limiter, handler: router}
}

func (ts *testServer) do(method, target, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestPipelineRejectsUnauthenticatedBeforeRoleLookup(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "empty bearer", header: "Bearer   "},
		{name: "unknown token", header: "Bearer forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			req := httptest.NewRequest(http.MethodGet, "/payment-history", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			ts.handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if msg := decodeMap(t, rec)["message"]; msg != "unauthorized access" {
				t.Fatalf("unexpected message %v", msg)
			}
			if ts.repo.roleCalls != 0 {
				t.Fatalf("role lookup ran %d times for an unauthenticated request", ts.repo.roleCalls)
			}
			if ts.repo.paymentCalls != 0 {
				t.Fatal("handler ran for a rejected request")
			}
		})
	}
}

func TestPipelineRejectsWrongOrUnknownRole(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		token  string
	}{
		{name: "employee on hr route", method: http.MethodGet, target: "/payment-history", token: "employee-token"},
		{name: "unknown principal", method: http.MethodGet, target: "/payment-history", token: "stranger-token"},
		{name: "hr on employee route", method: http.MethodPatch, target: "/affiliations?companyName=Acme", token: "hr-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			rec := ts.do(tt.method, tt.target, tt.token, "")

			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
			}
			if msg := decodeMap(t, rec)["message"]; msg != "forbidden access" {
				t.Fatalf("unexpected message %v", msg)
			}
			if ts.repo.paymentCalls != 0 {
				t.Fatal("handler ran for a rejected request")
			}
		})
	}
}

func TestPaymentHistoryUsesPrincipal(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodGet, "/payment-history?hrEmail=other@acme.test", "hr-token", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.repo.historyEmail != "hr@acme.test" {
		t.Fatalf("expected history for the caller, got %q", ts.repo.historyEmail)
	}
}

func TestSettlePaymentRoute(t *testing.T) {
	ts := newTestServer()
	ts.gateway.sessions["cs_paid"] = &domain.CheckoutSession{
		ID:            "cs_paid",
		PaymentStatus: domain.CheckoutPaid,
		PaymentIntent: "pi_1",
		AmountTotal:   1500,
		Metadata:      map[string]string{"hrEmail": "hr@acme.test", "packageName": "Basic", "employeeLimit": "5"},
	}
	ts.gateway.sessions["cs_open"] = &domain.CheckoutSession{ID: "cs_open", PaymentStatus: "unpaid"}

	rec := ts.do(http.MethodPatch, "/payment-success?session_id=cs_paid", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeMap(t, rec)
	if body["success"] != true || body["transactionId"] != "pi_1" {
		t.Fatalf("unexpected settlement body %v", body)
	}
	if _, ok := body["updatedPackage"].(map[string]interface{}); !ok {
		t.Fatalf("expected updatedPackage, got %v", body["updatedPackage"])
	}

	rec = ts.do(http.MethodPatch, "/payment-success?session_id=cs_paid", "", "")
	body = decodeMap(t, rec)
	if rec.Code != http.StatusOK || body["message"] != "Duplicate payment ignored" || body["transactionId"] != "pi_1" {
		t.Fatalf("expected duplicate response, got %d %v", rec.Code, body)
	}

	rec = ts.do(http.MethodPatch, "/payment-success?session_id=cs_open", "", "")
	body = decodeMap(t, rec)
	if rec.Code != http.StatusOK || body["success"] != false || body["message"] != "Payment not completed" {
		t.Fatalf("expected incomplete payment response, got %d %v", rec.Code, body)
	}
}

func TestSettlePaymentRouteFailures(t *testing.T) {
	tests := []struct {
		name        string
		target      string
		retrieveErr error
		wantStatus  int
		wantError   string
	}{
		{name: "missing session id", target: "/payment-success", wantStatus: http.StatusBadRequest, wantError: "session_id is required"},
		{name: "blank session id", target: "/payment-success?session_id=%20", wantStatus: http.StatusBadRequest, wantError: "session_id is required"},
		{name: "gateway unreachable", target: "/payment-success?session_id=cs_1", retrieveErr: errors.New("dial tcp: timeout"), wantStatus: http.StatusInternalServerError, wantError: "Payment processing failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.gateway.retrieveErr = tt.retrieveErr

			rec := ts.do(http.MethodPatch, tt.target, "", "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := decodeMap(t, rec)["error"]; got != tt.wantError {
				t.Fatalf("expected error %q, got %v", tt.wantError, got)
			}
			if len(ts.repo.recorded) != 0 {
				t.Fatal("expected no payment to be recorded")
			}
		})
	}
}

func TestCreateUserConflict(t *testing.T) {
	ts := newTestServer()
	ts.repo.users["taken@acme.test"] = &domain.User{Email: "taken@acme.test"}

	rec := ts.do(http.MethodPost, "/users", "", `{"name":"Taken","email":"Taken@acme.test","role":"employee"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg := decodeMap(t, rec)["message"]; msg != "user already exists" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestCreateUserValidation(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodPost, "/users", "", `{"name":"No Email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg, _ := decodeMap(t, rec)["message"].(string); !strings.Contains(msg, "email") {
		t.Fatalf("expected message naming the email field, got %q", msg)
	}
}

func TestCheckoutRateLimit(t *testing.T) {
	body := `{"amount":15,"packageName":"Basic","hrEmail":"hr@acme.test","employeeLimit":5}`

	t.Run("denied", func(t *testing.T) {
		ts := newTestServer()
		ts.limiter.decision = app.RateLimitDecision{Allowed: false, Count: 21, RetryAfter: 42 * time.Second}

		rec := ts.do(http.MethodPost, "/create-checkout-session", "", body)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != "42" {
			t.Fatalf("expected Retry-After 42, got %q", got)
		}
		if ts.gateway.created != 0 {
			t.Fatal("checkout session created despite rate limit")
		}
		if len(ts.limiter.subjects) != 1 || ts.limiter.subjects[0] != "192.0.2.1" {
			t.Fatalf("expected limiter keyed on client address, got %v", ts.limiter.subjects)
		}
	})

	t.Run("limiter failure allows", func(t *testing.T) {
		ts := newTestServer()
		ts.limiter.err = errors.New("redis: connection refused")
		ts.limiter.decision = app.RateLimitDecision{Allowed: true}

		rec := ts.do(http.MethodPost, "/create-checkout-session", "", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if url := decodeMap(t, rec)["url"]; url != "https://checkout.example/cs_test" {
			t.Fatalf("unexpected url %v", url)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		ts := newTestServer()
		rec := ts.do(http.MethodPost, "/create-checkout-session", "", `{"amount":0,"packageName":"Basic","hrEmail":"hr@acme.test"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestListRequestsDispatch(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   domain.RequestFilter
	}{
		{name: "by asset", target: "/requests?assetId=a1&hrEmail=hr@acme.test", want: domain.RequestFilter{AssetID: "a1"}},
		{name: "by hr", target: "/requests?hrEmail=HR@acme.test&requesterEmail=employee@acme.test", want: domain.RequestFilter{HREmail: "hr@acme.test"}},
		{name: "by requester", target: "/requests?requesterEmail=employee@acme.test", want: domain.RequestFilter{RequesterEmail: "employee@acme.test"}},
		{name: "all", target: "/requests", want: domain.RequestFilter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			rec := ts.do(http.MethodGet, tt.target, "employee-token", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if ts.repo.requestFilter == nil || *ts.repo.requestFilter != tt.want {
				t.Fatalf("expected filter %+v, got %+v", tt.want, ts.repo.requestFilter)
			}
		})
	}
}

func TestListAffiliationsFirstFilterWins(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodGet, "/affiliations?companyName=Acme&employeeEmail=employee@acme.test", "hr-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := domain.AffiliationFilter{CompanyName: "Acme"}
	if ts.repo.affiliationQry == nil || *ts.repo.affiliationQry != want {
		t.Fatalf("expected filter %+v, got %+v", want, ts.repo.affiliationQry)
	}
}

func TestEmployeeReturnsOnlyOwnRequest(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodPatch, "/requests?assetId=a1&requesterEmail=someone@acme.test", "employee-token", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if ts.repo.returnedAsset != "" {
		t.Fatal("returned another employee's request")
	}

	rec = ts.do(http.MethodPatch, "/requests?assetId=a1", "employee-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ts.repo.returnedAsset != "a1" {
		t.Fatalf("expected asset a1 returned, got %q", ts.repo.returnedAsset)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

/**
 * @description
 * Domain models for subscription packages, payments and checkout sessions.
 */
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCompleted is the only status a settled payment can carry.
const PaymentCompleted = "completed"

// CheckoutPaid is the gateway payment status of a session that has been paid.
const CheckoutPaid = "paid"

// Package is a purchasable subscription tier. EmployeeLimit is only ever
// incremented by settlement.
type Package struct {
	ID            uuid.UUID       `json:"_id"`
	Name          string          `json:"name"`
	EmployeeLimit int             `json:"employeeLimit"`
	Price         decimal.Decimal `json:"price"`
	Features      []string        `json:"features"`
}

// Payment is the durable record of a settled checkout. TransactionID is
// globally unique; a payment is never updated once written.
type Payment struct {
	ID            uuid.UUID       `json:"_id"`
	TransactionID string          `json:"transactionId"`
	HREmail       string          `json:"hrEmail"`
	PackageName   string          `json:"packageName"`
	EmployeeLimit int             `json:"employeeLimit"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"paymentDate"`
	Status        string          `json:"status"`
}

// CheckoutRequest is the input to creating a hosted checkout session.
// Amount is in whole currency units; the gateway is sent minor units.
type CheckoutRequest struct {
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	PackageName   string `json:"packageName" validate:"required"`
	HREmail       string `json:"hrEmail" validate:"required,email"`
	EmployeeLimit int    `json:"employeeLimit" validate:"gte=0"`
}

// CheckoutSession is the gateway's view of a checkout session.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url,omitempty"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

// SettlementResult is the response body of the settlement endpoint.
type SettlementResult struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message,omitempty"`
	TransactionID  string   `json:"transactionId,omitempty"`
	UpdatedPackage *Package `json:"updatedPackage,omitempty"`
}

// MarshalJSON always emits updatedPackage on a winning settlement, as null
// when no package matched.
func (r SettlementResult) MarshalJSON() ([]byte, error) {
	type plain SettlementResult
	if !r.Success || r.Message != "" {
		return json.Marshal(plain(r))
	}
	return json.Marshal(struct {
		plain
		UpdatedPackage *Package `json:"updatedPackage"`
	}{plain: plain(r), UpdatedPackage: r.UpdatedPackage})
}

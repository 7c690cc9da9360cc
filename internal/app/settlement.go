/**
 * @description
 * Idempotent settlement of paid checkout sessions.
 *
 * The payment intent of a session is the idempotency key. Exactly one call
 * per key records the payment and increments the purchased package; every
 * other call, concurrent or later, observes the duplicate and changes
 * nothing. The unique index on payments.transaction_id is the arbiter.
 */
package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	PaymentSettledRoutingKey = "payment.settled"

	paymentNotCompletedMessage = "Payment not completed"
	duplicatePaymentMessage    = "Duplicate payment ignored"
)

// SettlePayment applies the outcome of checkout session sessionID.
func (s Service) SettlePayment(ctx context.Context, sessionID string) (*domain.SettlementResult, error) {
	if sessionID == "" || strings.TrimSpace(sessionID) != sessionID || strings.ContainsAny(sessionID, " \t\r\n") {
		return nil, invalidRequest("session_id is required")
	}

	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve checkout session %s: %v", ErrUpstreamUnavailable, sessionID, err)
	}

	if session.PaymentStatus != domain.CheckoutPaid {
		return &domain.SettlementResult{Success: false, Message: paymentNotCompletedMessage}, nil
	}

	transactionID := strings.TrimSpace(session.PaymentIntent)
	if transactionID == "" {
		return nil, fmt.Errorf("%w: checkout session %s is paid but has no payment intent", ErrUpstreamUnavailable, sessionID)
	}

	payment := &domain.Payment{
		TransactionID: transactionID,
		HREmail:       session.Metadata["hrEmail"],
		PackageName:   session.Metadata["packageName"],
		EmployeeLimit: parseEmployeeLimit(session.Metadata["employeeLimit"]),
		Amount:        decimal.New(session.AmountTotal, -2),
		PaymentDate:   s.now(),
		Status:        domain.PaymentCompleted,
	}

	updatedPackage, recorded, err := s.repo.RecordSettlement(ctx, payment)
	if err != nil {
		return nil, storageFailure("record settlement", err)
	}

	if !recorded {
		log.Printf("level=info component=settlement msg=\"duplicate settlement ignored\" transaction_id=%s session_id=%s", transactionID, sessionID)
		return &domain.SettlementResult{
			Success:       true,
			Message:       duplicatePaymentMessage,
			TransactionID: transactionID,
		}, nil
	}

	log.Printf("level=info component=settlement msg=\"payment settled\" transaction_id=%s package=%q", transactionID, payment.PackageName)
	s.announceSettlement(ctx, *payment)

	return &domain.SettlementResult{
		Success:        true,
		TransactionID:  transactionID,
		UpdatedPackage: updatedPackage,
	}, nil
}

// announceSettlement publishes the settlement event and mails a receipt.
// Failures are logged; the settlement itself is already durable.
func (s Service) announceSettlement(ctx context.Context, payment domain.Payment) {
	if s.publisher != nil {
		event := domain.PaymentSettledEvent{
			TransactionID: payment.TransactionID,
			HREmail:       payment.HREmail,
			PackageName:   payment.PackageName,
			EmployeeLimit: payment.EmployeeLimit,
			Amount:        payment.Amount,
			SettledAt:     payment.PaymentDate,
		}
		if err := s.publisher.Publish(ctx, s.eventsExchange, PaymentSettledRoutingKey, event); err != nil {
			log.Printf("level=warn component=settlement msg=\"publish settlement event failed\" transaction_id=%s err=%v", payment.TransactionID, err)
		}
	}

	if s.mailer != nil && payment.HREmail != "" {
		if err := s.mailer.SendPaymentReceipt(ctx, payment); err != nil {
			log.Printf("level=warn component=settlement msg=\"send payment receipt failed\" transaction_id=%s err=%v", payment.TransactionID, err)
		}
	}
}

// parseEmployeeLimit reads the metadata value as an integer; anything else is 0.
func parseEmployeeLimit(raw string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return limit
}

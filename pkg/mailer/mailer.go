/**
 * @description
 * SMTP delivery of payment receipts to the purchasing HR principal.
 */
package mailer

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/assetverse/asset-service/internal/domain"
	"github.com/jordan-wright/email"
)

// Config holds SMTP settings. Host empty means mail is disabled.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// SMTPMailer sends receipts through an SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSMTPMailer creates a mailer for cfg.
func NewSMTPMailer(cfg Config) *SMTPMailer {
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "587"
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%s", cfg.Host, port),
		auth: auth,
		from: cfg.From,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendPaymentReceipt mails a receipt for payment to its HR email.
func (m *SMTPMailer) SendPaymentReceipt(ctx context.Context, payment domain.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{payment.HREmail}
	e.Subject = fmt.Sprintf("Payment receipt: %s package", payment.PackageName)
	e.Text = []byte(receiptBody(payment))

	return m.send(e, m.addr, m.auth)
}

func receiptBody(payment domain.Payment) string {
	var b strings.Builder
	b.WriteString("Thank you for your purchase.\n\n")
	fmt.Fprintf(&b, "Package: %s\n", payment.PackageName)
	fmt.Fprintf(&b, "Amount: %s\n", payment.Amount.StringFixed(2))
	fmt.Fprintf(&b, "Transaction: %s\n", payment.TransactionID)
	fmt.Fprintf(&b, "Date: %s\n", payment.PaymentDate.UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}

// NoopMailer is used when SMTP is not configured.
type NoopMailer struct{}

func (NoopMailer) SendPaymentReceipt(ctx context.Context, payment domain.Payment) error {
	log.Printf("level=info component=mailer msg=\"smtp not configured; receipt skipped\" transaction_id=%s", payment.TransactionID)
	return nil
}

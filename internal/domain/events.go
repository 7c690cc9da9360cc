package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSettledEvent is published once per winning settlement.
type PaymentSettledEvent struct {
	TransactionID string          `json:"transaction_id"`
	HREmail       string          `json:"hr_email"`
	PackageName   string          `json:"package_name"`
	EmployeeLimit int             `json:"employee_limit"`
	Amount        decimal.Decimal `json:"amount"`
	SettledAt     time.Time       `json:"settled_at"`
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Affiliation statuses.
const (
	AffiliationPending = "pending"
	AffiliationActive  = "active"
)

// Affiliation links an employee principal to an organization (HR) principal.
type Affiliation struct {
	ID              uuid.UUID `json:"_id"`
	EmployeeEmail   string    `json:"employeeEmail"`
	EmployeeName    string    `json:"employeeName"`
	HREmail         string    `json:"hrEmail"`
	CompanyName     string    `json:"companyName"`
	CompanyLogo     string    `json:"companyLogo,omitempty"`
	AffiliationDate time.Time `json:"affiliationDate"`
	Status          string    `json:"status"`
}

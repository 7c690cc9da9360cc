package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assignment statuses.
const (
	AssignmentAssigned = "assigned"
	AssignmentReturned = "returned"
)

// AssignedAsset links an asset to the employee currently holding it.
type AssignedAsset struct {
	ID             uuid.UUID  `json:"_id"`
	AssetID        string     `json:"assetId"`
	AssetName      string     `json:"assetName"`
	AssetImage     string     `json:"assetImage,omitempty"`
	AssetType      string     `json:"assetType,omitempty"`
	EmployeeEmail  string     `json:"employeeEmail"`
	EmployeeName   string     `json:"employeeName"`
	HREmail        string     `json:"hrEmail"`
	CompanyName    string     `json:"companyName"`
	AssignmentDate time.Time  `json:"assignmentDate"`
	ReturnDate     *time.Time `json:"returnDate,omitempty"`
	Status         string     `json:"status"`
}

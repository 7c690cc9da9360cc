package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestReturned = "returned"
)

// AssetRequest is an employee's request for an asset.
type AssetRequest struct {
	ID             uuid.UUID  `json:"_id"`
	AssetID        string     `json:"assetId"`
	AssetName      string     `json:"assetName"`
	AssetType      string     `json:"assetType,omitempty"`
	RequesterName  string     `json:"requesterName"`
	RequesterEmail string     `json:"requesterEmail"`
	HREmail        string     `json:"hrEmail"`
	CompanyName    string     `json:"companyName"`
	RequestDate    time.Time  `json:"requestDate"`
	ApprovalDate   *time.Time `json:"approvalDate,omitempty"`
	RequestStatus  string     `json:"requestStatus"`
	Note           string     `json:"note,omitempty"`
}

/**
 * @description
 * Domain models for platform users. A user is either an organization
 * administrator ("hr") or a member of an organization ("employee").
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization role stored on a user record.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	return r == RoleEmployee || r == RoleHR
}

// User represents a row in the users table.
type User struct {
	ID            uuid.UUID  `json:"_id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Role          Role       `json:"role,omitempty"`
	ProfileImage  string     `json:"profileImage,omitempty"`
	CompanyName   string     `json:"companyName,omitempty"`
	CompanyLogo   string     `json:"companyLogo,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`
	PackageName   string     `json:"packageName,omitempty"`
	EmployeeLimit int        `json:"employeeLimit"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ProfileUpdate carries the fields an employee may change on their own profile.
type ProfileUpdate struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
}

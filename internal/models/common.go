// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

// RoleAdmin and RoleUser are the only persisted roles. Owner and tenant are
// contextual relations to a concrete item or loan, never stored on the user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type ItemStatus string

const (
	ItemStatusPublic    ItemStatus = "public"
	ItemStatusApproving ItemStatus = "approving"
	ItemStatusDenied    ItemStatus = "denied"
	ItemStatusDeleted   ItemStatus = "deleted"
)

// LoanStatus is the single source of truth for what protocol actions are
// legal on a loan. Transitions between statuses are owned by the lifecycle
// package.
type LoanStatus string

const (
	LoanStatusInquired          LoanStatus = "inquired"
	LoanStatusAccepted          LoanStatus = "accepted"
	LoanStatusDenied            LoanStatus = "denied"
	LoanStatusCancelled         LoanStatus = "cancelled"
	LoanStatusPreparedForPickup LoanStatus = "prepared_for_pickup"
	LoanStatusPickupDenied      LoanStatus = "pickup_denied"
	LoanStatusActive            LoanStatus = "active"
	LoanStatusPreparedForReturn LoanStatus = "prepared_for_return"
	LoanStatusReturnDenied      LoanStatus = "return_denied"
	LoanStatusReturned          LoanStatus = "returned"
)

// AllLoanStatuses lists every status the machine knows about.
func AllLoanStatuses() []LoanStatus {
	return []LoanStatus{
		LoanStatusInquired,
		LoanStatusAccepted,
		LoanStatusDenied,
		LoanStatusCancelled,
		LoanStatusPreparedForPickup,
		LoanStatusPickupDenied,
		LoanStatusActive,
		LoanStatusPreparedForReturn,
		LoanStatusReturnDenied,
		LoanStatusReturned,
	}
}

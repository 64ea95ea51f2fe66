// internal/models/loan.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Loan struct {
	BaseModel
	Status            LoanStatus `json:"status" gorm:"type:varchar(30);default:'inquired';index"`
	From              time.Time  `json:"from" gorm:"type:date;not null"`
	To                time.Time  `json:"to" gorm:"type:date;not null"`
	PricePerDay       float64    `json:"price_per_day" gorm:"type:decimal(10,2);not null"`
	RefundableDeposit float64    `json:"refundable_deposit" gorm:"type:decimal(10,2);default:0"`
	ExpectedPrice     float64    `json:"expected_price" gorm:"type:decimal(10,2);not null"`
	TenantNote        string     `json:"tenant_note,omitempty" gorm:"type:text"`
	ItemID            uuid.UUID  `json:"item_id" gorm:"type:uuid;not null;index"`
	TenantID          uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`

	// Relationships. The loan owns its protocols (cascade delete); the item
	// is shared by many loans and only referenced.
	Item           Item            `json:"item,omitempty" gorm:"foreignKey:ItemID"`
	Tenant         User            `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	PickupProtocol *PickupProtocol `json:"pickup_protocol,omitempty" gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
	ReturnProtocol *ReturnProtocol `json:"return_protocol,omitempty" gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
}

// OwnerID is the identity of the lender, resolved through the loaded item.
func (l *Loan) OwnerID() uuid.UUID {
	return l.Item.OwnerID
}

type PickupProtocol struct {
	BaseModel
	LoanID                    uuid.UUID  `json:"loan_id" gorm:"type:uuid;not null;uniqueIndex"`
	Description               string     `json:"description" gorm:"type:text"`
	AcceptedRefundableDeposit float64    `json:"accepted_refundable_deposit" gorm:"type:decimal(10,2);default:0"`
	ConfirmedAt               *time.Time `json:"confirmed_at"`

	// Relationships
	Loan *Loan `json:"loan,omitempty" gorm:"foreignKey:LoanID"`
}

// Confirmed reports whether the protocol has been confirmed. Confirmation is
// one way: once ConfirmedAt is set the record is immutable.
func (p *PickupProtocol) Confirmed() bool {
	return p.ConfirmedAt != nil
}

type ReturnProtocol struct {
	BaseModel
	LoanID                    uuid.UUID  `json:"loan_id" gorm:"type:uuid;not null;uniqueIndex"`
	Description               string     `json:"description" gorm:"type:text"`
	ReturnedRefundableDeposit float64    `json:"returned_refundable_deposit" gorm:"type:decimal(10,2);default:0"`
	ConfirmedAt               *time.Time `json:"confirmed_at"`

	// Relationships
	Loan *Loan `json:"loan,omitempty" gorm:"foreignKey:LoanID"`
}

func (p *ReturnProtocol) Confirmed() bool {
	return p.ConfirmedAt != nil
}

// internal/models/item.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ItemCategory struct {
	BaseModel
	Name        string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Description string `json:"description" gorm:"type:text"`

	// Relationships
	Items []Item `json:"items,omitempty" gorm:"foreignKey:CategoryID"`
}

type Item struct {
	BaseModel
	OwnerID           uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	CategoryID        *uuid.UUID     `json:"category_id" gorm:"type:uuid;index"`
	Name              string         `json:"name" gorm:"size:255;not null"`
	Description       string         `json:"description" gorm:"type:text"`
	Status            ItemStatus     `json:"status" gorm:"type:varchar(20);default:'approving';index"`
	PricePerDay       float64        `json:"price_per_day" gorm:"type:decimal(10,2);not null"`
	RefundableDeposit float64        `json:"refundable_deposit" gorm:"type:decimal(10,2);default:0"`
	Images            pq.StringArray `json:"images" gorm:"type:text[]"`

	// Relationships
	Owner    User          `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Category *ItemCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Loans    []Loan        `json:"loans,omitempty" gorm:"foreignKey:ItemID"`
}

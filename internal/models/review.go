// internal/models/review.go
package models

import (
	"github.com/google/uuid"
)

type Review struct {
	BaseModel
	AuthorID uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	LoanID   uuid.UUID `json:"loan_id" gorm:"type:uuid;not null;index"`
	Rating   int       `json:"rating" gorm:"not null"`
	Comment  string    `json:"comment" gorm:"type:text"`

	// Relationships
	Author User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Loan   Loan `json:"loan,omitempty" gorm:"foreignKey:LoanID"`
}

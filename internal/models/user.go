// internal/models/user.go
package models

import (
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Roles        pq.StringArray `json:"roles" gorm:"type:text[];not null"`
	Status       UserStatus     `json:"status" gorm:"type:varchar(20);default:'active'"`
	ProfileData  JSONB          `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt  *time.Time     `json:"last_login_at"`

	// Relationships
	Items   []Item   `json:"items,omitempty" gorm:"foreignKey:OwnerID"`
	Loans   []Loan   `json:"loans,omitempty" gorm:"foreignKey:TenantID"`
	Reviews []Review `json:"reviews,omitempty" gorm:"foreignKey:AuthorID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

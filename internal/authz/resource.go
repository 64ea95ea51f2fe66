// internal/authz/resource.go
package authz

import (
	"github.com/google/uuid"

	"github.com/lendigo/lendigo-backend/internal/models"
)

type Operation string

const (
	OperationRead   Operation = "read"
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

type Kind string

const (
	KindLoan           Kind = "loan"
	KindPickupProtocol Kind = "pickup_protocol"
	KindReturnProtocol Kind = "return_protocol"
	KindProfile        Kind = "profile"
	KindReview         Kind = "review"
	KindItemCategory   Kind = "item_category"
	KindItem           Kind = "item"
)

// Resource is the snapshot a decision is made against. Constructors project
// loaded models down to the relation ids the policies need, so evaluators
// never touch storage. The zero relation fields simply make the matching
// policies abstain.
type Resource struct {
	Kind Kind
	ID   uuid.UUID

	OwnerID    *uuid.UUID // owner of the item behind the resource
	TenantID   *uuid.UUID // tenant of the loan behind the resource
	UserID     *uuid.UUID // profile subject or review author
	PublicRead bool
}

// Creation builds the instance-less resource used for create decisions.
func Creation(kind Kind) Resource {
	return Resource{Kind: kind}
}

// ForLoan expects the loan's item association to be loaded.
func ForLoan(loan *models.Loan) Resource {
	ownerID := loan.Item.OwnerID
	tenantID := loan.TenantID
	return Resource{
		Kind:     KindLoan,
		ID:       loan.ID,
		OwnerID:  &ownerID,
		TenantID: &tenantID,
	}
}

// ForPickupProtocol expects loan.Item to be loaded for the ownership check.
// A nil protocol describes one about to be created for the loan.
func ForPickupProtocol(protocol *models.PickupProtocol, loan *models.Loan) Resource {
	ownerID := loan.Item.OwnerID
	tenantID := loan.TenantID
	r := Resource{
		Kind:     KindPickupProtocol,
		OwnerID:  &ownerID,
		TenantID: &tenantID,
	}
	if protocol != nil {
		r.ID = protocol.ID
	}
	return r
}

func ForReturnProtocol(protocol *models.ReturnProtocol, loan *models.Loan) Resource {
	ownerID := loan.Item.OwnerID
	tenantID := loan.TenantID
	r := Resource{
		Kind:     KindReturnProtocol,
		OwnerID:  &ownerID,
		TenantID: &tenantID,
	}
	if protocol != nil {
		r.ID = protocol.ID
	}
	return r
}

// ForProfile covers user profiles, which are publicly readable.
func ForProfile(user *models.User) Resource {
	userID := user.ID
	return Resource{
		Kind:       KindProfile,
		ID:         user.ID,
		UserID:     &userID,
		PublicRead: true,
	}
}

// ForReview covers reviews, which are always readable.
func ForReview(review *models.Review) Resource {
	authorID := review.AuthorID
	return Resource{
		Kind:       KindReview,
		ID:         review.ID,
		UserID:     &authorID,
		PublicRead: true,
	}
}

// ForItemCategory covers categories, readable by anyone including guests.
func ForItemCategory(category *models.ItemCategory) Resource {
	return Resource{
		Kind:       KindItemCategory,
		ID:         category.ID,
		PublicRead: true,
	}
}

// ForItem marks only public items guest-readable.
func ForItem(item *models.Item) Resource {
	ownerID := item.OwnerID
	return Resource{
		Kind:       KindItem,
		ID:         item.ID,
		OwnerID:    &ownerID,
		PublicRead: item.Status == models.ItemStatusPublic,
	}
}

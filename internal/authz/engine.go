// internal/authz/engine.go
package authz

import (
	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/models"
)

// Policy grants or abstains for one (subject relation, operation)
// combination. Policies are self-contained; the engine composes them with a
// logical OR, so a new policy never has to touch the existing ones.
type Policy func(sub Subject, op Operation, res Resource) bool

// Engine evaluates the registered policy set for a resource kind.
// First granter wins; if every policy abstains the request is denied.
type Engine struct {
	policies map[Kind][]Policy
}

// NewEngine builds the engine with the marketplace's default policy set.
func NewEngine() *Engine {
	e := &Engine{policies: make(map[Kind][]Policy)}

	e.Register(KindLoan, AdminPolicy, LoanPartyPolicy, AuthenticatedCreatePolicy)
	e.Register(KindPickupProtocol, AdminPolicy, ProtocolOwnerPolicy, ProtocolTenantPolicy)
	e.Register(KindReturnProtocol, AdminPolicy, ProtocolOwnerPolicy, ProtocolTenantPolicy)
	e.Register(KindProfile, AdminPolicy, PublicReadPolicy, ProfileOwnerPolicy)
	e.Register(KindReview, AdminPolicy, PublicReadPolicy, ReviewAuthorPolicy, AuthenticatedCreatePolicy)
	e.Register(KindItemCategory, AdminPolicy, PublicReadPolicy)
	e.Register(KindItem, AdminPolicy, PublicReadPolicy, ItemOwnerPolicy, AuthenticatedCreatePolicy)

	return e
}

// Register appends policies for a resource kind. Order is irrelevant by
// design: any single grant suffices.
func (e *Engine) Register(kind Kind, policies ...Policy) {
	e.policies[kind] = append(e.policies[kind], policies...)
}

// Decide returns nil when access is granted. A denial distinguishes a
// missing identity (NotAuthenticated) from an identified subject with an
// insufficient relation (Forbidden, carrying operation and resource id).
func (e *Engine) Decide(sub Subject, op Operation, res Resource) error {
	for _, policy := range e.policies[res.Kind] {
		if policy(sub, op, res) {
			return nil
		}
	}

	if !sub.Authenticated() {
		return apperrors.NotAuthenticated()
	}
	return apperrors.Forbidden(string(op), res.ID.String())
}

// AdminPolicy grants every operation on every resource kind.
func AdminPolicy(sub Subject, op Operation, res Resource) bool {
	return sub.HasRole(models.RoleAdmin)
}

// PublicReadPolicy grants read on resources flagged public, guests included.
func PublicReadPolicy(sub Subject, op Operation, res Resource) bool {
	return op == OperationRead && res.PublicRead
}

// ProtocolOwnerPolicy lets the item owner drive a protocol: the owner files
// it at the handover and is the one confirming or denying pickup and return.
func ProtocolOwnerPolicy(sub Subject, op Operation, res Resource) bool {
	if res.OwnerID == nil || !sub.Is(*res.OwnerID) {
		return false
	}
	return op == OperationRead || op == OperationCreate || op == OperationUpdate
}

// ProtocolTenantPolicy lets the loan tenant observe a protocol but never
// file or confirm one.
func ProtocolTenantPolicy(sub Subject, op Operation, res Resource) bool {
	if res.TenantID == nil || !sub.Is(*res.TenantID) {
		return false
	}
	return op == OperationRead
}

// LoanPartyPolicy lets both parties of a loan read and update it. Which
// lifecycle event either party may fire is enforced by the loan service.
func LoanPartyPolicy(sub Subject, op Operation, res Resource) bool {
	party := (res.OwnerID != nil && sub.Is(*res.OwnerID)) ||
		(res.TenantID != nil && sub.Is(*res.TenantID))
	if !party {
		return false
	}
	return op == OperationRead || op == OperationUpdate
}

// ProfileOwnerPolicy lets a user read and update their own profile.
func ProfileOwnerPolicy(sub Subject, op Operation, res Resource) bool {
	if res.UserID == nil || !sub.Is(*res.UserID) {
		return false
	}
	return op == OperationRead || op == OperationUpdate
}

// ReviewAuthorPolicy lets the author amend or soft-delete their review.
func ReviewAuthorPolicy(sub Subject, op Operation, res Resource) bool {
	if res.UserID == nil || !sub.Is(*res.UserID) {
		return false
	}
	return op == OperationUpdate || op == OperationDelete
}

// ItemOwnerPolicy gives the item owner full control of their listing.
func ItemOwnerPolicy(sub Subject, op Operation, res Resource) bool {
	if res.OwnerID == nil || !sub.Is(*res.OwnerID) {
		return false
	}
	return op == OperationRead || op == OperationUpdate || op == OperationDelete
}

// AuthenticatedCreatePolicy lets any signed-in user create instances of the
// kinds it is registered for (loans, reviews, items).
func AuthenticatedCreatePolicy(sub Subject, op Operation, res Resource) bool {
	return op == OperationCreate && sub.Authenticated()
}

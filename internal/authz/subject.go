// internal/authz/subject.go

// Package authz decides, per operation and per resource instance, whether an
// acting identity may proceed. Every evaluator is a pure function over the
// subject and a resource snapshot; the engine does no I/O and keeps no state,
// so it is safe for concurrent use and exhaustively unit-testable.
package authz

import "github.com/google/uuid"

// Subject is the acting identity for a decision. A nil ID means the caller
// is a guest; owner and tenant are relations to the resource, not roles.
type Subject struct {
	ID    *uuid.UUID
	Roles []string
}

// Guest is the subject used for requests with no resolvable identity.
func Guest() Subject {
	return Subject{}
}

// ForUser builds a subject for an authenticated user.
func ForUser(id uuid.UUID, roles ...string) Subject {
	return Subject{ID: &id, Roles: roles}
}

func (s Subject) Authenticated() bool {
	return s.ID != nil
}

func (s Subject) Is(id uuid.UUID) bool {
	return s.ID != nil && *s.ID == id
}

func (s Subject) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

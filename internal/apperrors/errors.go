// internal/apperrors/errors.go
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so transport code can map it to a response
// without inspecting messages.
type Kind string

const (
	KindNotAuthenticated    Kind = "not_authenticated"
	KindForbidden           Kind = "forbidden"
	KindEntityNotFound      Kind = "entity_not_found"
	KindInvalidTransition   Kind = "invalid_transition"
	KindOperationNotAllowed Kind = "operation_not_allowed"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindValidation          Kind = "validation"
	KindInternal            Kind = "internal"
)

// Error is the failure value returned by the core. It is never logged or
// swallowed inside the core; callers decide how to surface it.
type Error struct {
	Kind    Kind
	Message string

	// Diagnostics, populated per kind.
	CurrentState string // invalid transitions
	Event        string // invalid transitions
	Operation    string // forbidden
	ResourceID   string // forbidden / not found

	err error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

func NotFound(resource, id string) *Error {
	return &Error{
		Kind:       KindEntityNotFound,
		Message:    resource + " not found",
		ResourceID: id,
	}
}

// Forbidden carries the attempted operation and resource id for audit.
func Forbidden(operation, resourceID string) *Error {
	return &Error{
		Kind:       KindForbidden,
		Message:    "access denied",
		Operation:  operation,
		ResourceID: resourceID,
	}
}

func NotAuthenticated() *Error {
	return &Error{Kind: KindNotAuthenticated, Message: "authentication required"}
}

// InvalidTransition reports a loan event that is not legal from the current
// state. The rejected pair is carried for diagnostics; the state machine
// never coerces to a "closest legal" state.
func InvalidTransition(currentState, event string) *Error {
	return &Error{
		Kind:         KindInvalidTransition,
		Message:      fmt.Sprintf("event %q is not allowed in state %q", event, currentState),
		CurrentState: currentState,
		Event:        event,
	}
}

func Conflict(message string) *Error {
	return &Error{Kind: KindConcurrencyConflict, Message: message}
}

// KindOf extracts the failure kind, defaulting to KindInternal for errors
// that did not originate in this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// internal/lifecycle/machine.go

// Package lifecycle holds the loan state machine and the protocol rules
// built on top of it. Everything here is pure: functions decide, callers
// persist. The machine is a table lookup, so adding a state means adding a
// row, not editing call sites.
package lifecycle

import (
	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/models"
)

// Event is a requested loan transition. The acting party is part of the
// event name; services verify the actor before applying.
type Event string

const (
	EventOwnerAccepts        Event = "owner_accepts"
	EventOwnerDenies         Event = "owner_denies"
	EventTenantCancels       Event = "tenant_cancels"
	EventPrepareForPickup    Event = "prepare_for_pickup"
	EventOwnerConfirmsPickup Event = "owner_confirms_pickup"
	EventOwnerDeniesPickup   Event = "owner_denies_pickup"
	EventPrepareForReturn    Event = "prepare_for_return"
	EventOwnerConfirmsReturn Event = "owner_confirms_return"
	EventOwnerDeniesReturn   Event = "owner_denies_return"
)

// AllEvents lists every event the machine knows about.
func AllEvents() []Event {
	return []Event{
		EventOwnerAccepts,
		EventOwnerDenies,
		EventTenantCancels,
		EventPrepareForPickup,
		EventOwnerConfirmsPickup,
		EventOwnerDeniesPickup,
		EventPrepareForReturn,
		EventOwnerConfirmsReturn,
		EventOwnerDeniesReturn,
	}
}

// transitions is the whole machine. A missing entry is a rejection; there is
// no wildcard row and no default.
var transitions = map[models.LoanStatus]map[Event]models.LoanStatus{
	models.LoanStatusInquired: {
		EventOwnerAccepts:  models.LoanStatusAccepted,
		EventOwnerDenies:   models.LoanStatusDenied,
		EventTenantCancels: models.LoanStatusCancelled,
	},
	models.LoanStatusAccepted: {
		EventTenantCancels:    models.LoanStatusCancelled,
		EventPrepareForPickup: models.LoanStatusPreparedForPickup,
	},
	models.LoanStatusPreparedForPickup: {
		EventOwnerConfirmsPickup: models.LoanStatusActive,
		EventOwnerDeniesPickup:   models.LoanStatusPickupDenied,
	},
	models.LoanStatusActive: {
		EventPrepareForReturn: models.LoanStatusPreparedForReturn,
	},
	models.LoanStatusPreparedForReturn: {
		EventOwnerConfirmsReturn: models.LoanStatusReturned,
		EventOwnerDeniesReturn:   models.LoanStatusReturnDenied,
	},
}

// Can reports whether the event may fire from the given status.
func Can(status models.LoanStatus, event Event) bool {
	_, ok := transitions[status][event]
	return ok
}

// Apply returns the status the event leads to, or an InvalidTransition
// failure carrying the rejected (state, event) pair. It never mutates
// anything and never falls back to a no-op.
func Apply(status models.LoanStatus, event Event) (models.LoanStatus, error) {
	next, ok := transitions[status][event]
	if !ok {
		return status, apperrors.InvalidTransition(string(status), string(event))
	}
	return next, nil
}

// Terminal reports whether no event can fire from the given status.
func Terminal(status models.LoanStatus) bool {
	return len(transitions[status]) == 0
}

// Initial is the status every loan is created in.
func Initial() models.LoanStatus {
	return models.LoanStatusInquired
}

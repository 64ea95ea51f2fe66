// internal/lifecycle/machine_test.go
package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/models"
)

type transitionCase struct {
	from  models.LoanStatus
	event Event
	to    models.LoanStatus
}

// definedTransitions mirrors the full transition table. Anything outside
// this list must be rejected.
var definedTransitions = []transitionCase{
	{models.LoanStatusInquired, EventOwnerAccepts, models.LoanStatusAccepted},
	{models.LoanStatusInquired, EventOwnerDenies, models.LoanStatusDenied},
	{models.LoanStatusInquired, EventTenantCancels, models.LoanStatusCancelled},
	{models.LoanStatusAccepted, EventTenantCancels, models.LoanStatusCancelled},
	{models.LoanStatusAccepted, EventPrepareForPickup, models.LoanStatusPreparedForPickup},
	{models.LoanStatusPreparedForPickup, EventOwnerConfirmsPickup, models.LoanStatusActive},
	{models.LoanStatusPreparedForPickup, EventOwnerDeniesPickup, models.LoanStatusPickupDenied},
	{models.LoanStatusActive, EventPrepareForReturn, models.LoanStatusPreparedForReturn},
	{models.LoanStatusPreparedForReturn, EventOwnerConfirmsReturn, models.LoanStatusReturned},
	{models.LoanStatusPreparedForReturn, EventOwnerDeniesReturn, models.LoanStatusReturnDenied},
}

func isDefined(from models.LoanStatus, event Event) (models.LoanStatus, bool) {
	for _, tc := range definedTransitions {
		if tc.from == from && tc.event == event {
			return tc.to, true
		}
	}
	return "", false
}

func TestApplyDefinedTransitions(t *testing.T) {
	for _, tc := range definedTransitions {
		t.Run(string(tc.from)+"/"+string(tc.event), func(t *testing.T) {
			assert.True(t, Can(tc.from, tc.event))

			next, err := Apply(tc.from, tc.event)
			require.NoError(t, err)
			assert.Equal(t, tc.to, next)
		})
	}
}

func TestApplyRejectsEveryUndefinedPair(t *testing.T) {
	for _, from := range models.AllLoanStatuses() {
		for _, event := range AllEvents() {
			if _, ok := isDefined(from, event); ok {
				continue
			}

			assert.False(t, Can(from, event))

			next, err := Apply(from, event)
			require.Error(t, err, "state %s event %s", from, event)
			assert.Equal(t, from, next, "rejected event must leave the state unchanged")

			var appErr *apperrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.KindInvalidTransition, appErr.Kind)
			assert.Equal(t, string(from), appErr.CurrentState)
			assert.Equal(t, string(event), appErr.Event)
		}
	}
}

func TestApplyMultiHopMatchesDirectPath(t *testing.T) {
	// Applying events one by one reaches the same end state as walking the
	// table rows directly: there are no hidden side transitions.
	status := Initial()

	for _, event := range []Event{
		EventOwnerAccepts,
		EventPrepareForPickup,
		EventOwnerConfirmsPickup,
		EventPrepareForReturn,
		EventOwnerConfirmsReturn,
	} {
		expected, ok := isDefined(status, event)
		require.True(t, ok)

		next, err := Apply(status, event)
		require.NoError(t, err)
		assert.Equal(t, expected, next)
		status = next
	}

	assert.Equal(t, models.LoanStatusReturned, status)
	assert.True(t, Terminal(status))
}

func TestTerminalStates(t *testing.T) {
	terminal := map[models.LoanStatus]bool{
		models.LoanStatusDenied:       true,
		models.LoanStatusCancelled:    true,
		models.LoanStatusPickupDenied: true,
		models.LoanStatusReturnDenied: true,
		models.LoanStatusReturned:     true,
	}

	for _, status := range models.AllLoanStatuses() {
		assert.Equal(t, terminal[status], Terminal(status), "status %s", status)
	}
}

func TestInitial(t *testing.T) {
	assert.Equal(t, models.LoanStatusInquired, Initial())
}

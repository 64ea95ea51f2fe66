// internal/lifecycle/protocol_test.go
package lifecycle

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/models"
)

func newLoan(status models.LoanStatus) *models.Loan {
	loan := &models.Loan{Status: status}
	loan.ID = uuid.New()
	return loan
}

func TestRequestPickupProtocol(t *testing.T) {
	loan := newLoan(models.LoanStatusPreparedForPickup)

	protocol, err := RequestPickupProtocol(loan, "handed over with charger")
	require.NoError(t, err)
	assert.Equal(t, loan.ID, protocol.LoanID)
	assert.Nil(t, protocol.ConfirmedAt)
	assert.Same(t, protocol, loan.PickupProtocol)

	// A loan gets at most one pickup protocol.
	_, err = RequestPickupProtocol(loan, "again")
	assert.Equal(t, apperrors.KindOperationNotAllowed, apperrors.KindOf(err))
}

func TestRequestPickupProtocolWrongState(t *testing.T) {
	for _, status := range models.AllLoanStatuses() {
		if status == models.LoanStatusPreparedForPickup {
			continue
		}
		_, err := RequestPickupProtocol(newLoan(status), "")
		assert.Equal(t, apperrors.KindOperationNotAllowed, apperrors.KindOf(err), "status %s", status)
	}
}

func TestConfirmPickupIsNotIdempotent(t *testing.T) {
	loan := newLoan(models.LoanStatusPreparedForPickup)
	_, err := RequestPickupProtocol(loan, "")
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, ConfirmPickup(loan, 150, now))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	require.NotNil(t, loan.PickupProtocol.ConfirmedAt)
	assert.Equal(t, now, *loan.PickupProtocol.ConfirmedAt)
	assert.Equal(t, 150.0, loan.PickupProtocol.AcceptedRefundableDeposit)

	// Second confirmation fails instead of double-applying.
	err = ConfirmPickup(loan, 150, now)
	assert.Equal(t, apperrors.KindOperationNotAllowed, apperrors.KindOf(err))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
}

func TestConfirmPickupWithoutProtocol(t *testing.T) {
	err := ConfirmPickup(newLoan(models.LoanStatusPreparedForPickup), 0, time.Now())
	assert.Equal(t, apperrors.KindOperationNotAllowed, apperrors.KindOf(err))
}

func TestDenyPickupKeepsProtocolUnconfirmed(t *testing.T) {
	loan := newLoan(models.LoanStatusPreparedForPickup)
	protocol, err := RequestPickupProtocol(loan, "scratched on arrival")
	require.NoError(t, err)

	require.NoError(t, DenyPickup(loan))
	assert.Equal(t, models.LoanStatusPickupDenied, loan.Status)
	assert.Nil(t, protocol.ConfirmedAt, "denied protocol is kept unconfirmed for audit")

	err = DenyPickup(loan)
	assert.Equal(t, apperrors.KindInvalidTransition, apperrors.KindOf(err))
}

func TestReturnSideMirrorsPickupSide(t *testing.T) {
	loan := newLoan(models.LoanStatusPreparedForReturn)

	protocol, err := RequestReturnProtocol(loan, "returned in one piece")
	require.NoError(t, err)
	assert.Nil(t, protocol.ConfirmedAt)

	now := time.Now()
	require.NoError(t, ConfirmReturn(loan, 150, now))
	assert.Equal(t, models.LoanStatusReturned, loan.Status)
	assert.Equal(t, 150.0, protocol.ReturnedRefundableDeposit)
	require.NotNil(t, protocol.ConfirmedAt)

	err = ConfirmReturn(loan, 150, now)
	assert.Equal(t, apperrors.KindOperationNotAllowed, apperrors.KindOf(err))
}

func TestDenyReturn(t *testing.T) {
	loan := newLoan(models.LoanStatusPreparedForReturn)
	_, err := RequestReturnProtocol(loan, "")
	require.NoError(t, err)

	require.NoError(t, DenyReturn(loan))
	assert.Equal(t, models.LoanStatusReturnDenied, loan.Status)
	assert.Nil(t, loan.ReturnProtocol.ConfirmedAt)
}

// Full walk from inquiry to an active loan, the way the services drive it.
func TestLoanPickupScenario(t *testing.T) {
	loan := newLoan(Initial())

	status, err := Apply(loan.Status, EventOwnerAccepts)
	require.NoError(t, err)
	loan.Status = status

	status, err = Apply(loan.Status, EventPrepareForPickup)
	require.NoError(t, err)
	loan.Status = status
	assert.Equal(t, models.LoanStatusPreparedForPickup, loan.Status)

	protocol, err := RequestPickupProtocol(loan, "")
	require.NoError(t, err)
	assert.Nil(t, protocol.ConfirmedAt)

	require.NoError(t, ConfirmPickup(loan, 90, time.Now()))
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.NotNil(t, protocol.ConfirmedAt)

	err = ConfirmPickup(loan, 90, time.Now())
	assert.Equal(t, apperrors.KindOperationNotAllowed, apperrors.KindOf(err))
}

func TestValidateRequestedDates(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	day := 24 * time.Hour

	assert.NoError(t, ValidateRequestedDates(now.Add(day), now.Add(3*day), now))

	// Same-day start is fine even later in the day.
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateRequestedDates(today, today, now))

	err := ValidateRequestedDates(now.Add(3*day), now.Add(day), now)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = ValidateRequestedDates(now.Add(-2*day), now.Add(day), now)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

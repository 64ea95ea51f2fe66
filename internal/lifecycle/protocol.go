// internal/lifecycle/protocol.go
package lifecycle

import (
	"time"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/models"
)

// Protocol rules bridge the 1:1 loan-protocol relationship to the state
// machine. They mutate the passed models in memory only; persistence and
// notification stay with the caller and happen after a successful outcome.

// RequestPickupProtocol creates the pickup protocol for a loan that has been
// prepared for pickup. A loan gets at most one.
func RequestPickupProtocol(loan *models.Loan, description string) (*models.PickupProtocol, error) {
	if loan.Status != models.LoanStatusPreparedForPickup {
		return nil, apperrors.Newf(apperrors.KindOperationNotAllowed,
			"pickup protocol can only be requested for a loan prepared for pickup, not %q", loan.Status)
	}
	if loan.PickupProtocol != nil {
		return nil, apperrors.New(apperrors.KindOperationNotAllowed,
			"loan already has a pickup protocol")
	}

	protocol := &models.PickupProtocol{
		LoanID:      loan.ID,
		Description: description,
	}
	loan.PickupProtocol = protocol
	return protocol, nil
}

// ConfirmPickup confirms the pickup protocol and moves the loan to active.
// Confirming twice fails: confirmation is one way and never double-applies.
func ConfirmPickup(loan *models.Loan, acceptedDeposit float64, now time.Time) error {
	if loan.PickupProtocol == nil {
		return apperrors.New(apperrors.KindOperationNotAllowed,
			"loan has no pickup protocol to confirm")
	}
	if loan.PickupProtocol.Confirmed() {
		return apperrors.New(apperrors.KindOperationNotAllowed,
			"pickup protocol is already confirmed")
	}

	next, err := Apply(loan.Status, EventOwnerConfirmsPickup)
	if err != nil {
		return err
	}

	loan.Status = next
	loan.PickupProtocol.AcceptedRefundableDeposit = acceptedDeposit
	loan.PickupProtocol.ConfirmedAt = &now
	return nil
}

// DenyPickup rejects the handover. The protocol, if any, stays unconfirmed
// so the denial remains auditable.
func DenyPickup(loan *models.Loan) error {
	next, err := Apply(loan.Status, EventOwnerDeniesPickup)
	if err != nil {
		return err
	}
	loan.Status = next
	return nil
}

// RequestReturnProtocol creates the return protocol for an active loan that
// has been prepared for return.
func RequestReturnProtocol(loan *models.Loan, description string) (*models.ReturnProtocol, error) {
	if loan.Status != models.LoanStatusPreparedForReturn {
		return nil, apperrors.Newf(apperrors.KindOperationNotAllowed,
			"return protocol can only be requested for a loan prepared for return, not %q", loan.Status)
	}
	if loan.ReturnProtocol != nil {
		return nil, apperrors.New(apperrors.KindOperationNotAllowed,
			"loan already has a return protocol")
	}

	protocol := &models.ReturnProtocol{
		LoanID:      loan.ID,
		Description: description,
	}
	loan.ReturnProtocol = protocol
	return protocol, nil
}

// ConfirmReturn confirms the return protocol and closes the loan.
func ConfirmReturn(loan *models.Loan, returnedDeposit float64, now time.Time) error {
	if loan.ReturnProtocol == nil {
		return apperrors.New(apperrors.KindOperationNotAllowed,
			"loan has no return protocol to confirm")
	}
	if loan.ReturnProtocol.Confirmed() {
		return apperrors.New(apperrors.KindOperationNotAllowed,
			"return protocol is already confirmed")
	}

	next, err := Apply(loan.Status, EventOwnerConfirmsReturn)
	if err != nil {
		return err
	}

	loan.Status = next
	loan.ReturnProtocol.ReturnedRefundableDeposit = returnedDeposit
	loan.ReturnProtocol.ConfirmedAt = &now
	return nil
}

// DenyReturn rejects the return. The protocol stays unconfirmed for audit.
func DenyReturn(loan *models.Loan) error {
	next, err := Apply(loan.Status, EventOwnerDeniesReturn)
	if err != nil {
		return err
	}
	loan.Status = next
	return nil
}

// ValidateRequestedDates checks the loan date range invariant at creation:
// the range must be ordered and must not start before the request date.
func ValidateRequestedDates(from, to, now time.Time) error {
	if to.Before(from) {
		return apperrors.New(apperrors.KindValidation, "loan end date precedes start date")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if from.Before(today) {
		return apperrors.New(apperrors.KindValidation, "loan start date precedes the request date")
	}
	return nil
}

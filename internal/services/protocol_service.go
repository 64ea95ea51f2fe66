// internal/services/protocol_service.go
package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/database"
	"github.com/lendigo/lendigo-backend/internal/lifecycle"
	"github.com/lendigo/lendigo-backend/internal/models"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

// ProtocolService drives the handover and return protocols. The rules
// themselves live in the lifecycle package; this layer adds authorization,
// persistence and notifications around them.
type ProtocolService struct {
	db                  *gorm.DB
	engine              *authz.Engine
	notificationService *NotificationService
}

type RequestProtocolRequest struct {
	Description string `json:"description" validate:"required,max=5000"`
}

type ConfirmPickupRequest struct {
	AcceptedRefundableDeposit float64 `json:"accepted_refundable_deposit" validate:"gte=0"`
}

type ConfirmReturnRequest struct {
	ReturnedRefundableDeposit float64 `json:"returned_refundable_deposit" validate:"gte=0"`
}

func NewProtocolService(db *gorm.DB, engine *authz.Engine, notificationService *NotificationService) *ProtocolService {
	return &ProtocolService{
		db:                  db,
		engine:              engine,
		notificationService: notificationService,
	}
}

// RequestPickupProtocol is the owner recording the item condition at the
// handover. The tenant can observe the record but never author it.
func (s *ProtocolService) RequestPickupProtocol(sub authz.Subject, loanID uuid.UUID, req *RequestProtocolRequest) (*models.PickupProtocol, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationCreate, authz.ForPickupProtocol(nil, loan)); err != nil {
		return nil, err
	}

	protocol, err := lifecycle.RequestPickupProtocol(loan, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(protocol).Error; err != nil {
		return nil, fmt.Errorf("failed to create pickup protocol: %w", err)
	}

	go s.notifyProtocolEvent(loan, "pickup_protocol_requested")

	return protocol, nil
}

// ConfirmPickupProtocol is the owner finalizing the handover record. The
// protocol confirmation and the state transition commit together.
func (s *ProtocolService) ConfirmPickupProtocol(sub authz.Subject, loanID uuid.UUID, req *ConfirmPickupRequest) (*models.Loan, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizePickupUpdate(sub, loan); err != nil {
		return nil, err
	}

	observed := loan.Status
	if err := lifecycle.ConfirmPickup(loan, req.AcceptedRefundableDeposit, time.Now()); err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.commitStatusTx(tx, loan.ID, observed, loan.Status); err != nil {
			return err
		}
		return tx.Model(&models.PickupProtocol{}).
			Where("id = ?", loan.PickupProtocol.ID).
			Updates(map[string]interface{}{
				"accepted_refundable_deposit": loan.PickupProtocol.AcceptedRefundableDeposit,
				"confirmed_at":                loan.PickupProtocol.ConfirmedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notifyProtocolEvent(loan, "pickup_protocol_confirmed")

	return loan, nil
}

// DenyPickupProtocol is the owner rejecting the handover. Any existing
// protocol stays unconfirmed.
func (s *ProtocolService) DenyPickupProtocol(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizePickupUpdate(sub, loan); err != nil {
		return nil, err
	}

	observed := loan.Status
	if err := lifecycle.DenyPickup(loan); err != nil {
		return nil, err
	}

	if err := s.commitStatusTx(s.db, loan.ID, observed, loan.Status); err != nil {
		return nil, err
	}

	go s.notifyProtocolEvent(loan, "pickup_protocol_denied")

	return loan, nil
}

// RequestReturnProtocol is the owner recording the item condition when it
// comes back.
func (s *ProtocolService) RequestReturnProtocol(sub authz.Subject, loanID uuid.UUID, req *RequestProtocolRequest) (*models.ReturnProtocol, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationCreate, authz.ForReturnProtocol(nil, loan)); err != nil {
		return nil, err
	}

	protocol, err := lifecycle.RequestReturnProtocol(loan, req.Description)
	if err != nil {
		return nil, err
	}

	if err := s.db.Create(protocol).Error; err != nil {
		return nil, fmt.Errorf("failed to create return protocol: %w", err)
	}

	go s.notifyProtocolEvent(loan, "return_protocol_requested")

	return protocol, nil
}

// ConfirmReturnProtocol is the owner accepting the returned item and settling
// the deposit. This closes the loan.
func (s *ProtocolService) ConfirmReturnProtocol(sub authz.Subject, loanID uuid.UUID, req *ConfirmReturnRequest) (*models.Loan, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeReturnUpdate(sub, loan); err != nil {
		return nil, err
	}

	observed := loan.Status
	if err := lifecycle.ConfirmReturn(loan, req.ReturnedRefundableDeposit, time.Now()); err != nil {
		return nil, err
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.commitStatusTx(tx, loan.ID, observed, loan.Status); err != nil {
			return err
		}
		return tx.Model(&models.ReturnProtocol{}).
			Where("id = ?", loan.ReturnProtocol.ID).
			Updates(map[string]interface{}{
				"returned_refundable_deposit": loan.ReturnProtocol.ReturnedRefundableDeposit,
				"confirmed_at":                loan.ReturnProtocol.ConfirmedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notifyProtocolEvent(loan, "return_protocol_confirmed")

	return loan, nil
}

// DenyReturnProtocol is the owner disputing the returned item's condition.
func (s *ProtocolService) DenyReturnProtocol(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeReturnUpdate(sub, loan); err != nil {
		return nil, err
	}

	observed := loan.Status
	if err := lifecycle.DenyReturn(loan); err != nil {
		return nil, err
	}

	if err := s.commitStatusTx(s.db, loan.ID, observed, loan.Status); err != nil {
		return nil, err
	}

	go s.notifyProtocolEvent(loan, "return_protocol_denied")

	return loan, nil
}

// Confirm and deny are owner decisions; the engine's protocol policies grant
// update to the owner only, so a tenant attempting to self-confirm is denied
// here.
func (s *ProtocolService) authorizePickupUpdate(sub authz.Subject, loan *models.Loan) error {
	return s.engine.Decide(sub, authz.OperationUpdate, authz.ForPickupProtocol(loan.PickupProtocol, loan))
}

func (s *ProtocolService) authorizeReturnUpdate(sub authz.Subject, loan *models.Loan) error {
	return s.engine.Decide(sub, authz.OperationUpdate, authz.ForReturnProtocol(loan.ReturnProtocol, loan))
}

func (s *ProtocolService) commitStatusTx(tx *gorm.DB, loanID uuid.UUID, observed, next models.LoanStatus) error {
	result := tx.Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, observed).
		Update("status", next)

	if result.Error != nil {
		return fmt.Errorf("failed to update loan status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("loan state changed concurrently")
	}
	return nil
}

func (s *ProtocolService) loadLoan(id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Preload("Item").Preload("Item.Owner").Preload("Tenant").
		Preload("PickupProtocol").Preload("ReturnProtocol").
		First(&loan, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NotFound("loan", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &loan, nil
}

func (s *ProtocolService) notifyProtocolEvent(loan *models.Loan, event string) {
	if s.notificationService == nil {
		return
	}
	s.notificationService.SendLoanEventNotification(loan, event)
}

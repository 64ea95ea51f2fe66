// internal/services/loan_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/lifecycle"
	"github.com/lendigo/lendigo-backend/internal/models"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

type LoanService struct {
	db                  *gorm.DB
	engine              *authz.Engine
	notificationService *NotificationService
}

type CreateLoanRequest struct {
	ItemID     uuid.UUID `json:"item_id" validate:"required"`
	From       time.Time `json:"from" validate:"required"`
	To         time.Time `json:"to" validate:"required"`
	TenantNote string    `json:"tenant_note,omitempty" validate:"max=2000"`
}

type LoanSearchParams struct {
	utils.PaginationParams
	ItemID   *uuid.UUID         `json:"item_id,omitempty"`
	TenantID *uuid.UUID         `json:"tenant_id,omitempty"`
	Status   *models.LoanStatus `json:"status,omitempty"`
}

func NewLoanService(db *gorm.DB, engine *authz.Engine, notificationService *NotificationService) *LoanService {
	return &LoanService{
		db:                  db,
		engine:              engine,
		notificationService: notificationService,
	}
}

// CreateLoan opens a loan inquiry on a public item. The loan starts in the
// machine's initial state; the price snapshot is taken from the item so a
// later repricing never changes an agreed loan.
func (s *LoanService) CreateLoan(sub authz.Subject, req *CreateLoanRequest) (*models.Loan, error) {
	if err := s.engine.Decide(sub, authz.OperationCreate, authz.Creation(authz.KindLoan)); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := lifecycle.ValidateRequestedDates(req.From, req.To, time.Now()); err != nil {
		return nil, err
	}

	var item models.Item
	if err := s.db.Preload("Owner").First(&item, req.ItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("item", req.ItemID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if item.Status != models.ItemStatusPublic {
		return nil, apperrors.NotFound("item", req.ItemID.String())
	}

	if sub.Is(item.OwnerID) {
		return nil, apperrors.New(apperrors.KindOperationNotAllowed,
			"cannot rent your own item")
	}

	days := int(req.To.Sub(req.From).Hours()/24) + 1
	loan := &models.Loan{
		Status:            lifecycle.Initial(),
		From:              req.From,
		To:                req.To,
		PricePerDay:       item.PricePerDay,
		RefundableDeposit: item.RefundableDeposit,
		ExpectedPrice:     float64(days) * item.PricePerDay,
		TenantNote:        req.TenantNote,
		ItemID:            item.ID,
		TenantID:          *sub.ID,
	}

	if err := s.db.Create(loan).Error; err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	// Load relationships
	s.db.Preload("Item").Preload("Item.Owner").Preload("Tenant").First(loan, loan.ID)

	go s.notifyLoanEvent(loan, lifecycle.Event("inquired"))

	return loan, nil
}

func (s *LoanService) GetLoan(sub authz.Subject, id uuid.UUID) (*models.Loan, error) {
	loan, err := s.loadLoan(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForLoan(loan)); err != nil {
		return nil, err
	}

	return loan, nil
}

// SearchLoans lists loans the subject is a party to; admins see everything.
func (s *LoanService) SearchLoans(sub authz.Subject, params LoanSearchParams) ([]models.Loan, int64, error) {
	if !sub.Authenticated() {
		return nil, 0, apperrors.NotAuthenticated()
	}

	query := s.db.Model(&models.Loan{}).
		Preload("Item").Preload("Item.Owner").Preload("Tenant").
		Preload("PickupProtocol").Preload("ReturnProtocol")

	if !sub.HasRole(models.RoleAdmin) {
		query = query.Where("tenant_id = ? OR item_id IN (SELECT id FROM items WHERE owner_id = ?)",
			*sub.ID, *sub.ID)
	}

	if params.ItemID != nil {
		query = query.Where("item_id = ?", *params.ItemID)
	}

	if params.TenantID != nil {
		query = query.Where("tenant_id = ?", *params.TenantID)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count loans: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "from", "to", "status"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var loans []models.Loan
	if err := query.Find(&loans).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch loans: %w", err)
	}

	return loans, total, nil
}

// AcceptLoan is the owner taking the inquiry.
func (s *LoanService) AcceptLoan(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	return s.fireEvent(sub, loanID, lifecycle.EventOwnerAccepts)
}

// DenyLoan is the owner rejecting the inquiry.
func (s *LoanService) DenyLoan(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	return s.fireEvent(sub, loanID, lifecycle.EventOwnerDenies)
}

// CancelLoan is the tenant backing out before pickup preparation.
func (s *LoanService) CancelLoan(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	return s.fireEvent(sub, loanID, lifecycle.EventTenantCancels)
}

// PrepareForPickup moves an accepted loan to the handover stage.
func (s *LoanService) PrepareForPickup(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	return s.fireEvent(sub, loanID, lifecycle.EventPrepareForPickup)
}

// PrepareForReturn moves an active loan to the return stage.
func (s *LoanService) PrepareForReturn(sub authz.Subject, loanID uuid.UUID) (*models.Loan, error) {
	return s.fireEvent(sub, loanID, lifecycle.EventPrepareForReturn)
}

// fireEvent authorizes, validates and applies a lifecycle event, committing
// the transition conditionally on the status observed at read time. A
// concurrent change surfaces as a conflict; it is retried once against the
// re-fetched state, then returned to the caller.
func (s *LoanService) fireEvent(sub authz.Subject, loanID uuid.UUID, event lifecycle.Event) (*models.Loan, error) {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		loan, err := s.loadLoan(loanID)
		if err != nil {
			return nil, err
		}

		if err := s.engine.Decide(sub, authz.OperationUpdate, authz.ForLoan(loan)); err != nil {
			return nil, err
		}

		if err := checkEventActor(sub, loan, event); err != nil {
			return nil, err
		}

		next, err := lifecycle.Apply(loan.Status, event)
		if err != nil {
			return nil, err
		}

		if err := s.commitStatus(loan, next); err != nil {
			if apperrors.IsKind(err, apperrors.KindConcurrencyConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}

		loan.Status = next
		go s.notifyLoanEvent(loan, event)
		return loan, nil
	}

	return nil, lastErr
}

// checkEventActor enforces who may fire an event: the acting party is part
// of the event, on top of the engine's coarser update grant.
func checkEventActor(sub authz.Subject, loan *models.Loan, event lifecycle.Event) error {
	if sub.HasRole(models.RoleAdmin) {
		return nil
	}

	switch event {
	case lifecycle.EventOwnerAccepts, lifecycle.EventOwnerDenies,
		lifecycle.EventOwnerConfirmsPickup, lifecycle.EventOwnerDeniesPickup,
		lifecycle.EventOwnerConfirmsReturn, lifecycle.EventOwnerDeniesReturn:
		if !sub.Is(loan.OwnerID()) {
			return apperrors.Forbidden(string(event), loan.ID.String())
		}
	case lifecycle.EventTenantCancels:
		if !sub.Is(loan.TenantID) {
			return apperrors.Forbidden(string(event), loan.ID.String())
		}
	}
	// Prepare events may be fired by either party; the engine has already
	// established the subject is one of them.
	return nil
}

// commitStatus applies the transition conditionally on the observed status.
func (s *LoanService) commitStatus(loan *models.Loan, next models.LoanStatus) error {
	result := s.db.Model(&models.Loan{}).
		Where("id = ? AND status = ?", loan.ID, loan.Status).
		Update("status", next)

	if result.Error != nil {
		return fmt.Errorf("failed to update loan status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.Conflict("loan state changed concurrently")
	}
	return nil
}

func (s *LoanService) loadLoan(id uuid.UUID) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Preload("Item").Preload("Item.Owner").Preload("Tenant").
		Preload("PickupProtocol").Preload("ReturnProtocol").
		First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("loan", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &loan, nil
}

func (s *LoanService) notifyLoanEvent(loan *models.Loan, event lifecycle.Event) {
	if s.notificationService == nil {
		return
	}
	s.notificationService.SendLoanEventNotification(loan, string(event))
}

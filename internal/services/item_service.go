// internal/services/item_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/lifecycle"
	"github.com/lendigo/lendigo-backend/internal/models"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

type ItemService struct {
	db             *gorm.DB
	engine         *authz.Engine
	storageService *StorageService
}

type CreateItemRequest struct {
	Name              string     `json:"name" validate:"required,min=3,max=255"`
	Description       string     `json:"description" validate:"max=5000"`
	CategoryID        *uuid.UUID `json:"category_id,omitempty"`
	PricePerDay       float64    `json:"price_per_day" validate:"required,gt=0"`
	RefundableDeposit float64    `json:"refundable_deposit" validate:"gte=0"`
}

type UpdateItemRequest struct {
	Name              *string    `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description       *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	CategoryID        *uuid.UUID `json:"category_id,omitempty"`
	PricePerDay       *float64   `json:"price_per_day,omitempty" validate:"omitempty,gt=0"`
	RefundableDeposit *float64   `json:"refundable_deposit,omitempty" validate:"omitempty,gte=0"`
}

type ItemSearchParams struct {
	utils.PaginationParams
	OwnerID    *uuid.UUID         `json:"owner_id,omitempty"`
	CategoryID *uuid.UUID         `json:"category_id,omitempty"`
	Status     *models.ItemStatus `json:"status,omitempty"`
	MinPrice   *float64           `json:"min_price,omitempty"`
	MaxPrice   *float64           `json:"max_price,omitempty"`
}

func NewItemService(db *gorm.DB, engine *authz.Engine, storageService *StorageService) *ItemService {
	return &ItemService{
		db:             db,
		engine:         engine,
		storageService: storageService,
	}
}

// CreateItem lists a new item. Items start in approving and become rentable
// only once an admin publishes them.
func (s *ItemService) CreateItem(sub authz.Subject, req *CreateItemRequest) (*models.Item, error) {
	if err := s.engine.Decide(sub, authz.OperationCreate, authz.Creation(authz.KindItem)); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.CategoryID != nil {
		var category models.ItemCategory
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("item category", req.CategoryID.String())
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	item := &models.Item{
		OwnerID:           *sub.ID,
		CategoryID:        req.CategoryID,
		Name:              req.Name,
		Description:       req.Description,
		Status:            models.ItemStatusApproving,
		PricePerDay:       req.PricePerDay,
		RefundableDeposit: req.RefundableDeposit,
	}

	if err := s.db.Create(item).Error; err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.db.Preload("Owner").Preload("Category").First(item, item.ID)

	return item, nil
}

func (s *ItemService) GetItem(sub authz.Subject, id uuid.UUID) (*models.Item, error) {
	item, err := s.loadItem(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForItem(item)); err != nil {
		return nil, err
	}

	return item, nil
}

// SearchItems lists items visible to the subject. Guests and ordinary users
// browse public items plus their own; admins see everything, so the catalog
// review queue is a status filter away.
func (s *ItemService) SearchItems(sub authz.Subject, params ItemSearchParams) ([]models.Item, int64, error) {
	query := s.db.Model(&models.Item{}).Preload("Owner").Preload("Category")

	if !sub.HasRole(models.RoleAdmin) {
		if sub.Authenticated() {
			query = query.Where("status = ? OR owner_id = ?", models.ItemStatusPublic, *sub.ID)
		} else {
			query = query.Where("status = ?", models.ItemStatusPublic)
		}
	}

	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.MinPrice != nil {
		query = query.Where("price_per_day >= ?", *params.MinPrice)
	}
	if params.MaxPrice != nil {
		query = query.Where("price_per_day <= ?", *params.MaxPrice)
	}
	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price_per_day"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var items []models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch items: %w", err)
	}

	return items, total, nil
}

// UpdateItem edits a listing. A published item goes back through approval
// when its public description changes.
func (s *ItemService) UpdateItem(sub authz.Subject, id uuid.UUID, req *UpdateItemRequest) (*models.Item, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	item, err := s.loadItem(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationUpdate, authz.ForItem(item)); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	resubmit := false
	if req.Name != nil {
		updates["name"] = *req.Name
		resubmit = true
	}
	if req.Description != nil {
		updates["description"] = *req.Description
		resubmit = true
	}
	if req.CategoryID != nil {
		var category models.ItemCategory
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("item category", req.CategoryID.String())
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.PricePerDay != nil {
		updates["price_per_day"] = *req.PricePerDay
	}
	if req.RefundableDeposit != nil {
		updates["refundable_deposit"] = *req.RefundableDeposit
	}

	if len(updates) == 0 {
		return item, nil
	}

	if resubmit && item.Status == models.ItemStatusPublic && !sub.HasRole(models.RoleAdmin) {
		updates["status"] = models.ItemStatusApproving
	}

	if err := s.db.Model(item).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}

	return s.loadItem(id)
}

// DeleteItem retires a listing. The row is kept (soft delete via status) so
// finished loans keep their item reference.
func (s *ItemService) DeleteItem(sub authz.Subject, id uuid.UUID) error {
	item, err := s.loadItem(id)
	if err != nil {
		return err
	}

	if err := s.engine.Decide(sub, authz.OperationDelete, authz.ForItem(item)); err != nil {
		return err
	}

	var openLoans int64
	s.db.Model(&models.Loan{}).
		Where("item_id = ? AND status NOT IN ?", item.ID, terminalLoanStatuses()).
		Count(&openLoans)
	if openLoans > 0 {
		return apperrors.New(apperrors.KindOperationNotAllowed,
			"item has loans in progress")
	}

	if err := s.db.Model(item).Update("status", models.ItemStatusDeleted).Error; err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// ApproveItem publishes a listing. Admin only.
func (s *ItemService) ApproveItem(sub authz.Subject, id uuid.UUID) (*models.Item, error) {
	return s.moderateItem(sub, id, models.ItemStatusPublic)
}

// DenyItem rejects a listing. Admin only.
func (s *ItemService) DenyItem(sub authz.Subject, id uuid.UUID) (*models.Item, error) {
	return s.moderateItem(sub, id, models.ItemStatusDenied)
}

func (s *ItemService) moderateItem(sub authz.Subject, id uuid.UUID, status models.ItemStatus) (*models.Item, error) {
	if !sub.HasRole(models.RoleAdmin) {
		if !sub.Authenticated() {
			return nil, apperrors.NotAuthenticated()
		}
		return nil, apperrors.Forbidden("moderate_item", id.String())
	}

	item, err := s.loadItem(id)
	if err != nil {
		return nil, err
	}

	if item.Status != models.ItemStatusApproving {
		return nil, apperrors.Newf(apperrors.KindOperationNotAllowed,
			"only items pending approval can be moderated, not %q", item.Status)
	}

	if err := s.db.Model(item).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update item status: %w", err)
	}

	item.Status = status
	return item, nil
}

// UploadItemImage stores an image on S3 and appends its URL to the listing.
func (s *ItemService) UploadItemImage(sub authz.Subject, id uuid.UUID, file *multipart.FileHeader) (*models.Item, error) {
	item, err := s.loadItem(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationUpdate, authz.ForItem(item)); err != nil {
		return nil, err
	}

	if s.storageService == nil {
		return nil, apperrors.New(apperrors.KindInternal, "image storage is not configured")
	}

	url, err := s.storageService.UploadItemImage(file, item.ID)
	if err != nil {
		return nil, err
	}

	item.Images = append(item.Images, url)
	if err := s.db.Model(item).Update("images", item.Images).Error; err != nil {
		return nil, fmt.Errorf("failed to save image reference: %w", err)
	}

	return item, nil
}

func (s *ItemService) loadItem(id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := s.db.Preload("Owner").Preload("Category").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("item", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &item, nil
}

func terminalLoanStatuses() []models.LoanStatus {
	var terminal []models.LoanStatus
	for _, status := range models.AllLoanStatuses() {
		if lifecycle.Terminal(status) {
			terminal = append(terminal, status)
		}
	}
	return terminal
}

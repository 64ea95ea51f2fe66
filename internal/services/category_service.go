// internal/services/category_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lendigo/lendigo-backend/internal/apperrors"
	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/models"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

type CategoryService struct {
	db     *gorm.DB
	engine *authz.Engine
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

func NewCategoryService(db *gorm.DB, engine *authz.Engine) *CategoryService {
	return &CategoryService{db: db, engine: engine}
}

// ListCategories is open to everyone, guests included.
func (s *CategoryService) ListCategories(sub authz.Subject) ([]models.ItemCategory, error) {
	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForItemCategory(&models.ItemCategory{})); err != nil {
		return nil, err
	}

	var categories []models.ItemCategory
	if err := s.db.Order("name asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) GetCategory(sub authz.Subject, id uuid.UUID) (*models.ItemCategory, error) {
	category, err := s.loadCategory(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForItemCategory(category)); err != nil {
		return nil, err
	}
	return category, nil
}

// CreateCategory is admin only; the engine's category policy set has no
// owner rule, so everything but read requires the admin grant.
func (s *CategoryService) CreateCategory(sub authz.Subject, req *CategoryRequest) (*models.ItemCategory, error) {
	if err := s.engine.Decide(sub, authz.OperationCreate, authz.Creation(authz.KindItemCategory)); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	category := &models.ItemCategory{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) UpdateCategory(sub authz.Subject, id uuid.UUID, req *CategoryRequest) (*models.ItemCategory, error) {
	category, err := s.loadCategory(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationUpdate, authz.ForItemCategory(category)); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	category.Name = req.Name
	category.Description = req.Description
	if err := s.db.Save(category).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteCategory detaches the category from its items before removing it, so
// listings survive taxonomy cleanups.
func (s *CategoryService) DeleteCategory(sub authz.Subject, id uuid.UUID) error {
	category, err := s.loadCategory(id)
	if err != nil {
		return err
	}

	if err := s.engine.Decide(sub, authz.OperationDelete, authz.ForItemCategory(category)); err != nil {
		return err
	}

	if err := s.db.Model(&models.Item{}).
		Where("category_id = ?", category.ID).
		Update("category_id", nil).Error; err != nil {
		return fmt.Errorf("failed to detach items: %w", err)
	}

	if err := s.db.Delete(category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *CategoryService) loadCategory(id uuid.UUID) (*models.ItemCategory, error) {
	var category models.ItemCategory
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("item category", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &category, nil
}

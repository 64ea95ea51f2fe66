// internal/services/review_service.go
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

type ReviewService struct {
	db     *gorm.DB
	engine *authz.Engine
}

type CreateReviewRequest struct {
	LoanID  uuid.UUID `json:"loan_id" validate:"required"`
	Rating  int       `json:"rating" validate:"required,rating"`
	Comment string    `json:"comment" validate:"max=5000"`
}

type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,rating"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=5000"`
}

func NewReviewService(db *gorm.DB, engine *authz.Engine) *ReviewService {
	return &ReviewService{db: db, engine: engine}
}

// CreateReview lets either party rate a finished loan, once each.
func (s *ReviewService) CreateReview(sub authz.Subject, req *CreateReviewRequest) (*models.Review, error) {
	if err := s.engine.Decide(sub, authz.OperationCreate, authz.Creation(authz.KindReview)); err != nil {
		return nil, err
	}

	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var loan models.Loan
	if err := s.db.Preload("Item").First(&loan, req.LoanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("loan", req.LoanID.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if loan.Status != models.LoanStatusReturned {
		return nil, apperrors.New(apperrors.KindOperationNotAllowed,
			"only returned loans can be reviewed")
	}

	if !sub.Is(loan.TenantID) && !sub.Is(loan.OwnerID()) {
		return nil, apperrors.Forbidden("create_review", loan.ID.String())
	}

	var existing int64
	s.db.Model(&models.Review{}).
		Where("loan_id = ? AND author_id = ?", loan.ID, *sub.ID).
		Count(&existing)
	if existing > 0 {
		return nil, apperrors.New(apperrors.KindOperationNotAllowed,
			"loan already reviewed by this user")
	}

	review := &models.Review{
		AuthorID: *sub.ID,
		LoanID:   loan.ID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}

	if err := s.db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.db.Preload("Author").Preload("Loan").First(review, review.ID)

	return review, nil
}

func (s *ReviewService) GetReview(sub authz.Subject, id uuid.UUID) (*models.Review, error) {
	review, err := s.loadReview(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForReview(review)); err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviewsForUser returns the reviews written about loans the user was a
// party to, excluding the ones they authored themselves.
func (s *ReviewService) ListReviewsForUser(sub authz.Subject, userID uuid.UUID, params utils.PaginationParams) ([]models.Review, int64, error) {
	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForReview(&models.Review{})); err != nil {
		return nil, 0, err
	}

	query := s.db.Model(&models.Review{}).Preload("Author").
		Where("author_id <> ?", userID).
		Where("loan_id IN (SELECT id FROM loans WHERE tenant_id = @uid OR item_id IN (SELECT id FROM items WHERE owner_id = @uid))",
			map[string]interface{}{"uid": userID})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	allowedSortFields := []string{"created_at", "rating"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	return reviews, total, nil
}

func (s *ReviewService) UpdateReview(sub authz.Subject, id uuid.UUID, req *UpdateReviewRequest) (*models.Review, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	review, err := s.loadReview(id)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationUpdate, authz.ForReview(review)); err != nil {
		return nil, err
	}

	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = *req.Comment
	}

	if err := s.db.Save(review).Error; err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return review, nil
}

func (s *ReviewService) DeleteReview(sub authz.Subject, id uuid.UUID) error {
	review, err := s.loadReview(id)
	if err != nil {
		return err
	}

	if err := s.engine.Decide(sub, authz.OperationDelete, authz.ForReview(review)); err != nil {
		return err
	}

	if err := s.db.Delete(review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (s *ReviewService) loadReview(id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := s.db.Preload("Author").Preload("Loan").First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("review", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &review, nil
}

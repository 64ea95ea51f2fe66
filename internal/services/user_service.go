// internal/services/user_service.go
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

type UserService struct {
	db     *gorm.DB
	engine *authz.Engine
}

type UpdateProfileRequest struct {
	Username    *string                `json:"username,omitempty" validate:"omitempty,username"`
	ProfileData map[string]interface{} `json:"profile_data,omitempty"`
}

// PublicProfile is the projection anyone may see. The email and the raw
// profile blob stay private to the subject and admins.
type PublicProfile struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	MemberSince   string    `json:"member_since"`
	ItemCount     int64     `json:"item_count"`
	ReviewCount   int64     `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
}

func NewUserService(db *gorm.DB, engine *authz.Engine) *UserService {
	return &UserService{db: db, engine: engine}
}

// GetProfile returns the public profile; the full user record comes through
// GetUser and is gated on profile ownership.
func (s *UserService) GetProfile(sub authz.Subject, userID uuid.UUID) (*PublicProfile, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationRead, authz.ForProfile(user)); err != nil {
		return nil, err
	}

	profile := &PublicProfile{
		ID:          user.ID,
		Username:    user.Username,
		MemberSince: user.CreatedAt.Format("2006-01-02"),
	}

	s.db.Model(&models.Item{}).
		Where("owner_id = ? AND status = ?", user.ID, models.ItemStatusPublic).
		Count(&profile.ItemCount)

	s.db.Model(&models.Review{}).
		Where("author_id <> ?", user.ID).
		Where("loan_id IN (SELECT id FROM loans WHERE tenant_id = @uid OR item_id IN (SELECT id FROM items WHERE owner_id = @uid))",
			map[string]interface{}{"uid": user.ID}).
		Count(&profile.ReviewCount)

	if profile.ReviewCount > 0 {
		var avg float64
		s.db.Model(&models.Review{}).
			Where("author_id <> ?", user.ID).
			Where("loan_id IN (SELECT id FROM loans WHERE tenant_id = @uid OR item_id IN (SELECT id FROM items WHERE owner_id = @uid))",
				map[string]interface{}{"uid": user.ID}).
			Select("COALESCE(AVG(rating), 0)").Scan(&avg)
		profile.AverageRating = avg
	}

	return profile, nil
}

// GetUser returns the full record, which only the subject themselves or an
// admin may read.
func (s *UserService) GetUser(sub authz.Subject, userID uuid.UUID) (*models.User, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	if !sub.HasRole(models.RoleAdmin) && !sub.Is(user.ID) {
		if !sub.Authenticated() {
			return nil, apperrors.NotAuthenticated()
		}
		return nil, apperrors.Forbidden("read_user", user.ID.String())
	}

	return user, nil
}

func (s *UserService) UpdateProfile(sub authz.Subject, userID uuid.UUID, req *UpdateProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	if err := s.engine.Decide(sub, authz.OperationUpdate, authz.ForProfile(user)); err != nil {
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		var taken int64
		s.db.Model(&models.User{}).Where("username = ?", *req.Username).Count(&taken)
		if taken > 0 {
			return nil, apperrors.New(apperrors.KindValidation, "username already taken")
		}
		user.Username = *req.Username
	}

	if req.ProfileData != nil {
		user.ProfileData = models.JSONB(req.ProfileData)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ListUsers is admin only; it backs the moderation screens.
func (s *UserService) ListUsers(sub authz.Subject, params utils.PaginationParams) ([]models.User, int64, error) {
	if !sub.HasRole(models.RoleAdmin) {
		if !sub.Authenticated() {
			return nil, 0, apperrors.NotAuthenticated()
		}
		return nil, 0, apperrors.Forbidden("list_users", "")
	}

	query := s.db.Model(&models.User{})

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("username ILIKE ? OR email ILIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	allowedSortFields := []string{"created_at", "username", "email", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// SetUserStatus suspends, bans or reactivates an account. Admin only.
func (s *UserService) SetUserStatus(sub authz.Subject, userID uuid.UUID, status models.UserStatus) (*models.User, error) {
	if !sub.HasRole(models.RoleAdmin) {
		if !sub.Authenticated() {
			return nil, apperrors.NotAuthenticated()
		}
		return nil, apperrors.Forbidden("set_user_status", userID.String())
	}

	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	if sub.Is(user.ID) {
		return nil, apperrors.New(apperrors.KindOperationNotAllowed,
			"cannot change your own account status")
	}

	if err := s.db.Model(user).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	user.Status = status
	return user, nil
}

func (s *UserService) loadUser(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", id.String())
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/lendigo/lendigo-backend/internal/services"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// POST /reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	review, err := h.reviewService.CreateReview(subjectFromContext(c), &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.CreatedResponse(c, review)
}

// GET /reviews/:id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	review, err := h.reviewService.GetReview(subjectFromContext(c), id)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, review)
}

// PATCH /reviews/:id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	review, err := h.reviewService.UpdateReview(subjectFromContext(c), id, &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, review)
}

// DELETE /reviews/:id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.DeleteReview(subjectFromContext(c), id); err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// GET /users/:id/reviews
func (h *ReviewHandler) ListReviewsForUser(c *gin.Context) {
	userID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewService.ListReviewsForUser(subjectFromContext(c), userID, params)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(reviews, total, params))
}

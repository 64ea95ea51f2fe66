// internal/handlers/item.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lendigo/lendigo-backend/internal/models"
	"github.com/lendigo/lendigo-backend/internal/services"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

type ItemHandler struct {
	itemService *services.ItemService
}

func NewItemHandler(itemService *services.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// POST /items
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req services.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	item, err := h.itemService.CreateItem(subjectFromContext(c), &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.CreatedResponse(c, item)
}

// GET /items/:id
func (h *ItemHandler) GetItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.GetItem(subjectFromContext(c), id)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// GET /items
func (h *ItemHandler) SearchItems(c *gin.Context) {
	params := services.ItemSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if ownerIDStr := c.Query("owner_id"); ownerIDStr != "" {
		if ownerID, err := uuid.Parse(ownerIDStr); err == nil {
			params.OwnerID = &ownerID
		}
	}
	if categoryIDStr := c.Query("category_id"); categoryIDStr != "" {
		if categoryID, err := uuid.Parse(categoryIDStr); err == nil {
			params.CategoryID = &categoryID
		}
	}
	if status := c.Query("status"); status != "" {
		itemStatus := models.ItemStatus(status)
		params.Status = &itemStatus
	}
	if minPrice, ok := queryFloat(c, "min_price"); ok {
		params.MinPrice = &minPrice
	}
	if maxPrice, ok := queryFloat(c, "max_price"); ok {
		params.MaxPrice = &maxPrice
	}

	items, total, err := h.itemService.SearchItems(subjectFromContext(c), params)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(items, total, params.PaginationParams))
}

// PATCH /items/:id
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	item, err := h.itemService.UpdateItem(subjectFromContext(c), id, &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// DELETE /items/:id
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.itemService.DeleteItem(subjectFromContext(c), id); err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// POST /items/:id/approve
func (h *ItemHandler) ApproveItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.ApproveItem(subjectFromContext(c), id)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// POST /items/:id/deny
func (h *ItemHandler) DenyItem(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.itemService.DenyItem(subjectFromContext(c), id)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// POST /items/:id/images
func (h *ItemHandler) UploadItemImage(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "image file is required", nil)
		return
	}

	item, err := h.itemService.UploadItemImage(subjectFromContext(c), id, file)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, item)
}

// internal/handlers/loan.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lendigo/lendigo-backend/internal/authz"
	"github.com/lendigo/lendigo-backend/internal/models"
	"github.com/lendigo/lendigo-backend/internal/services"
	"github.com/lendigo/lendigo-backend/internal/utils"
)

type LoanHandler struct {
	loanService     *services.LoanService
	protocolService *services.ProtocolService
}

func NewLoanHandler(loanService *services.LoanService, protocolService *services.ProtocolService) *LoanHandler {
	return &LoanHandler{
		loanService:     loanService,
		protocolService: protocolService,
	}
}

// POST /loans
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req services.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanService.CreateLoan(subjectFromContext(c), &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.CreatedResponse(c, loan)
}

// GET /loans/:id
func (h *LoanHandler) GetLoan(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.GetLoan(subjectFromContext(c), id)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, loan)
}

// GET /loans
func (h *LoanHandler) SearchLoans(c *gin.Context) {
	params := services.LoanSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if itemIDStr := c.Query("item_id"); itemIDStr != "" {
		if itemID, err := uuid.Parse(itemIDStr); err == nil {
			params.ItemID = &itemID
		}
	}
	if tenantIDStr := c.Query("tenant_id"); tenantIDStr != "" {
		if tenantID, err := uuid.Parse(tenantIDStr); err == nil {
			params.TenantID = &tenantID
		}
	}
	if status := c.Query("status"); status != "" {
		loanStatus := models.LoanStatus(status)
		params.Status = &loanStatus
	}

	loans, total, err := h.loanService.SearchLoans(subjectFromContext(c), params)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(loans, total, params.PaginationParams))
}

// POST /loans/:id/accept
func (h *LoanHandler) AcceptLoan(c *gin.Context) {
	h.fireLoanEvent(c, h.loanService.AcceptLoan)
}

// POST /loans/:id/deny
func (h *LoanHandler) DenyLoan(c *gin.Context) {
	h.fireLoanEvent(c, h.loanService.DenyLoan)
}

// POST /loans/:id/cancel
func (h *LoanHandler) CancelLoan(c *gin.Context) {
	h.fireLoanEvent(c, h.loanService.CancelLoan)
}

// POST /loans/:id/prepare-pickup
func (h *LoanHandler) PrepareForPickup(c *gin.Context) {
	h.fireLoanEvent(c, h.loanService.PrepareForPickup)
}

// POST /loans/:id/prepare-return
func (h *LoanHandler) PrepareForReturn(c *gin.Context) {
	h.fireLoanEvent(c, h.loanService.PrepareForReturn)
}

// POST /loans/:id/pickup-protocol
func (h *LoanHandler) RequestPickupProtocol(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.RequestProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	protocol, err := h.protocolService.RequestPickupProtocol(subjectFromContext(c), id, &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.CreatedResponse(c, protocol)
}

// POST /loans/:id/pickup-protocol/confirm
func (h *LoanHandler) ConfirmPickupProtocol(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.ConfirmPickupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	loan, err := h.protocolService.ConfirmPickupProtocol(subjectFromContext(c), id, &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, loan)
}

// POST /loans/:id/pickup-protocol/deny
func (h *LoanHandler) DenyPickupProtocol(c *gin.Context) {
	h.fireLoanEvent(c, h.protocolService.DenyPickupProtocol)
}

// POST /loans/:id/return-protocol
func (h *LoanHandler) RequestReturnProtocol(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.RequestProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	protocol, err := h.protocolService.RequestReturnProtocol(subjectFromContext(c), id, &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.CreatedResponse(c, protocol)
}

// POST /loans/:id/return-protocol/confirm
func (h *LoanHandler) ConfirmReturnProtocol(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.ConfirmReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "invalid request body", err.Error())
		return
	}

	loan, err := h.protocolService.ConfirmReturnProtocol(subjectFromContext(c), id, &req)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, loan)
}

// POST /loans/:id/return-protocol/deny
func (h *LoanHandler) DenyReturnProtocol(c *gin.Context) {
	h.fireLoanEvent(c, h.protocolService.DenyReturnProtocol)
}

// fireLoanEvent is the shared shape of every bodyless transition endpoint.
func (h *LoanHandler) fireLoanEvent(c *gin.Context, fire func(sub authz.Subject, id uuid.UUID) (*models.Loan, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	loan, err := fire(subjectFromContext(c), id)
	if err != nil {
		utils.FailureResponse(c, err)
		return
	}

	utils.SuccessResponse(c, loan)
}

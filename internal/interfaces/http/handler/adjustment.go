package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
	"github.com/stockledger/backend/internal/interfaces/http/middleware"
)

// AdjustmentHandler handles stock adjustment workflow endpoints
type AdjustmentHandler struct {
	BaseHandler
	adjustmentService *inventoryapp.AdjustmentService
}

// NewAdjustmentHandler creates a new AdjustmentHandler
func NewAdjustmentHandler(adjustmentService *inventoryapp.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentService: adjustmentService}
}

// CreateAdjustmentRequest is the body for requesting an adjustment
type CreateAdjustmentRequest struct {
	StockItemID    string          `json:"stock_item_id" binding:"required,uuid"`
	AdjustmentType string          `json:"adjustment_type" binding:"required,oneof=increase decrease"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required,dgt0"`
	Reason         string          `json:"reason" binding:"required,min=1,max=500"`
	AutoApprove    bool            `json:"auto_approve"`
}

// ReviewAdjustmentRequest is the body for approving or rejecting
type ReviewAdjustmentRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// Create requests a new stock adjustment
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	stockItemID, _ := uuid.Parse(req.StockItemID)

	adj, err := h.adjustmentService.Create(c.Request.Context(), inventoryapp.CreateAdjustmentCommand{
		StockItemID:    stockItemID,
		AdjustmentType: inventory.AdjustmentType(req.AdjustmentType),
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		AutoApprove:    req.AutoApprove,
		ActorID:        actorID,
		ActorRole:      middleware.GetJWTRole(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, adj)
}

// Approve applies a pending adjustment to stock
func (h *AdjustmentHandler) Approve(c *gin.Context) {
	adjustmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid adjustment ID format")
		return
	}

	var req ReviewAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reviewerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	adj, err := h.adjustmentService.Approve(c.Request.Context(), inventoryapp.ReviewAdjustmentCommand{
		AdjustmentID: adjustmentID,
		ReviewerID:   reviewerID,
		Note:         req.Note,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, adj)
}

// Reject declines a pending adjustment without touching stock
func (h *AdjustmentHandler) Reject(c *gin.Context) {
	adjustmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid adjustment ID format")
		return
	}

	var req ReviewAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reviewerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	adj, err := h.adjustmentService.Reject(c.Request.Context(), inventoryapp.ReviewAdjustmentCommand{
		AdjustmentID: adjustmentID,
		ReviewerID:   reviewerID,
		Note:         req.Note,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, adj)
}

// GetByID returns a single adjustment
func (h *AdjustmentHandler) GetByID(c *gin.Context) {
	adjustmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid adjustment ID format")
		return
	}

	adj, err := h.adjustmentService.Get(c.Request.Context(), adjustmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, adj)
}

// List returns a paginated list of adjustments
func (h *AdjustmentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]interface{}{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("adjustment_type"); v != "" {
		filters["adjustment_type"] = v
	}
	if v := c.Query("stock_item_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid stock item ID format")
			return
		}
		filters["stock_item_id"] = id
	}

	result, err := h.adjustmentService.List(c.Request.Context(), buildFilter(req, filters))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Delete removes a draft adjustment
func (h *AdjustmentHandler) Delete(c *gin.Context) {
	adjustmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid adjustment ID format")
		return
	}

	if err := h.adjustmentService.Delete(c.Request.Context(), adjustmentID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// IdempotencyKeyHeader carries the client-chosen key that guards receive
// batches against double submission.
const IdempotencyKeyHeader = "X-Idempotency-Key"

// TransferHandler handles stock transfer workflow endpoints
type TransferHandler struct {
	BaseHandler
	transferService *inventoryapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *inventoryapp.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// TransferLineRequest is one requested line of a transfer
type TransferLineRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required,dgt0"`
}

// CreateTransferRequest is the body for creating a transfer
type CreateTransferRequest struct {
	FromLocationID string                `json:"from_location_id" binding:"required,uuid"`
	ToLocationID   string                `json:"to_location_id" binding:"required,uuid"`
	Lines          []TransferLineRequest `json:"lines" binding:"required,min=1,dive"`
	Note           string                `json:"note" binding:"max=500"`
	Submit         bool                  `json:"submit"`
}

// ReceiveTransferRequest is the body for receiving a shipped transfer
type ReceiveTransferRequest struct {
	Lines []TransferLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CancelTransferRequest is the body for cancelling a transfer
type CancelTransferRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Create creates a new transfer in draft or submitted state
func (h *TransferHandler) Create(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	fromID, _ := uuid.Parse(req.FromLocationID)
	toID, _ := uuid.Parse(req.ToLocationID)

	lines := make([]inventoryapp.TransferLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		lines = append(lines, inventoryapp.TransferLineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
		})
	}

	transfer, err := h.transferService.Create(c.Request.Context(), inventoryapp.CreateTransferCommand{
		FromLocationID: fromID,
		ToLocationID:   toID,
		Lines:          lines,
		Note:           req.Note,
		Submit:         req.Submit,
		ActorID:        actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, transfer)
}

// Submit moves a draft transfer to pending approval
func (h *TransferHandler) Submit(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	transfer, err := h.transferService.Submit(c.Request.Context(), transferID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transfer)
}

// Approve approves a submitted transfer
func (h *TransferHandler) Approve(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	approverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	transfer, err := h.transferService.Approve(c.Request.Context(), transferID, approverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transfer)
}

// Ship withdraws stock at the source and marks the transfer in transit
func (h *TransferHandler) Ship(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	transfer, err := h.transferService.Ship(c.Request.Context(), transferID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transfer)
}

// Receive records received quantities at the destination
func (h *TransferHandler) Receive(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	var req ReceiveTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	lines := make([]inventoryapp.ReceiveTransferLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		lines = append(lines, inventoryapp.ReceiveTransferLineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
		})
	}

	transfer, err := h.transferService.Receive(c.Request.Context(), transferID, lines, actorID, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transfer)
}

// Cancel cancels a transfer, reversing shipped stock if it was in transit
func (h *TransferHandler) Cancel(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	var req CancelTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	transfer, err := h.transferService.Cancel(c.Request.Context(), transferID, actorID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transfer)
}

// GetByID returns a single transfer with its lines
func (h *TransferHandler) GetByID(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	transfer, err := h.transferService.Get(c.Request.Context(), transferID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, transfer)
}

// List returns a paginated list of transfers
func (h *TransferHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]interface{}{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("from_location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid location ID format")
			return
		}
		filters["from_location_id"] = id
	}
	if v := c.Query("to_location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid location ID format")
			return
		}
		filters["to_location_id"] = id
	}

	result, err := h.transferService.List(c.Request.Context(), buildFilter(req, filters))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Delete removes a draft transfer
func (h *TransferHandler) Delete(c *gin.Context) {
	transferID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transfer ID format")
		return
	}

	if err := h.transferService.Delete(c.Request.Context(), transferID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

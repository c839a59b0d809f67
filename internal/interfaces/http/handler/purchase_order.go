package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	procurementapp "github.com/stockledger/backend/internal/application/procurement"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// PurchaseOrderHandler handles purchase order workflow endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orderService *procurementapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orderService *procurementapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

// OrderLineRequest is one requested line of a purchase order
type OrderLineRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required,dgt0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest is the body for creating a purchase order
type CreateOrderRequest struct {
	SupplierID string             `json:"supplier_id" binding:"required,uuid"`
	LocationID string             `json:"location_id" binding:"required,uuid"`
	Lines      []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	Note       string             `json:"note" binding:"max=500"`
	Submit     bool               `json:"submit"`
}

// ReceiveOrderLineRequest is one received line in a receive batch
type ReceiveOrderLineRequest struct {
	ProductID string          `json:"product_id" binding:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required,dgt0"`
}

// ReceiveOrderRequest is the body for receiving goods against an order
type ReceiveOrderRequest struct {
	Lines []ReceiveOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CancelOrderRequest is the body for cancelling an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Create creates a new purchase order
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	supplierID, _ := uuid.Parse(req.SupplierID)
	locationID, _ := uuid.Parse(req.LocationID)

	lines := make([]procurementapp.OrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		lines = append(lines, procurementapp.OrderLineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	order, err := h.orderService.Create(c.Request.Context(), procurementapp.CreateOrderCommand{
		SupplierID: supplierID,
		LocationID: locationID,
		Lines:      lines,
		Note:       req.Note,
		Submit:     req.Submit,
		ActorID:    actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, order)
}

// Submit moves a draft order to pending approval
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Submit(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Approve approves a submitted order
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	approverID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	order, err := h.orderService.Approve(c.Request.Context(), orderID, approverID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Place marks an approved order as sent to the supplier
func (h *PurchaseOrderHandler) Place(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Place(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Receive records a receipt batch against the order and deposits stock
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ReceiveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	lines := make([]procurementapp.ReceiveOrderLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		productID, err := uuid.Parse(l.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		lines = append(lines, procurementapp.ReceiveOrderLineInput{
			ProductID: productID,
			Quantity:  l.Quantity,
		})
	}

	order, err := h.orderService.Receive(c.Request.Context(), orderID, lines, actorID, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// Cancel cancels an order that has not been received against
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// GetByID returns a single order with its lines
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, order)
}

// List returns a paginated list of orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]interface{}{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("supplier_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid supplier ID format")
			return
		}
		filters["supplier_id"] = id
	}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid location ID format")
			return
		}
		filters["location_id"] = id
	}

	result, err := h.orderService.List(c.Request.Context(), buildFilter(req, filters))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Delete removes a draft order
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), orderID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

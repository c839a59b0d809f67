package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/stockledger/backend/internal/application/inventory"
	"github.com/stockledger/backend/internal/domain/inventory"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// parseDateTime parses a datetime string in the formats clients commonly send
func parseDateTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// buildFilter converts a bound ListRequest plus extra filter keys into a
// shared.Filter
func buildFilter(req dto.ListRequest, filters map[string]interface{}) shared.Filter {
	req.ApplyDefaults()
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
		Filters:  filters,
	}
}

// StockHandler handles stock item and ledger API endpoints
type StockHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// SetMinQuantityRequest is the body for updating the low-stock threshold
type SetMinQuantityRequest struct {
	MinQuantity decimal.Decimal `json:"min_quantity" binding:"required"`
}

// CheckAvailabilityRequest asks whether a quantity can be withdrawn
type CheckAvailabilityRequest struct {
	LocationID string          `json:"location_id" binding:"required,uuid"`
	ProductID  string          `json:"product_id" binding:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required,dgt0"`
}

// CheckAvailabilityResponse is the availability check result
type CheckAvailabilityResponse struct {
	Available         bool            `json:"available"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity"`
}

// GetByID returns a single stock item
func (h *StockHandler) GetByID(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock item ID format")
		return
	}

	item, err := h.stockService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// Lookup returns the stock item for a location/product pair
func (h *StockHandler) Lookup(c *gin.Context) {
	locationID, err := uuid.Parse(c.Query("location_id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	item, err := h.stockService.GetItemByLocationAndProduct(c.Request.Context(), locationID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// List returns a paginated list of stock items
func (h *StockHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]interface{}{}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid location ID format")
			return
		}
		filters["location_id"] = id
	}
	if v := c.Query("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		filters["product_id"] = id
	}
	if c.Query("below_minimum") == "true" {
		filters["below_minimum"] = true
	}
	if c.Query("has_stock") == "true" {
		filters["has_stock"] = true
	}
	if c.Query("has_reservations") == "true" {
		filters["has_reservations"] = true
	}

	result, err := h.stockService.ListItems(c.Request.Context(), buildFilter(req, filters))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListByLocation returns the stock items held at one location
func (h *StockHandler) ListByLocation(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("location_id"))
	if err != nil {
		h.BadRequest(c, "Invalid location ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := h.stockService.ListItemsByLocation(c.Request.Context(), locationID, buildFilter(req, nil))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// ListBelowMinimum returns items under their low-stock threshold
func (h *StockHandler) ListBelowMinimum(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := h.stockService.ListBelowMinimum(c.Request.Context(), buildFilter(req, nil))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

// SetMinQuantity updates the low-stock threshold for an item
func (h *StockHandler) SetMinQuantity(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock item ID format")
		return
	}

	var req SetMinQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	item, err := h.stockService.SetMinQuantity(c.Request.Context(), itemID, req.MinQuantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, item)
}

// CheckAvailability reports whether a quantity could currently be withdrawn
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	var req CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	locationID, _ := uuid.Parse(req.LocationID)
	productID, _ := uuid.Parse(req.ProductID)

	available, err := h.stockService.CheckAvailability(c.Request.Context(), locationID, productID, req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CheckAvailabilityResponse{
		Available:         available,
		RequestedQuantity: req.Quantity,
	})
}

// ListMovements returns ledger entries matching the query filters
func (h *StockHandler) ListMovements(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	filter := inventory.MovementFilter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	if v := c.Query("stock_item_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid stock item ID format")
			return
		}
		filter.StockItemID = &id
	}
	if v := c.Query("location_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid location ID format")
			return
		}
		filter.LocationID = &id
	}
	if v := c.Query("product_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		filter.ProductID = &id
	}
	if v := c.Query("movement_type"); v != "" {
		mt := inventory.MovementType(v)
		if !mt.IsValid() {
			h.BadRequest(c, "Unknown movement type")
			return
		}
		filter.MovementType = &mt
	}
	if v := c.Query("start_date"); v != "" {
		t, err := parseDateTime(v)
		if err != nil {
			h.BadRequest(c, "Invalid start date format")
			return
		}
		filter.StartDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseDateTime(v)
		if err != nil {
			h.BadRequest(c, "Invalid end date format")
			return
		}
		filter.EndDate = &t
	}

	result, err := h.stockService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListItemMovements returns the ledger entries for one stock item
func (h *StockHandler) ListItemMovements(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock item ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ApplyDefaults()

	result, err := h.stockService.ListMovements(c.Request.Context(), inventory.MovementFilter{
		StockItemID: &itemID,
		Page:        req.Page,
		PageSize:    req.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Reconcile checks one item's on-hand quantity against its ledger sum
func (h *StockHandler) Reconcile(c *gin.Context) {
	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid stock item ID format")
		return
	}

	report, err := h.stockService.Reconcile(c.Request.Context(), itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}

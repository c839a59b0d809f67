package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	assignmentapp "github.com/stockledger/backend/internal/application/assignment"
	"github.com/stockledger/backend/internal/domain/assignment"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// AssignmentHandler handles equipment assignment workflow endpoints
type AssignmentHandler struct {
	BaseHandler
	assignmentService *assignmentapp.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler
func NewAssignmentHandler(assignmentService *assignmentapp.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// CreateAssignmentRequest is the body for assigning stock to an employee
type CreateAssignmentRequest struct {
	StockItemID        string          `json:"stock_item_id" binding:"required,uuid"`
	EmployeeID         string          `json:"employee_id" binding:"required,uuid"`
	Quantity           decimal.Decimal `json:"quantity" binding:"required,dgt0"`
	Purpose            string          `json:"purpose" binding:"max=500"`
	ExpectedReturnDate string          `json:"expected_return_date"`
}

// ReturnAssignmentRequest is the body for a full or partial return
type ReturnAssignmentRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required,dgt0"`
	Note     string          `json:"note" binding:"max=500"`
}

// WriteOffAssignmentRequest is the body for a lost/damaged report
type WriteOffAssignmentRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// Create assigns stock to an employee, reserving the quantity
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req CreateAssignmentRequest
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
	employeeID, _ := uuid.Parse(req.EmployeeID)

	cmd := assignmentapp.CreateAssignmentCommand{
		StockItemID: stockItemID,
		EmployeeID:  employeeID,
		Quantity:    req.Quantity,
		Purpose:     req.Purpose,
		ActorID:     actorID,
	}
	if req.ExpectedReturnDate != "" {
		t, err := parseDateTime(req.ExpectedReturnDate)
		if err != nil {
			h.BadRequest(c, "Invalid expected return date format")
			return
		}
		cmd.ExpectedReturnDate = &t
	}

	a, err := h.assignmentService.Create(c.Request.Context(), cmd)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, a)
}

// Acknowledge marks an assignment as picked up and in use
func (h *AssignmentHandler) Acknowledge(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID format")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	a, err := h.assignmentService.Acknowledge(c.Request.Context(), assignmentID, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, a)
}

// Return records a full or partial return of assigned stock
func (h *AssignmentHandler) Return(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID format")
		return
	}

	var req ReturnAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	a, err := h.assignmentService.Return(c.Request.Context(), assignmentapp.ReturnAssignmentCommand{
		AssignmentID: assignmentID,
		Quantity:     req.Quantity,
		Note:         req.Note,
		ActorID:      actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, a)
}

// MarkLost writes off outstanding assigned stock as lost
func (h *AssignmentHandler) MarkLost(c *gin.Context) {
	h.writeOff(c, h.assignmentService.MarkLost)
}

// MarkDamaged writes off outstanding assigned stock as damaged
func (h *AssignmentHandler) MarkDamaged(c *gin.Context) {
	h.writeOff(c, h.assignmentService.MarkDamaged)
}

func (h *AssignmentHandler) writeOff(c *gin.Context, apply func(context.Context, assignmentapp.WriteOffAssignmentCommand) (*assignment.Assignment, error)) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID format")
		return
	}

	var req WriteOffAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "User identity required")
		return
	}

	a, err := apply(c.Request.Context(), assignmentapp.WriteOffAssignmentCommand{
		AssignmentID: assignmentID,
		Note:         req.Note,
		ActorID:      actorID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, a)
}

// GetByID returns a single assignment with its history
func (h *AssignmentHandler) GetByID(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid assignment ID format")
		return
	}

	a, err := h.assignmentService.Get(c.Request.Context(), assignmentID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, a)
}

// List returns a paginated list of assignments
func (h *AssignmentHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filters := map[string]interface{}{}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("employee_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.BadRequest(c, "Invalid employee ID format")
			return
		}
		filters["employee_id"] = id
	}
	if c.Query("active") == "true" {
		filters["active"] = true
	}

	result, err := h.assignmentService.List(c.Request.Context(), buildFilter(req, filters))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListByEmployee returns the assignments held by one employee
func (h *AssignmentHandler) ListByEmployee(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("employee_id"))
	if err != nil {
		h.BadRequest(c, "Invalid employee ID format")
		return
	}

	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, err := h.assignmentService.ListByEmployee(c.Request.Context(), employeeID, buildFilter(req, nil))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, items)
}

package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
)

// TicketHandlerInterface defines the contract for ticket handlers
type TicketHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
}

// TicketHandler handles support ticket HTTP requests
type TicketHandler struct {
	flow      businessflow.TicketFlow
	validator *validator.Validate
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(flow businessflow.TicketFlow) *TicketHandler {
	return &TicketHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *TicketHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TicketHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create Ticket
// @Description Open a new support ticket from the console form or public intake
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body dto.CreateTicketRequest true "Ticket fields"
// @Success 201 {object} dto.APIResponse{data=dto.CreateTicketResponse} "Ticket created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tickets [post]
func (h *TicketHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.CreateTicket(createRequestContext(c, "/api/v1/tickets"), &req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidTicketChannel(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid channel", "INVALID_CHANNEL", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok {
			switch be.Code {
			case "VALIDATION":
				return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", be.Code, be.Error())
			}
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create ticket", "CREATE_TICKET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Ticket created successfully", result)
}

// List Tickets
// @Description List tickets with optional filters and pagination
// @Tags Tickets
// @Accept json
// @Produce json
// @Param status query string false "Status filter"
// @Param issue_type query string false "Issue type filter"
// @Param ms_pic_user_id query integer false "Assignee filter"
// @Param fid query string false "Franchise id filter"
// @Param oid query string false "Outlet id filter"
// @Param hidden query boolean false "Hidden flag filter"
// @Param start_date query string false "Start date (RFC3339)"
// @Param end_date query string false "End date (RFC3339)"
// @Param page query integer false "Page number (default: 1)"
// @Param page_size query integer false "Items per page (default: 20, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTicketsResponse} "Tickets retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tickets [get]
func (h *TicketHandler) List(c fiber.Ctx) error {
	req := &dto.ListTicketsRequest{}

	if v := c.Query("status"); v != "" {
		req.Status = &v
	}
	if v := c.Query("issue_type"); v != "" {
		req.IssueType = &v
	}
	if v := c.Query("ms_pic_user_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			u := uint(n)
			req.MSPICUserID = &u
		}
	}
	if v := c.Query("fid"); v != "" {
		req.FID = &v
	}
	if v := c.Query("oid"); v != "" {
		req.OID = &v
	}
	if v := c.Query("hidden"); v != "" {
		lv := strings.ToLower(v)
		if lv == "true" || lv == "1" {
			b := true
			req.Hidden = &b
		} else if lv == "false" || lv == "0" {
			b := false
			req.Hidden = &b
		}
	}
	if v := c.Query("start_date"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			req.StartDate = &parsed
		}
	}
	if v := c.Query("end_date"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			req.EndDate = &parsed
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			req.Page = uint(n)
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			req.PageSize = uint(n)
		}
	}

	result, err := h.flow.ListTickets(createRequestContext(c, "/api/v1/tickets"), req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date must be before end date", "START_DATE_AFTER_END_DATE", nil)
		}
		if businessflow.IsInvalidTicketStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status filter", "INVALID_STATUS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tickets", "LIST_TICKETS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tickets retrieved successfully", result)
}

// Get Ticket
// @Description Retrieve one ticket with its full audit history and survey state
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path integer true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.TicketDetailResponse} "Ticket retrieved successfully"
// @Failure 400 {object} dto.APIResponse "Invalid ticket ID"
// @Failure 404 {object} dto.APIResponse "Ticket not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tickets/{id} [get]
func (h *TicketHandler) Get(c fiber.Ctx) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_TICKET_ID", nil)
	}

	result, err := h.flow.GetTicketDetail(createRequestContext(c, "/api/v1/tickets/:id"), ticketID, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve ticket", "GET_TICKET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ticket retrieved successfully", result)
}

// Update Ticket
// @Description Apply a sparse partial update. Only changed fields are written and audited; closing transitions issue a survey token.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path integer true "Ticket ID"
// @Param request body dto.UpdateTicketRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateTicketResponse} "Ticket updated successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Ticket not found"
// @Failure 409 {object} dto.APIResponse "Ticket was modified concurrently"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tickets/{id} [patch]
func (h *TicketHandler) Update(c fiber.Ctx) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_TICKET_ID", nil)
	}

	var req dto.UpdateTicketRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.UpdateTicket(createRequestContext(c, "/api/v1/tickets/:id"), ticketID, &req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidTicketStatus(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid status value", "INVALID_STATUS", nil)
		}
		if businessflow.IsTicketConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Ticket was modified by another request", "TICKET_CONFLICT", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update ticket", "UPDATE_TICKET_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ticket updated successfully", result)
}

// parseIDParam reads a positive uint path parameter
func parseIDParam(c fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(n), nil
}

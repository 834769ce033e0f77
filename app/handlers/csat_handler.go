package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
)

// CSATHandlerInterface defines the contract for survey handlers
type CSATHandlerInterface interface {
	Status(c fiber.Ctx) error
	Submit(c fiber.Ctx) error
	SendLink(c fiber.Ctx) error
}

// CSATHandler handles merchant satisfaction survey HTTP requests
type CSATHandler struct {
	flow      businessflow.CSATFlow
	validator *validator.Validate
}

// NewCSATHandler creates a new survey handler
func NewCSATHandler(flow businessflow.CSATFlow) *CSATHandler {
	return &CSATHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *CSATHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CSATHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Status Survey
// @Description Public survey landing state for a token holder
// @Tags CSAT
// @Accept json
// @Produce json
// @Param token path string true "Survey token"
// @Success 200 {object} dto.APIResponse{data=dto.CSATStatusResponse} "Survey state retrieved"
// @Failure 404 {object} dto.APIResponse "Token not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/csat/{token} [get]
func (h *CSATHandler) Status(c fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Survey token is required", "MISSING_TOKEN", nil)
	}

	result, err := h.flow.GetSurveyStatus(createRequestContext(c, "/api/v1/csat/:token"), token, clientMetadata(c))
	if err != nil {
		if businessflow.IsSurveyTokenNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Survey not found", "SURVEY_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load survey", "SURVEY_STATUS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Survey state retrieved", result)
}

// Submit Survey
// @Description Record the merchant's one-shot survey answer
// @Tags CSAT
// @Accept json
// @Produce json
// @Param token path string true "Survey token"
// @Param request body dto.SubmitCSATRequest true "Survey scores and feedback"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitCSATResponse} "Survey submitted successfully"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Token not found"
// @Failure 409 {object} dto.APIResponse "Survey already submitted"
// @Failure 410 {object} dto.APIResponse "Survey token expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/csat/{token} [post]
func (h *CSATHandler) Submit(c fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Survey token is required", "MISSING_TOKEN", nil)
	}

	var req dto.SubmitCSATRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.SubmitResponse(createRequestContext(c, "/api/v1/csat/:token"), token, &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSurveyTokenNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Survey not found", "SURVEY_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidSurveyRating(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rating must be between 1 and 5", "INVALID_RATING", nil)
		}
		if businessflow.IsSurveyTokenExpired(err) {
			return h.ErrorResponse(c, fiber.StatusGone, "Survey token has expired", "SURVEY_EXPIRED", nil)
		}
		if businessflow.IsSurveyAlreadyUsed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Survey was already submitted", "SURVEY_ALREADY_SUBMITTED", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to submit survey", "SURVEY_SUBMIT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Survey submitted successfully", result)
}

// SendLink Survey
// @Description Deliver the active survey link to the ticket's merchant over WhatsApp
// @Tags CSAT
// @Accept json
// @Produce json
// @Param id path integer true "Ticket ID"
// @Success 200 {object} dto.APIResponse{data=dto.SendCSATLinkResponse} "Survey link sent"
// @Failure 400 {object} dto.APIResponse "Ticket has no contact channel or is not closed"
// @Failure 404 {object} dto.APIResponse "Ticket or survey not found"
// @Failure 502 {object} dto.APIResponse "Delivery provider error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/tickets/{id}/csat-link [post]
func (h *CSATHandler) SendLink(c fiber.Ctx) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid ticket ID", "INVALID_TICKET_ID", nil)
	}

	result, err := h.flow.SendSurveyLink(createRequestContext(c, "/api/v1/tickets/:id/csat-link"), ticketID, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Ticket not found", "TICKET_NOT_FOUND", nil)
		}
		if businessflow.IsSurveyNotIssued(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No survey has been issued for this ticket", "SURVEY_NOT_ISSUED", nil)
		}
		if businessflow.IsTicketNotClosed(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Ticket is not in a closed status", "TICKET_NOT_CLOSED", nil)
		}
		if businessflow.IsMissingContactChannel(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Ticket has no phone number", "MISSING_CONTACT_CHANNEL", nil)
		}
		if businessflow.IsSurveyTokenExpired(err) {
			return h.ErrorResponse(c, fiber.StatusGone, "Survey token has expired", "SURVEY_EXPIRED", nil)
		}
		if businessflow.IsSurveyAlreadyUsed(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Survey was already submitted", "SURVEY_ALREADY_SUBMITTED", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "UPSTREAM_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Failed to deliver survey link", be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to send survey link", "SEND_SURVEY_LINK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Survey link sent", result)
}

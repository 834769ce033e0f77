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

// TaskRequestHandlerInterface defines the contract for task request handlers
type TaskRequestHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Review(c fiber.Ctx) error
	Resubmit(c fiber.Ctx) error
	Sync(c fiber.Ctx) error
}

// TaskRequestHandler handles approval workflow HTTP requests
type TaskRequestHandler struct {
	flow      businessflow.TaskRequestFlow
	validator *validator.Validate
}

// NewTaskRequestHandler creates a new task request handler
func NewTaskRequestHandler(flow businessflow.TaskRequestFlow) *TaskRequestHandler {
	return &TaskRequestHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *TaskRequestHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TaskRequestHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create Task Request
// @Description Propose an external tracking task; lands in Pending Approval
// @Tags TaskRequests
// @Accept json
// @Produce json
// @Param request body dto.CreateTaskRequestRequest true "Task request fields"
// @Success 201 {object} dto.APIResponse{data=dto.CreateTaskRequestResponse} "Task request created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 401 {object} dto.APIResponse "Missing identity"
// @Failure 404 {object} dto.APIResponse "Linked ticket not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/task-requests [post]
func (h *TaskRequestHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTaskRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.CreateTaskRequest(createRequestContext(c, "/api/v1/task-requests"), &req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsTicketNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Linked ticket not found", "TICKET_NOT_FOUND", nil)
		}
		if businessflow.IsTooManyAttachments(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many attachments", "TOO_MANY_ATTACHMENTS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task request", "CREATE_TASK_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Task request created", result)
}

// List Task Requests
// @Description List approval workflow rows with optional filters
// @Tags TaskRequests
// @Accept json
// @Produce json
// @Param status query string false "Status filter"
// @Param ticket_id query integer false "Linked ticket filter"
// @Param mine query boolean false "Only requests created by the caller"
// @Param start_date query string false "Start date (RFC3339)"
// @Param end_date query string false "End date (RFC3339)"
// @Param page query integer false "Page number (default: 1)"
// @Param page_size query integer false "Items per page (default: 20, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListTaskRequestsResponse} "Task requests retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/task-requests [get]
func (h *TaskRequestHandler) List(c fiber.Ctx) error {
	req := &dto.ListTaskRequestsRequest{}

	if v := c.Query("status"); v != "" {
		req.Status = &v
	}
	if v := c.Query("ticket_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			u := uint(n)
			req.TicketID = &u
		}
	}
	if v := strings.ToLower(c.Query("mine")); v == "true" || v == "1" {
		req.Mine = true
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

	result, err := h.flow.ListTaskRequests(createRequestContext(c, "/api/v1/task-requests"), req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date must be before end date", "START_DATE_AFTER_END_DATE", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list task requests", "LIST_TASK_REQUESTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task requests retrieved", result)
}

// Get Task Request
// @Description Retrieve one approval workflow row
// @Tags TaskRequests
// @Accept json
// @Produce json
// @Param id path integer true "Task request ID"
// @Success 200 {object} dto.APIResponse{data=dto.TaskRequestItem} "Task request retrieved"
// @Failure 404 {object} dto.APIResponse "Task request not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/task-requests/{id} [get]
func (h *TaskRequestHandler) Get(c fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task request ID", "INVALID_TASK_REQUEST_ID", nil)
	}

	result, err := h.flow.GetTaskRequest(createRequestContext(c, "/api/v1/task-requests/:id"), id, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsTaskRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task request not found", "TASK_REQUEST_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve task request", "GET_TASK_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task request retrieved", result)
}

// Review Task Request
// @Description Approve or reject a pending task request. Approval creates the external task first, then persists the decision.
// @Tags TaskRequests
// @Accept json
// @Produce json
// @Param id path integer true "Task request ID"
// @Param request body dto.ReviewTaskRequestRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=dto.ReviewTaskRequestResponse} "Decision recorded"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Reviewer is not an admin"
// @Failure 404 {object} dto.APIResponse "Task request not found"
// @Failure 409 {object} dto.APIResponse "Request already decided"
// @Failure 502 {object} dto.APIResponse "External task creation failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/task-requests/{id}/review [post]
func (h *TaskRequestHandler) Review(c fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task request ID", "INVALID_TASK_REQUEST_ID", nil)
	}

	var req dto.ReviewTaskRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.ReviewTaskRequest(createRequestContext(c, "/api/v1/task-requests/:id/review"), id, &req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsReviewerNotAdmin(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only admins can review task requests", "FORBIDDEN", nil)
		}
		if businessflow.IsTaskRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task request not found", "TASK_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidRequestAction(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Action must be approve or reject", "INVALID_ACTION", nil)
		}
		if businessflow.IsRejectionNoteRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rejection requires a note", "REJECTION_NOTE_REQUIRED", nil)
		}
		if businessflow.IsNotPendingApproval(err) || businessflow.IsTaskRequestConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Task request was already decided", "TASK_REQUEST_CONFLICT", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "UPSTREAM_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "External task creation failed", be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to review task request", "REVIEW_TASK_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Decision recorded", result)
}

// Resubmit Task Request
// @Description Requester revises a rejected task request; it returns to Pending Approval with decision fields cleared
// @Tags TaskRequests
// @Accept json
// @Produce json
// @Param id path integer true "Task request ID"
// @Param request body dto.ResubmitTaskRequestRequest true "Revised fields"
// @Success 200 {object} dto.APIResponse{data=dto.ResubmitTaskRequestResponse} "Task request resubmitted"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Caller is not the original requester"
// @Failure 404 {object} dto.APIResponse "Task request not found"
// @Failure 409 {object} dto.APIResponse "Request is not rejected"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/task-requests/{id}/resubmit [post]
func (h *TaskRequestHandler) Resubmit(c fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid task request ID", "INVALID_TASK_REQUEST_ID", nil)
	}

	var req dto.ResubmitTaskRequestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.ResubmitTaskRequest(createRequestContext(c, "/api/v1/task-requests/:id/resubmit"), id, &req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsTaskRequestNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task request not found", "TASK_REQUEST_NOT_FOUND", nil)
		}
		if businessflow.IsNotOriginalRequester(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only the original requester can resubmit", "FORBIDDEN", nil)
		}
		if businessflow.IsTooManyAttachments(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Too many attachments", "TOO_MANY_ATTACHMENTS", nil)
		}
		if businessflow.IsNotRejected(err) || businessflow.IsTaskRequestConflict(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Task request is not rejected", "TASK_REQUEST_CONFLICT", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to resubmit task request", "RESUBMIT_TASK_REQUEST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task request resubmitted", result)
}

// Sync Task Statuses
// @Description Refresh external task statuses for all linked tickets
// @Tags TaskRequests
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SyncTaskStatusesResponse} "Statuses refreshed"
// @Failure 403 {object} dto.APIResponse "Caller is not an admin"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/clickup/sync [post]
func (h *TaskRequestHandler) Sync(c fiber.Ctx) error {
	result, err := h.flow.SyncTaskStatuses(createRequestContextWithTimeout(c, "/api/v1/admin/clickup/sync", 5*time.Minute), actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsReviewerNotAdmin(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only admins can run status sync", "FORBIDDEN", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to sync task statuses", "SYNC_TASK_STATUSES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Statuses refreshed", result)
}

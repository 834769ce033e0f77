package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
)

// UserHandlerInterface defines the contract for user handlers
type UserHandlerInterface interface {
	List(c fiber.Ctx) error
}

// UserHandler handles console operator HTTP requests
type UserHandler struct {
	flow businessflow.UserFlow
}

// NewUserHandler creates a new user handler
func NewUserHandler(flow businessflow.UserFlow) *UserHandler {
	return &UserHandler{flow: flow}
}

func (h *UserHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *UserHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List Users
// @Description List active console operators for assignment pickers
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListUsersResponse} "Users retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/users [get]
func (h *UserHandler) List(c fiber.Ctx) error {
	result, err := h.flow.ListActiveUsers(createRequestContext(c, "/api/v1/users"), actorFromRequest(c), clientMetadata(c))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list users", "LIST_USERS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Users retrieved", result)
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
)

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	Dashboard(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// AnalyticsHandler handles reporting HTTP requests
type AnalyticsHandler struct {
	flow businessflow.AnalyticsFlow
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(flow businessflow.AnalyticsFlow) *AnalyticsHandler {
	return &AnalyticsHandler{flow: flow}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func parseAnalyticsRequest(c fiber.Ctx) *dto.AnalyticsRequest {
	req := &dto.AnalyticsRequest{}
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
	return req
}

// Dashboard Analytics
// @Description Aggregate ticket and survey counts for the dashboard charts
// @Tags Analytics
// @Accept json
// @Produce json
// @Param start_date query string false "Window start (RFC3339)"
// @Param end_date query string false "Window end (RFC3339)"
// @Success 200 {object} dto.APIResponse{data=dto.DashboardResponse} "Dashboard retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid date window"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c fiber.Ctx) error {
	req := parseAnalyticsRequest(c)

	result, err := h.flow.Dashboard(createRequestContext(c, "/api/v1/analytics/dashboard"), req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date must be before end date", "START_DATE_AFTER_END_DATE", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build dashboard", "DASHBOARD_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard retrieved", result)
}

// Export Analytics
// @Description Download the dashboard aggregates as an Excel workbook
// @Tags Analytics
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param start_date query string false "Window start (RFC3339)"
// @Param end_date query string false "Window end (RFC3339)"
// @Success 200 {string} string "Excel file"
// @Failure 400 {object} dto.APIResponse "Invalid date window"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/analytics/export [get]
func (h *AnalyticsHandler) Export(c fiber.Ctx) error {
	req := parseAnalyticsRequest(c)

	filename, data, err := h.flow.Export(createRequestContextWithTimeout(c, "/api/v1/analytics/export", 2*time.Minute), req, actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Start date must be before end date", "START_DATE_AFTER_END_DATE", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate Excel", "EXPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
)

// MerchantHandlerInterface defines the contract for merchant directory handlers
type MerchantHandlerInterface interface {
	Import(c fiber.Ctx) error
	Lookup(c fiber.Ctx) error
}

// MerchantHandler handles merchant directory HTTP requests
type MerchantHandler struct {
	flow      businessflow.MerchantFlow
	validator *validator.Validate
}

// NewMerchantHandler creates a new merchant handler
func NewMerchantHandler(flow businessflow.MerchantFlow) *MerchantHandler {
	return &MerchantHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *MerchantHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *MerchantHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Import Merchants
// @Description Pull the merchant directory from the POS provider and upsert it locally
// @Tags Merchants
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ImportMerchantsResponse} "Import completed"
// @Failure 403 {object} dto.APIResponse "Caller is not an admin"
// @Failure 502 {object} dto.APIResponse "Directory provider error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/admin/merchants/import [post]
func (h *MerchantHandler) Import(c fiber.Ctx) error {
	result, err := h.flow.ImportMerchants(createRequestContextWithTimeout(c, "/api/v1/admin/merchants/import", 10*time.Minute), actorFromRequest(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsReviewerNotAdmin(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only admins can run the import", "FORBIDDEN", nil)
		}
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "UPSTREAM_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Directory provider error", be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to import merchants", "IMPORT_MERCHANTS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Import completed", result)
}

// Lookup Merchant
// @Description Resolve display names for a fid and optional oid
// @Tags Merchants
// @Accept json
// @Produce json
// @Param fid query string true "Franchise id"
// @Param oid query string false "Outlet id"
// @Success 200 {object} dto.APIResponse{data=dto.MerchantLookupResponse} "Lookup completed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/merchants/lookup [get]
func (h *MerchantHandler) Lookup(c fiber.Ctx) error {
	req := &dto.MerchantLookupRequest{FID: c.Query("fid")}
	if v := c.Query("oid"); v != "" {
		req.OID = &v
	}

	if err := h.validator.Struct(req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", collectValidationErrors(err))
	}

	result, err := h.flow.Lookup(createRequestContext(c, "/api/v1/merchants/lookup"), req, clientMetadata(c))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to look up merchant", "MERCHANT_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lookup completed", result)
}

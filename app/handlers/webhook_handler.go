package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/merchantops/support-console/app/dto"
	businessflow "github.com/merchantops/support-console/business_flow"
)

// WebhookHandlerInterface defines the contract for inbound webhook handlers
type WebhookHandlerInterface interface {
	TwilioInbound(c fiber.Ctx) error
}

// WebhookHandler handles provider callbacks
type WebhookHandler struct {
	flow businessflow.WebhookFlow
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(flow businessflow.WebhookFlow) *WebhookHandler {
	return &WebhookHandler{flow: flow}
}

func (h *WebhookHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *WebhookHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// TwilioInbound Webhook
// @Description Accept an inbound WhatsApp message from Twilio and open a ticket. The request signature is verified before any write.
// @Tags Webhooks
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 201 {object} dto.APIResponse{data=dto.WebhookIntakeResponse} "Ticket created from message"
// @Failure 400 {object} dto.APIResponse "Empty message body"
// @Failure 403 {object} dto.APIResponse "Signature verification failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/webhooks/twilio [post]
func (h *WebhookHandler) TwilioInbound(c fiber.Ctx) error {
	var msg dto.TwilioInboundMessage
	if err := c.Bind().Form(&msg); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid form payload", "INVALID_REQUEST", err.Error())
	}

	// Signature covers the full callback URL plus every posted parameter
	params := make(map[string]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})
	requestURL := c.BaseURL() + c.OriginalURL()
	signature := c.Get("X-Twilio-Signature")

	result, err := h.flow.HandleTwilioInbound(createRequestContext(c, "/api/v1/webhooks/twilio"), signature, requestURL, params, &msg, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidWebhookSignature(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Signature verification failed", "INVALID_SIGNATURE", nil)
		}
		if businessflow.IsEmptyWebhookBody(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Message body is empty", "EMPTY_BODY", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to process inbound message", "WEBHOOK_INTAKE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Ticket created from message", result)
}

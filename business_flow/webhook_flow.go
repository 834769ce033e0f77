package businessflow

import (
	"context"
	"strings"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/utils"
)

// WebhookFlow handles signed inbound messages from the messaging provider
type WebhookFlow interface {
	HandleTwilioInbound(ctx context.Context, signature, requestURL string, params map[string]string, msg *dto.TwilioInboundMessage, metadata *ClientMetadata) (*dto.WebhookIntakeResponse, error)
}

// WebhookFlowImpl implements WebhookFlow
type WebhookFlowImpl struct {
	twilio     services.TwilioService
	ticketFlow TicketFlow
}

func NewWebhookFlow(twilio services.TwilioService, ticketFlow TicketFlow) WebhookFlow {
	return &WebhookFlowImpl{
		twilio:     twilio,
		ticketFlow: ticketFlow,
	}
}

// HandleTwilioInbound verifies the provider signature before anything else;
// an invalid signature produces no writes. A valid message opens a new ticket
// on the whatsapp channel.
func (f *WebhookFlowImpl) HandleTwilioInbound(ctx context.Context, signature, requestURL string, params map[string]string, msg *dto.TwilioInboundMessage, metadata *ClientMetadata) (*dto.WebhookIntakeResponse, error) {
	if !f.twilio.ValidateSignature(signature, requestURL, params) {
		return nil, ErrInvalidWebhookSignature
	}
	if strings.TrimSpace(msg.Body) == "" {
		return nil, ErrEmptyWebhookBody
	}

	phone := strings.TrimPrefix(msg.From, "whatsapp:")

	create := &dto.CreateTicketRequest{
		Channel:          utils.ToPtr(string(models.TicketChannelWhatsApp)),
		PhoneNumber:      utils.ToPtr(phone),
		IssueDescription: utils.ToPtr(msg.Body),
	}
	if msg.ProfileName != "" {
		create.MerchantName = utils.ToPtr(msg.ProfileName)
	}

	created, err := f.ticketFlow.CreateTicket(ctx, create, nil, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.WebhookIntakeResponse{
		Message:  "Ticket created from inbound message",
		TicketID: created.ID,
	}, nil
}

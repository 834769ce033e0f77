package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	testutil "github.com/merchantops/support-console/testing"
)

const webhookURL = "https://console.test/api/v1/webhooks/twilio"

func signedParams(authToken string, msg *dto.TwilioInboundMessage) (string, map[string]string) {
	params := map[string]string{
		"MessageSid":  msg.MessageSID,
		"From":        msg.From,
		"To":          msg.To,
		"Body":        msg.Body,
		"ProfileName": msg.ProfileName,
	}
	return services.ComputeTwilioSignature(authToken, webhookURL, params), params
}

func TestHandleTwilioInbound(t *testing.T) {
	ctx := context.Background()

	newFlow := func(fx *testutil.Fixtures) (WebhookFlow, *services.MockTwilioService) {
		twilio := services.NewMockTwilioService("auth-token")
		return NewWebhookFlow(twilio, newTicketFlowForTest(fx)), twilio
	}

	t.Run("OpensWhatsAppTicket", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow, _ := newFlow(fx)
		msg := &dto.TwilioInboundMessage{
			MessageSID:  "SM123",
			From:        "whatsapp:+628123456789",
			To:          "whatsapp:+628000000000",
			Body:        "My EDC terminal keeps rebooting",
			ProfileName: "Pak Budi",
		}
		signature, params := signedParams("auth-token", msg)

		resp, err := flow.HandleTwilioInbound(ctx, signature, webhookURL, params, msg, testMetadata())
		require.NoError(t, err)

		ticket, err := fx.Tickets.ByID(ctx, resp.TicketID)
		require.NoError(t, err)
		require.NotNil(t, ticket)
		assert.Equal(t, models.TicketChannelWhatsApp, ticket.Channel)
		require.NotNil(t, ticket.PhoneNumber)
		assert.Equal(t, "+628123456789", *ticket.PhoneNumber)
		require.NotNil(t, ticket.MerchantName)
		assert.Equal(t, "Pak Budi", *ticket.MerchantName)
		require.NotNil(t, ticket.IssueDescription)
		assert.Equal(t, msg.Body, *ticket.IssueDescription)
	})

	t.Run("InvalidSignatureWritesNothing", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow, _ := newFlow(fx)
		msg := &dto.TwilioInboundMessage{From: "whatsapp:+628123456789", Body: "hello"}
		_, params := signedParams("auth-token", msg)

		_, err := flow.HandleTwilioInbound(ctx, "forged-signature", webhookURL, params, msg, testMetadata())
		assert.True(t, IsInvalidWebhookSignature(err))

		count, _ := fx.Tickets.Count(ctx, models.SupportRequestFilter{})
		assert.Equal(t, int64(0), count)
	})

	t.Run("EmptyBodyRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow, _ := newFlow(fx)
		msg := &dto.TwilioInboundMessage{From: "whatsapp:+628123456789", Body: "   "}
		signature, params := signedParams("auth-token", msg)

		_, err := flow.HandleTwilioInbound(ctx, signature, webhookURL, params, msg, testMetadata())
		assert.True(t, IsEmptyWebhookBody(err))
	})
}

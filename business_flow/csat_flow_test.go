package businessflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/config"
	"github.com/merchantops/support-console/models"
	testutil "github.com/merchantops/support-console/testing"
	"github.com/merchantops/support-console/utils"
)

func newCSATFlowForTest(fx *testutil.Fixtures, twilio services.TwilioService) CSATFlow {
	return NewCSATFlow(
		nil,
		fx.Tickets,
		fx.History,
		fx.Tokens,
		fx.Responses,
		fx.Users,
		twilio,
		config.CSATConfig{SurveyBaseURL: "https://survey.test/csat"},
	)
}

func validSubmission() *dto.SubmitCSATRequest {
	return &dto.SubmitCSATRequest{
		SupportScore: 5,
		ProductScore: 4,
	}
}

func TestGetSurveyStatus(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
	ctx := context.Background()

	t.Run("UnknownToken", func(t *testing.T) {
		_, err := flow.GetSurveyStatus(ctx, "does-not-exist", testMetadata())
		assert.True(t, IsSurveyTokenNotFound(err))
	})

	t.Run("ActiveToken", func(t *testing.T) {
		_, token := fx.CreateClosedTicket(models.TicketStatusResolved)
		resp, err := flow.GetSurveyStatus(ctx, token.Token, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, string(models.SurveyStatusActive), resp.Status)
		assert.NotEqual(t, token.Token, resp.TokenPreview)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		ticket := fx.CreateTicket()
		token := fx.CreateToken(ticket.ID, time.Now().UTC().Add(-time.Hour))
		resp, err := flow.GetSurveyStatus(ctx, token.Token, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, string(models.SurveyStatusExpired), resp.Status)
	})
}

func TestSubmitResponse(t *testing.T) {
	ctx := context.Background()

	t.Run("RecordsResponseAndConsumesToken", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		ticket, token := fx.CreateClosedTicket(models.TicketStatusResolved)

		resp, err := flow.SubmitResponse(ctx, token.Token, validSubmission(), testMetadata())
		require.NoError(t, err)
		assert.NotEmpty(t, resp.SubmittedAt)

		stored, err := fx.Responses.ByTokenID(ctx, token.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, ticket.ID, stored.RequestID)
		assert.Equal(t, 5, stored.SupportScore)

		consumed, _ := fx.Tokens.ByID(ctx, token.ID)
		require.NotNil(t, consumed.UsedAt)
	})

	t.Run("RejectsOutOfRangeScores", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		_, token := fx.CreateClosedTicket(models.TicketStatusResolved)

		_, err := flow.SubmitResponse(ctx, token.Token, &dto.SubmitCSATRequest{
			SupportScore: 0,
			ProductScore: 3,
		}, testMetadata())
		assert.True(t, IsInvalidSurveyRating(err))

		_, err = flow.SubmitResponse(ctx, token.Token, &dto.SubmitCSATRequest{
			SupportScore: 3,
			ProductScore: 6,
		}, testMetadata())
		assert.True(t, IsInvalidSurveyRating(err))
	})

	t.Run("ExpiredTokenWritesNothing", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		ticket := fx.CreateTicket()
		token := fx.CreateToken(ticket.ID, time.Now().UTC().Add(-time.Minute))

		_, err := flow.SubmitResponse(ctx, token.Token, validSubmission(), testMetadata())
		assert.True(t, IsSurveyTokenExpired(err))

		stored, _ := fx.Responses.ByTokenID(ctx, token.ID)
		assert.Nil(t, stored)
		untouched, _ := fx.Tokens.ByID(ctx, token.ID)
		assert.Nil(t, untouched.UsedAt)
	})

	t.Run("DoubleSubmitRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		ticket, token := fx.CreateClosedTicket(models.TicketStatusResolved)

		_, err := flow.SubmitResponse(ctx, token.Token, validSubmission(), testMetadata())
		require.NoError(t, err)

		_, err = flow.SubmitResponse(ctx, token.Token, validSubmission(), testMetadata())
		assert.True(t, IsSurveyAlreadyUsed(err))

		count, _ := fx.Responses.Count(ctx, models.CSATResponseFilter{RequestID: &ticket.ID})
		assert.Equal(t, int64(1), count)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		_, err := flow.SubmitResponse(ctx, "missing", validSubmission(), testMetadata())
		assert.True(t, IsSurveyTokenNotFound(err))
	})
}

func TestSendSurveyLink(t *testing.T) {
	ctx := context.Background()

	t.Run("DeliversLinkAndRecordsShare", func(t *testing.T) {
		fx := testutil.NewFixtures()
		twilio := services.NewMockTwilioService("secret")
		flow := newCSATFlowForTest(fx, twilio)
		ticket, token := fx.CreateClosedTicket(models.TicketStatusResolved)

		resp, err := flow.SendSurveyLink(ctx, ticket.ID, agentActor(1), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, *ticket.PhoneNumber, resp.SentTo)

		require.Len(t, twilio.SentMessages, 1)
		assert.Contains(t, twilio.SentMessages[0].Body, "https://survey.test/csat/"+token.Token)

		shared, err := fx.History.HasFieldEntry(ctx, ticket.ID, models.HistoryFieldCSATLinkShared)
		require.NoError(t, err)
		assert.True(t, shared)
	})

	t.Run("OpenTicketRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		ticket := fx.CreateTicket()

		_, err := flow.SendSurveyLink(ctx, ticket.ID, agentActor(1), testMetadata())
		assert.True(t, IsTicketNotClosed(err))
	})

	t.Run("NoPhoneNumber", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		now := time.Now().UTC()
		ticket := fx.CreateTicket(func(tk *models.SupportRequest) {
			tk.Status = models.TicketStatusResolved
			tk.ClosedAt = &now
			tk.PhoneNumber = nil
		})

		_, err := flow.SendSurveyLink(ctx, ticket.ID, agentActor(1), testMetadata())
		assert.True(t, IsMissingContactChannel(err))
	})

	t.Run("NoTokenIssued", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		now := time.Now().UTC()
		ticket := fx.CreateTicket(func(tk *models.SupportRequest) {
			tk.Status = models.TicketStatusClosed
			tk.ClosedAt = &now
		})

		_, err := flow.SendSurveyLink(ctx, ticket.ID, agentActor(1), testMetadata())
		assert.True(t, IsSurveyNotIssued(err))
	})

	t.Run("DeliveryFailureSurfacesUpstreamError", func(t *testing.T) {
		fx := testutil.NewFixtures()
		twilio := services.NewMockTwilioService("secret")
		twilio.SendErr = errors.New("twilio is down")
		flow := newCSATFlowForTest(fx, twilio)
		ticket, _ := fx.CreateClosedTicket(models.TicketStatusResolved)

		_, err := flow.SendSurveyLink(ctx, ticket.ID, agentActor(1), testMetadata())
		var bizErr *BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, "UPSTREAM_FAILED", bizErr.Code)

		// a failed delivery never records a share
		shared, _ := fx.History.HasFieldEntry(ctx, ticket.ID, models.HistoryFieldCSATLinkShared)
		assert.False(t, shared)
	})

	t.Run("AlreadySubmitted", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newCSATFlowForTest(fx, services.NewMockTwilioService("secret"))
		ticket, token := fx.CreateClosedTicket(models.TicketStatusResolved)
		_, err := flow.SubmitResponse(ctx, token.Token, validSubmission(), testMetadata())
		require.NoError(t, err)

		_, err = flow.SendSurveyLink(ctx, ticket.ID, agentActor(1), testMetadata())
		assert.True(t, IsSurveyAlreadyUsed(err))
	})
}

// survey status derivation matches the documented precedence: submitted
// beats expired beats active
func TestDeriveSurveyStatusPrecedence(t *testing.T) {
	now := time.Now().UTC()
	used := now.Add(-time.Hour)
	token := &models.CSATToken{ID: 1, RequestID: 1, ExpiresAt: now.Add(-time.Minute), UsedAt: &used}

	assert.Equal(t, models.SurveyStatusSubmitted, models.DeriveSurveyStatus(token, nil, now))
	assert.Equal(t, models.SurveyStatusNotSent, models.DeriveSurveyStatus(nil, nil, now))

	active := &models.CSATToken{ID: 2, RequestID: 1, ExpiresAt: now.Add(utils.CSATTokenTTL)}
	assert.Equal(t, models.SurveyStatusActive, models.DeriveSurveyStatus(active, nil, now))
	assert.Equal(t, models.SurveyStatusSubmitted, models.DeriveSurveyStatus(active, &models.CSATResponse{}, now))

	expired := &models.CSATToken{ID: 3, RequestID: 1, ExpiresAt: now.Add(-time.Second)}
	assert.Equal(t, models.SurveyStatusExpired, models.DeriveSurveyStatus(expired, nil, now))
}

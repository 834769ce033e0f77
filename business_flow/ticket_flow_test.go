package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	testutil "github.com/merchantops/support-console/testing"
	"github.com/merchantops/support-console/utils"
)

func newTicketFlowForTest(fx *testutil.Fixtures) TicketFlow {
	return NewTicketFlow(
		nil,
		fx.Tickets,
		fx.History,
		fx.Tokens,
		fx.Responses,
		fx.Merchants,
		fx.Outlets,
		fx.Users,
		services.NewMockMerchantCache(),
	)
}

func agentActor(id uint) *Actor {
	return &Actor{UserID: utils.ToPtr(id), Role: string(models.UserRoleAgent)}
}

func testMetadata() *ClientMetadata {
	return NewClientMetadata("127.0.0.1", "test-agent")
}

func TestCreateTicket(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	t.Run("DefaultsToFormChannel", func(t *testing.T) {
		resp, err := flow.CreateTicket(ctx, &dto.CreateTicketRequest{
			MerchantName: utils.ToPtr("Warung Sebelah"),
		}, nil, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, string(models.TicketStatusOpen), resp.Status)

		stored, err := fx.Tickets.ByID(ctx, resp.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, models.TicketChannelForm, stored.Channel)
	})

	t.Run("RejectsUnknownChannel", func(t *testing.T) {
		_, err := flow.CreateTicket(ctx, &dto.CreateTicketRequest{
			Channel: utils.ToPtr("carrier-pigeon"),
		}, nil, testMetadata())
		assert.True(t, IsInvalidTicketChannel(err))
	})

	t.Run("ResolvesMerchantNames", func(t *testing.T) {
		fx.CreateMerchant("F100", "Kopi Kenangan", "O7", "Kemang Outlet")

		resp, err := flow.CreateTicket(ctx, &dto.CreateTicketRequest{
			FID: utils.ToPtr("F100"),
			OID: utils.ToPtr("O7"),
		}, nil, testMetadata())
		require.NoError(t, err)

		stored, err := fx.Tickets.ByID(ctx, resp.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.FranchiseNameResolved)
		assert.Equal(t, "Kopi Kenangan", *stored.FranchiseNameResolved)
		require.NotNil(t, stored.OutletNameResolved)
		assert.Equal(t, "Kemang Outlet", *stored.OutletNameResolved)
	})
}

func TestUpdateTicketNoChanges(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket := fx.CreateTicket(func(tk *models.SupportRequest) {
		tk.IssueType = utils.ToPtr("Hardware")
	})
	before, _ := fx.Tickets.ByID(ctx, ticket.ID)

	resp, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		Status:    utils.ToPtr(string(models.TicketStatusOpen)),
		IssueType: dto.NewOptional("Hardware"),
		Hidden:    dto.NewOptional(false),
	}, agentActor(1), testMetadata())
	require.NoError(t, err)

	assert.Empty(t, resp.ChangedFields)
	assert.False(t, resp.CSATTokenGenerated)
	assert.Empty(t, fx.History.RowsFor(ticket.ID))

	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Nil(t, after.ClosedAt)
}

func TestUpdateTicketIntoClosed(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket := fx.CreateTicket()
	prior := fx.CreateToken(ticket.ID, time.Now().UTC().Add(utils.CSATTokenTTL))

	resp, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		Status: utils.ToPtr(string(models.TicketStatusResolved)),
	}, agentActor(1), testMetadata())
	require.NoError(t, err)

	assert.Equal(t, []string{models.HistoryFieldStatus}, resp.ChangedFields)
	assert.True(t, resp.CSATTokenGenerated)

	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	assert.Equal(t, models.TicketStatusResolved, after.Status)
	require.NotNil(t, after.ClosedAt)

	// the prior unused token is invalidated at the same instant
	priorAfter, _ := fx.Tokens.ByID(ctx, prior.ID)
	require.NotNil(t, priorAfter.UsedAt)

	latest, err := fx.Tokens.LatestByRequest(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.NotEqual(t, prior.ID, latest.ID)
	assert.Nil(t, latest.UsedAt)
	assert.Equal(t, latest.CreatedAt.Add(utils.CSATTokenTTL), latest.ExpiresAt)

	rows := fx.History.RowsFor(ticket.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, models.HistoryFieldStatus, rows[0].FieldName)
	require.NotNil(t, rows[0].OldValue)
	assert.Equal(t, string(models.TicketStatusOpen), *rows[0].OldValue)
	require.NotNil(t, rows[0].NewValue)
	assert.Equal(t, string(models.TicketStatusResolved), *rows[0].NewValue)
	assert.Equal(t, models.HistoryFieldCSATTokenGenerated, rows[1].FieldName)
}

func TestUpdateTicketOutOfClosed(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket, _ := fx.CreateClosedTicket(models.TicketStatusResolved)

	resp, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		Status: utils.ToPtr(string(models.TicketStatusOpen)),
	}, agentActor(1), testMetadata())
	require.NoError(t, err)

	assert.Equal(t, []string{models.HistoryFieldStatus}, resp.ChangedFields)
	assert.False(t, resp.CSATTokenGenerated)

	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	assert.Equal(t, models.TicketStatusOpen, after.Status)
	assert.Nil(t, after.ClosedAt)
}

func TestUpdateTicketBetweenClosedStates(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket, token := fx.CreateClosedTicket(models.TicketStatusResolved)
	closedAt := *ticket.ClosedAt

	resp, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		Status: utils.ToPtr(string(models.TicketStatusClosed)),
	}, agentActor(1), testMetadata())
	require.NoError(t, err)

	// closed-to-closed is not a transition: no new token, closed_at untouched
	assert.False(t, resp.CSATTokenGenerated)
	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	require.NotNil(t, after.ClosedAt)
	assert.True(t, after.ClosedAt.Equal(closedAt))

	latest, _ := fx.Tokens.LatestByRequest(ctx, ticket.ID)
	assert.Equal(t, token.ID, latest.ID)
}

func TestUpdateTicketValidation(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	t.Run("UnknownStatus", func(t *testing.T) {
		ticket := fx.CreateTicket()
		_, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
			Status: utils.ToPtr("Escalated"),
		}, agentActor(1), testMetadata())
		assert.True(t, IsInvalidTicketStatus(err))
	})

	t.Run("TicketNotFound", func(t *testing.T) {
		_, err := flow.UpdateTicket(ctx, 9999, &dto.UpdateTicketRequest{
			Status: utils.ToPtr(string(models.TicketStatusOpen)),
		}, agentActor(1), testMetadata())
		assert.True(t, IsTicketNotFound(err))
	})
}

func TestUpdateTicketNullClearsColumn(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket := fx.CreateTicket(func(tk *models.SupportRequest) {
		tk.IssueType = utils.ToPtr("Hardware")
	})

	resp, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		IssueType: dto.NullOptional[string](),
	}, agentActor(1), testMetadata())
	require.NoError(t, err)
	assert.Equal(t, []string{models.HistoryFieldIssueType}, resp.ChangedFields)

	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	assert.Nil(t, after.IssueType)

	rows := fx.History.RowsFor(ticket.ID)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].OldValue)
	assert.Equal(t, "Hardware", *rows[0].OldValue)
	assert.Nil(t, rows[0].NewValue)
}

func TestUpdateTicketRecordsActorLabel(t *testing.T) {
	fx := testutil.NewFixtures()
	fx.CreateUser(7, "dina", models.UserRoleAgent)
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket := fx.CreateTicket()
	_, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		Status: utils.ToPtr(string(models.TicketStatusInProgress)),
	}, agentActor(7), testMetadata())
	require.NoError(t, err)

	rows := fx.History.RowsFor(ticket.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, "dina", rows[0].ChangedBy)

	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	require.NotNil(t, after.UpdatedBy)
	assert.Equal(t, "dina", *after.UpdatedBy)
}

func TestUpdateTicketReResolvesMerchantNames(t *testing.T) {
	fx := testutil.NewFixtures()
	fx.CreateMerchant("F200", "Sate Senayan", "O1", "Senayan City")
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	ticket := fx.CreateTicket(func(tk *models.SupportRequest) {
		tk.OID = utils.ToPtr("O1")
	})

	resp, err := flow.UpdateTicket(ctx, ticket.ID, &dto.UpdateTicketRequest{
		FID: dto.NewOptional("F200"),
	}, agentActor(1), testMetadata())
	require.NoError(t, err)
	assert.Contains(t, resp.ChangedFields, models.HistoryFieldFID)
	assert.Contains(t, resp.ChangedFields, models.HistoryFieldFranchiseNameResolved)
	assert.Contains(t, resp.ChangedFields, models.HistoryFieldOutletNameResolved)

	after, _ := fx.Tickets.ByID(ctx, ticket.ID)
	require.NotNil(t, after.FranchiseNameResolved)
	assert.Equal(t, "Sate Senayan", *after.FranchiseNameResolved)
}

func TestGetTicketDetail(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		_, err := flow.GetTicketDetail(ctx, 404, agentActor(1), testMetadata())
		assert.True(t, IsTicketNotFound(err))
	})

	t.Run("SurveyNotSent", func(t *testing.T) {
		ticket := fx.CreateTicket()
		detail, err := flow.GetTicketDetail(ctx, ticket.ID, agentActor(1), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, string(models.SurveyStatusNotSent), detail.SurveyStatus)
		assert.Nil(t, detail.TokenPreview)
	})

	t.Run("SurveyGeneratedUntilShared", func(t *testing.T) {
		ticket, token := fx.CreateClosedTicket(models.TicketStatusResolved)

		detail, err := flow.GetTicketDetail(ctx, ticket.ID, agentActor(1), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, "Generated", detail.SurveyStatus)
		require.NotNil(t, detail.TokenPreview)
		assert.NotEqual(t, token.Token, *detail.TokenPreview)
		assert.Contains(t, *detail.TokenPreview, "...")

		err = fx.History.Save(ctx, &models.SupportRequestHistory{
			RequestID: ticket.ID,
			FieldName: models.HistoryFieldCSATLinkShared,
			ChangedAt: time.Now().UTC(),
			ChangedBy: "dina",
		})
		require.NoError(t, err)

		detail, err = flow.GetTicketDetail(ctx, ticket.ID, agentActor(1), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, "Send", detail.SurveyStatus)
	})
}

func TestListTickets(t *testing.T) {
	fx := testutil.NewFixtures()
	flow := newTicketFlowForTest(fx)
	ctx := context.Background()

	fx.CreateTicket(func(tk *models.SupportRequest) {
		tk.IssueType = utils.ToPtr("Hardware")
	})
	fx.CreateTicket(func(tk *models.SupportRequest) {
		tk.IssueType = utils.ToPtr("Billing")
		tk.Status = models.TicketStatusResolved
	})

	t.Run("FilterByStatus", func(t *testing.T) {
		resp, err := flow.ListTickets(ctx, &dto.ListTicketsRequest{
			Status: utils.ToPtr(string(models.TicketStatusResolved)),
		}, agentActor(1), testMetadata())
		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, string(models.TicketStatusResolved), resp.Items[0].Status)
		assert.Equal(t, int64(1), resp.Total)
	})

	t.Run("InvertedDateRange", func(t *testing.T) {
		start := time.Now()
		end := start.Add(-time.Hour)
		_, err := flow.ListTickets(ctx, &dto.ListTicketsRequest{
			StartDate: &start,
			EndDate:   &end,
		}, agentActor(1), testMetadata())
		assert.True(t, IsStartDateAfterEndDate(err))
	})

	t.Run("PageSizeCap", func(t *testing.T) {
		_, err := flow.ListTickets(ctx, &dto.ListTicketsRequest{PageSize: 500}, agentActor(1), testMetadata())
		assert.True(t, IsInvalidPageSize(err))
	})
}

package businessflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	testutil "github.com/merchantops/support-console/testing"
	"github.com/merchantops/support-console/utils"
)

func newTaskRequestFlowForTest(fx *testutil.Fixtures, clickup services.ClickUpService, storage services.StorageService) TaskRequestFlow {
	if storage == nil {
		storage = services.NewMockStorageService()
	}
	return NewTaskRequestFlow(
		nil,
		fx.Requests,
		fx.Tickets,
		clickup,
		storage,
		newTicketFlowForTest(fx),
		zap.NewNop(),
	)
}

func adminActor(id uint) *Actor {
	return &Actor{UserID: utils.ToPtr(id), Role: string(models.UserRoleAdmin)}
}

func validTaskRequest() *dto.CreateTaskRequestRequest {
	return &dto.CreateTaskRequestRequest{
		Product:     "POS App",
		Priority:    "High",
		Severity:    "Major",
		Title:       "Printer not pairing",
		Description: "Bluetooth printer drops connection after sleep",
	}
}

func TestCreateTaskRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("StartsPendingApproval", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)

		resp, err := flow.CreateTaskRequest(ctx, validTaskRequest(), agentActor(3), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, string(models.TaskRequestStatusPending), resp.Request.Status)
		assert.Equal(t, uint(3), resp.Request.CreatedByUserID)
	})

	t.Run("BackfillsTicketContext", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		ticket := fx.CreateTicket(func(tk *models.SupportRequest) {
			tk.FID = utils.ToPtr("F300")
			tk.OID = utils.ToPtr("O2")
			tk.FranchiseNameResolved = utils.ToPtr("Bakso Boedjangan")
		})

		req := validTaskRequest()
		req.TicketID = &ticket.ID
		req.FID = utils.ToPtr("F999") // explicit input wins

		resp, err := flow.CreateTaskRequest(ctx, req, agentActor(3), testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.Request.FID)
		assert.Equal(t, "F999", *resp.Request.FID)
		require.NotNil(t, resp.Request.OID)
		assert.Equal(t, "O2", *resp.Request.OID)
		require.NotNil(t, resp.Request.FranchiseName)
		assert.Equal(t, "Bakso Boedjangan", *resp.Request.FranchiseName)
	})

	t.Run("UnknownTicketRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		req := validTaskRequest()
		req.TicketID = utils.ToPtr(uint(404))

		_, err := flow.CreateTaskRequest(ctx, req, agentActor(3), testMetadata())
		assert.True(t, IsTicketNotFound(err))
	})

	t.Run("AttachmentCap", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		req := validTaskRequest()
		req.Attachments = []string{"a", "b", "c", "d"}

		_, err := flow.CreateTaskRequest(ctx, req, agentActor(3), testMetadata())
		assert.True(t, IsTooManyAttachments(err))
	})
}

func TestReviewTaskRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("NonAdminRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := fx.CreateTaskRequest(3)

		_, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "approve", Reason: "looks good",
		}, agentActor(3), testMetadata())
		assert.True(t, IsReviewerNotAdmin(err))
	})

	t.Run("ApproveCreatesExternalTask", func(t *testing.T) {
		fx := testutil.NewFixtures()
		clickup := services.NewMockClickUpService()
		flow := newTaskRequestFlowForTest(fx, clickup, nil)
		row := fx.CreateTaskRequest(3)

		resp, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "approve", Reason: "valid issue",
		}, adminActor(1), testMetadata())
		require.NoError(t, err)

		assert.Equal(t, string(models.TaskRequestStatusApproved), resp.Request.Status)
		require.NotNil(t, resp.Request.ClickupTaskID)
		require.NotNil(t, resp.Request.ClickupLink)
		require.NotNil(t, resp.Request.DecisionBy)
		assert.Equal(t, uint(1), *resp.Request.DecisionBy)
		require.Len(t, clickup.CreatedTasks, 1)
		assert.Equal(t, row.Title, clickup.CreatedTasks[0].Name)
	})

	t.Run("RejectSkipsExternalCall", func(t *testing.T) {
		fx := testutil.NewFixtures()
		clickup := services.NewMockClickUpService()
		flow := newTaskRequestFlowForTest(fx, clickup, nil)
		row := fx.CreateTaskRequest(3)

		resp, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "reject", Reason: "duplicate",
		}, adminActor(1), testMetadata())
		require.NoError(t, err)

		assert.Equal(t, string(models.TaskRequestStatusRejected), resp.Request.Status)
		require.NotNil(t, resp.Request.DecisionReason)
		assert.Equal(t, "duplicate", *resp.Request.DecisionReason)
		assert.Nil(t, resp.Request.ClickupTaskID)
		assert.Empty(t, clickup.CreatedTasks)
	})

	t.Run("ExternalFailureLeavesRequestPending", func(t *testing.T) {
		fx := testutil.NewFixtures()
		clickup := services.NewMockClickUpService()
		clickup.CreateErr = errors.New("clickup rate limited")
		flow := newTaskRequestFlowForTest(fx, clickup, nil)
		row := fx.CreateTaskRequest(3)

		_, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "approve", Reason: "valid issue",
		}, adminActor(1), testMetadata())
		var bizErr *BusinessError
		require.ErrorAs(t, err, &bizErr)
		assert.Equal(t, "UPSTREAM_FAILED", bizErr.Code)

		after, _ := fx.Requests.ByID(ctx, row.ID)
		assert.Equal(t, models.TaskRequestStatusPending, after.Status)
		assert.Nil(t, after.DecisionAt)
	})

	t.Run("MissingReasonRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := fx.CreateTaskRequest(3)

		_, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "reject",
		}, adminActor(1), testMetadata())
		assert.True(t, IsRejectionNoteRequired(err))
	})

	t.Run("UnknownActionRejected", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := fx.CreateTaskRequest(3)

		_, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "escalate", Reason: "because",
		}, adminActor(1), testMetadata())
		assert.True(t, IsInvalidRequestAction(err))
	})

	t.Run("AlreadyDecidedConflicts", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := fx.CreateTaskRequest(3)

		_, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "reject", Reason: "duplicate",
		}, adminActor(1), testMetadata())
		require.NoError(t, err)

		_, err = flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "approve", Reason: "changed my mind",
		}, adminActor(2), testMetadata())
		assert.True(t, IsTaskRequestConflict(err))
	})
}

// two racing reviewers: exactly one decision wins and the persisted fields
// belong to the winner
func TestReviewTaskRequestConcurrentOneWinner(t *testing.T) {
	ctx := context.Background()
	fx := testutil.NewFixtures()
	flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
	row := fx.CreateTaskRequest(3)

	reviews := []*dto.ReviewTaskRequestRequest{
		{Action: "approve", Reason: "ship it"},
		{Action: "reject", Reason: "duplicate"},
	}

	var wg sync.WaitGroup
	results := make([]error, len(reviews))
	for i, review := range reviews {
		wg.Add(1)
		go func(i int, review *dto.ReviewTaskRequestRequest) {
			defer wg.Done()
			_, results[i] = flow.ReviewTaskRequest(ctx, row.ID, review, adminActor(uint(i+1)), testMetadata())
		}(i, review)
	}
	wg.Wait()

	var winners, conflicts int
	var winner *dto.ReviewTaskRequestRequest
	for i, err := range results {
		switch {
		case err == nil:
			winners++
			winner = reviews[i]
		case IsTaskRequestConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, conflicts)

	after, _ := fx.Requests.ByID(ctx, row.ID)
	require.NotNil(t, after.DecisionReason)
	assert.Equal(t, winner.Reason, *after.DecisionReason)
	if winner.Action == "approve" {
		assert.Equal(t, models.TaskRequestStatusApproved, after.Status)
	} else {
		assert.Equal(t, models.TaskRequestStatusRejected, after.Status)
	}
}

func TestResubmitTaskRequest(t *testing.T) {
	ctx := context.Background()

	rejected := func(fx *testutil.Fixtures, flow TaskRequestFlow) *models.ClickupTaskRequest {
		row := fx.CreateTaskRequest(3)
		_, err := flow.ReviewTaskRequest(ctx, row.ID, &dto.ReviewTaskRequestRequest{
			Action: "reject", Reason: "duplicate",
		}, adminActor(1), testMetadata())
		if err != nil {
			panic(err)
		}
		return row
	}

	resubmission := func() *dto.ResubmitTaskRequestRequest {
		return &dto.ResubmitTaskRequestRequest{
			Product:     "POS App",
			Priority:    "Urgent",
			Severity:    "Critical",
			Title:       "Printer not pairing at all",
			Description: "Now fails even after a full restart",
		}
	}

	t.Run("ResetsToPendingAndClearsDecision", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := rejected(fx, flow)

		resp, err := flow.ResubmitTaskRequest(ctx, row.ID, resubmission(), agentActor(3), testMetadata())
		require.NoError(t, err)

		assert.Equal(t, string(models.TaskRequestStatusPending), resp.Request.Status)
		assert.Equal(t, "Urgent", resp.Request.Priority)
		assert.Nil(t, resp.Request.DecisionReason)
		assert.Nil(t, resp.Request.DecisionBy)
		assert.Nil(t, resp.Request.DecisionAt)
		assert.Nil(t, resp.Request.ClickupTaskID)
		assert.Nil(t, resp.Request.ClickupLink)
	})

	t.Run("NonOwnerRejectedWithoutWrite", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := rejected(fx, flow)

		_, err := flow.ResubmitTaskRequest(ctx, row.ID, resubmission(), agentActor(8), testMetadata())
		assert.True(t, IsNotOriginalRequester(err))

		after, _ := fx.Requests.ByID(ctx, row.ID)
		assert.Equal(t, models.TaskRequestStatusRejected, after.Status)
		require.NotNil(t, after.DecisionReason)
		assert.Equal(t, "duplicate", *after.DecisionReason)
	})

	t.Run("PendingRequestNotResubmittable", func(t *testing.T) {
		fx := testutil.NewFixtures()
		flow := newTaskRequestFlowForTest(fx, services.NewMockClickUpService(), nil)
		row := fx.CreateTaskRequest(3)

		_, err := flow.ResubmitTaskRequest(ctx, row.ID, resubmission(), agentActor(3), testMetadata())
		assert.True(t, IsNotRejected(err))
	})
}

func TestSyncTaskStatuses(t *testing.T) {
	ctx := context.Background()
	fx := testutil.NewFixtures()
	clickup := services.NewMockClickUpService()
	flow := newTaskRequestFlowForTest(fx, clickup, nil)

	t.Run("NonAdminRejected", func(t *testing.T) {
		_, err := flow.SyncTaskStatuses(ctx, agentActor(3), testMetadata())
		assert.True(t, IsReviewerNotAdmin(err))
	})

	t.Run("RefreshesChangedStatuses", func(t *testing.T) {
		task, err := clickup.CreateTask(ctx, services.ClickUpTaskInput{Name: "linked"})
		require.NoError(t, err)
		task.Status.Status = "in progress"

		linked := fx.CreateTicket(func(tk *models.SupportRequest) {
			tk.ClickupTaskID = &task.ID
			tk.ClickupTaskStatus = utils.ToPtr("to do")
		})
		fx.CreateTicket(func(tk *models.SupportRequest) {
			tk.ClickupTaskID = utils.ToPtr("gone-task")
		})

		resp, err := flow.SyncTaskStatuses(ctx, adminActor(1), testMetadata())
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Scanned)
		assert.Equal(t, 1, resp.Updated)
		assert.Equal(t, 1, resp.Failed)

		after, _ := fx.Tickets.ByID(ctx, linked.ID)
		require.NotNil(t, after.ClickupTaskStatus)
		assert.Equal(t, "in progress", *after.ClickupTaskStatus)
		require.NotNil(t, after.ClickupTaskStatusSyncedAt)

		// the refresh runs through the update engine, so history is recorded
		rows := fx.History.RowsFor(linked.ID)
		fieldNames := make([]string, 0, len(rows))
		for _, row := range rows {
			fieldNames = append(fieldNames, row.FieldName)
		}
		assert.Contains(t, fieldNames, models.HistoryFieldClickupTaskStatus)
	})
}

// A sync run stamps synced_at on every ticket it touches, so the scan must
// not lose its place when rows it already visited re-sort. 250 stale tickets
// span two batches; all of them have to come back updated.
func TestSyncTaskStatusesVisitsEveryLinkedTicket(t *testing.T) {
	ctx := context.Background()
	fx := testutil.NewFixtures()
	clickup := services.NewMockClickUpService()
	flow := newTaskRequestFlowForTest(fx, clickup, nil)

	const linked = 250
	for i := 0; i < linked; i++ {
		task, err := clickup.CreateTask(ctx, services.ClickUpTaskInput{Name: "linked"})
		require.NoError(t, err)
		task.Status.Status = "in progress"
		fx.CreateTicket(func(tk *models.SupportRequest) {
			tk.ClickupTaskID = &task.ID
			tk.ClickupTaskStatus = utils.ToPtr("to do")
		})
	}

	resp, err := flow.SyncTaskStatuses(ctx, adminActor(1), testMetadata())
	require.NoError(t, err)
	assert.Equal(t, linked, resp.Scanned)
	assert.Equal(t, linked, resp.Updated)
	assert.Equal(t, 0, resp.Failed)
}

func TestReviewTaskRequestAttachmentFailures(t *testing.T) {
	ctx := context.Background()

	newFlowWithLogs := func(fx *testutil.Fixtures, clickup services.ClickUpService, storage services.StorageService) (TaskRequestFlow, *observer.ObservedLogs) {
		core, logs := observer.New(zap.WarnLevel)
		flow := NewTaskRequestFlow(
			nil,
			fx.Requests,
			fx.Tickets,
			clickup,
			storage,
			newTicketFlowForTest(fx),
			zap.New(core),
		)
		return flow, logs
	}

	approve := func(flow TaskRequestFlow, id uint) (*dto.ReviewTaskRequestResponse, error) {
		return flow.ReviewTaskRequest(ctx, id, &dto.ReviewTaskRequestRequest{
			Action: "approve", Reason: "valid issue",
		}, adminActor(1), testMetadata())
	}

	t.Run("DownloadFailureSkippedAndLogged", func(t *testing.T) {
		fx := testutil.NewFixtures()
		clickup := services.NewMockClickUpService()
		storage := services.NewMockStorageService()
		_, err := storage.Upload(ctx, "shots/present.png", "image/png", strings.NewReader("png"), 3)
		require.NoError(t, err)
		flow, logs := newFlowWithLogs(fx, clickup, storage)

		row := fx.CreateTaskRequest(3, func(r *models.ClickupTaskRequest) {
			r.Attachments = pq.StringArray{"shots/present.png", "shots/missing.png"}
		})

		resp, err := approve(flow, row.ID)
		require.NoError(t, err)
		assert.Equal(t, string(models.TaskRequestStatusApproved), resp.Request.Status)

		require.NotNil(t, resp.Request.ClickupTaskID)
		assert.Equal(t, []string{"shots/present.png"}, clickup.Attachments[*resp.Request.ClickupTaskID])

		warns := logs.FilterMessage("skipping attachment, download failed").All()
		require.Len(t, warns, 1)
		assert.Equal(t, "shots/missing.png", warns[0].ContextMap()["attachment_key"])
	})

	t.Run("UploadFailureSkippedAndLogged", func(t *testing.T) {
		fx := testutil.NewFixtures()
		clickup := services.NewMockClickUpService()
		clickup.UploadErr = errors.New("attachment upload rejected with status 413")
		storage := services.NewMockStorageService()
		_, err := storage.Upload(ctx, "shots/big.png", "image/png", strings.NewReader("png"), 3)
		require.NoError(t, err)
		flow, logs := newFlowWithLogs(fx, clickup, storage)

		row := fx.CreateTaskRequest(3, func(r *models.ClickupTaskRequest) {
			r.Attachments = pq.StringArray{"shots/big.png"}
		})

		resp, err := approve(flow, row.ID)
		require.NoError(t, err)
		assert.Equal(t, string(models.TaskRequestStatusApproved), resp.Request.Status)
		require.NotNil(t, resp.Request.ClickupTaskID)
		assert.Empty(t, clickup.Attachments[*resp.Request.ClickupTaskID])

		assert.Equal(t, 1, logs.FilterMessage("skipping attachment, upload failed").Len())
	})
}

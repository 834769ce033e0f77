package businessflow

import (
	"context"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/repository"
	"github.com/merchantops/support-console/utils"
)

// TaskRequestFlow defines the approval workflow gating external task creation
type TaskRequestFlow interface {
	CreateTaskRequest(ctx context.Context, req *dto.CreateTaskRequestRequest, actor *Actor, metadata *ClientMetadata) (*dto.CreateTaskRequestResponse, error)
	ListTaskRequests(ctx context.Context, req *dto.ListTaskRequestsRequest, actor *Actor, metadata *ClientMetadata) (*dto.ListTaskRequestsResponse, error)
	GetTaskRequest(ctx context.Context, id uint, actor *Actor, metadata *ClientMetadata) (*dto.TaskRequestItem, error)
	ReviewTaskRequest(ctx context.Context, id uint, req *dto.ReviewTaskRequestRequest, actor *Actor, metadata *ClientMetadata) (*dto.ReviewTaskRequestResponse, error)
	ResubmitTaskRequest(ctx context.Context, id uint, req *dto.ResubmitTaskRequestRequest, actor *Actor, metadata *ClientMetadata) (*dto.ResubmitTaskRequestResponse, error)
	SyncTaskStatuses(ctx context.Context, actor *Actor, metadata *ClientMetadata) (*dto.SyncTaskStatusesResponse, error)
}

// TaskRequestFlowImpl implements TaskRequestFlow
type TaskRequestFlowImpl struct {
	db          *gorm.DB
	requestRepo repository.ClickupTaskRequestRepository
	ticketRepo  repository.SupportRequestRepository
	clickup     services.ClickUpService
	storage     services.StorageService
	ticketFlow  TicketFlow
	logger      *zap.Logger
}

func NewTaskRequestFlow(
	db *gorm.DB,
	requestRepo repository.ClickupTaskRequestRepository,
	ticketRepo repository.SupportRequestRepository,
	clickup services.ClickUpService,
	storage services.StorageService,
	ticketFlow TicketFlow,
	logger *zap.Logger,
) TaskRequestFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskRequestFlowImpl{
		db:          db,
		requestRepo: requestRepo,
		ticketRepo:  ticketRepo,
		clickup:     clickup,
		storage:     storage,
		ticketFlow:  ticketFlow,
		logger:      logger,
	}
}

func (f *TaskRequestFlowImpl) CreateTaskRequest(ctx context.Context, req *dto.CreateTaskRequestRequest, actor *Actor, metadata *ClientMetadata) (*dto.CreateTaskRequestResponse, error) {
	if actor == nil || actor.UserID == nil {
		return nil, ErrUserNotFound
	}
	if len(req.Attachments) > utils.MaxTaskRequestAttachments {
		return nil, ErrTooManyAttachments
	}

	row := models.ClickupTaskRequest{
		TicketID:      req.TicketID,
		Product:       req.Product,
		Department:    req.Department,
		FID:           req.FID,
		OID:           req.OID,
		FranchiseName: req.FranchiseName,
		OutletName:    req.OutletName,
		Priority:      req.Priority,
		Severity:      req.Severity,
		Title:         req.Title,
		Description:   req.Description,
		Attachments:   pq.StringArray(req.Attachments),
		Status:        models.TaskRequestStatusPending,

		CreatedByUserID: *actor.UserID,
	}
	if row.Attachments == nil {
		row.Attachments = pq.StringArray{}
	}

	if err := f.backfillTicketContext(ctx, &row); err != nil {
		return nil, err
	}

	if err := f.requestRepo.Save(ctx, &row); err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to create task request", err)
	}

	return &dto.CreateTaskRequestResponse{
		Message: "Task request created successfully",
		Request: toTaskRequestItem(&row),
	}, nil
}

// backfillTicketContext fills unset fid/oid/name fields from the referenced
// ticket; explicit input always wins
func (f *TaskRequestFlowImpl) backfillTicketContext(ctx context.Context, row *models.ClickupTaskRequest) error {
	if row.TicketID == nil {
		return nil
	}
	ticket, err := f.ticketRepo.ByID(ctx, *row.TicketID)
	if err != nil {
		return NewBusinessError("STORAGE_FAILED", "failed to load ticket context", err)
	}
	if ticket == nil {
		return ErrTicketNotFound
	}
	if row.FID == nil {
		row.FID = ticket.FID
	}
	if row.OID == nil {
		row.OID = ticket.OID
	}
	if row.FranchiseName == nil {
		row.FranchiseName = ticket.FranchiseNameResolved
	}
	if row.OutletName == nil {
		row.OutletName = ticket.OutletNameResolved
	}
	return nil
}

func (f *TaskRequestFlowImpl) ListTaskRequests(ctx context.Context, req *dto.ListTaskRequestsRequest, actor *Actor, metadata *ClientMetadata) (*dto.ListTaskRequestsResponse, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	limit, offset, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter := models.ClickupTaskRequestFilter{
		TicketID:      req.TicketID,
		CreatedAfter:  req.StartDate,
		CreatedBefore: req.EndDate,
	}
	if req.Status != nil {
		status := models.TaskRequestStatus(*req.Status)
		filter.Status = &status
	}
	if req.Mine && actor != nil {
		filter.CreatedByUserID = actor.UserID
	}

	rows, err := f.requestRepo.ByFilter(ctx, filter, "id DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to list task requests", err)
	}
	total, err := f.requestRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to count task requests", err)
	}

	items := make([]dto.TaskRequestItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, toTaskRequestItem(r))
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	return &dto.ListTaskRequestsResponse{
		Message: "Task requests retrieved successfully",
		Items:   items,
		Total:   total,
		Page:    page,
	}, nil
}

func (f *TaskRequestFlowImpl) GetTaskRequest(ctx context.Context, id uint, actor *Actor, metadata *ClientMetadata) (*dto.TaskRequestItem, error) {
	row, err := f.requestRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load task request", err)
	}
	if row == nil {
		return nil, ErrTaskRequestNotFound
	}
	item := toTaskRequestItem(row)
	return &item, nil
}

// ReviewTaskRequest applies an approve or reject decision. The decision is
// persisted with an update conditioned on the row still being Pending
// Approval; a zero row count means another reviewer decided first and the
// caller gets a conflict, never a silent success. Approval creates the
// external task before the status write, so a task-tracker failure leaves
// the request pending and retryable.
func (f *TaskRequestFlowImpl) ReviewTaskRequest(ctx context.Context, id uint, req *dto.ReviewTaskRequestRequest, actor *Actor, metadata *ClientMetadata) (*dto.ReviewTaskRequestResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrReviewerNotAdmin
	}
	action := models.TaskRequestAction(req.Action)
	if action != models.TaskRequestActionApprove && action != models.TaskRequestActionReject {
		return nil, ErrInvalidRequestAction
	}
	if req.Reason == "" {
		return nil, ErrRejectionNoteRequired
	}

	row, err := f.requestRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load task request", err)
	}
	if row == nil {
		return nil, ErrTaskRequestNotFound
	}
	if row.Status != models.TaskRequestStatusPending {
		return nil, ErrTaskRequestConflict
	}

	now := utils.UTCNow()
	updates := map[string]any{
		"decision_reason":     req.Reason,
		"decision_by_user_id": actor.UserID,
		"decision_at":         now,
	}

	if action == models.TaskRequestActionApprove {
		task, err := f.clickup.CreateTask(ctx, services.ClickUpTaskInput{
			Name:         row.Title,
			Description:  row.Description,
			CustomFields: buildTaskCustomFields(row),
		})
		if err != nil {
			return nil, NewBusinessError("UPSTREAM_FAILED", "external task creation failed", err)
		}

		// best-effort: a failed attachment never blocks the approval
		for _, key := range row.Attachments {
			content, err := f.storage.Download(ctx, key)
			if err != nil {
				f.logger.Warn("skipping attachment, download failed",
					zap.Uint("task_request_id", row.ID),
					zap.String("attachment_key", key),
					zap.Error(err))
				continue
			}
			if err := f.clickup.UploadAttachment(ctx, task.ID, key, content); err != nil {
				f.logger.Warn("skipping attachment, upload failed",
					zap.Uint("task_request_id", row.ID),
					zap.String("attachment_key", key),
					zap.String("clickup_task_id", task.ID),
					zap.Error(err))
			}
			_ = content.Close()
		}

		updates["status"] = models.TaskRequestStatusApproved
		updates["clickup_task_id"] = task.ID
		updates["clickup_link"] = task.URL
	} else {
		updates["status"] = models.TaskRequestStatusRejected
	}

	decided, err := f.requestRepo.UpdateIfStatus(ctx, id, models.TaskRequestStatusPending, nil, updates)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to persist decision", err)
	}
	if !decided {
		return nil, ErrTaskRequestConflict
	}

	decidedRow, err := f.requestRepo.ByID(ctx, id)
	if err != nil || decidedRow == nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to reload task request", err)
	}
	return &dto.ReviewTaskRequestResponse{
		Message: "Task request reviewed successfully",
		Request: toTaskRequestItem(decidedRow),
	}, nil
}

// ResubmitTaskRequest resets a rejected request back to Pending Approval.
// Only the original requester may resubmit; the write is conditioned on the
// row still being Rejected and still owned by the caller.
func (f *TaskRequestFlowImpl) ResubmitTaskRequest(ctx context.Context, id uint, req *dto.ResubmitTaskRequestRequest, actor *Actor, metadata *ClientMetadata) (*dto.ResubmitTaskRequestResponse, error) {
	if actor == nil || actor.UserID == nil {
		return nil, ErrUserNotFound
	}
	if len(req.Attachments) > utils.MaxTaskRequestAttachments {
		return nil, ErrTooManyAttachments
	}

	row, err := f.requestRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load task request", err)
	}
	if row == nil {
		return nil, ErrTaskRequestNotFound
	}
	if row.CreatedByUserID != *actor.UserID {
		return nil, ErrNotOriginalRequester
	}
	if row.Status != models.TaskRequestStatusRejected {
		return nil, ErrNotRejected
	}

	revised := models.ClickupTaskRequest{
		TicketID:      row.TicketID,
		FID:           req.FID,
		OID:           req.OID,
		FranchiseName: req.FranchiseName,
		OutletName:    req.OutletName,
	}
	if err := f.backfillTicketContext(ctx, &revised); err != nil {
		return nil, err
	}

	attachments := pq.StringArray(req.Attachments)
	if attachments == nil {
		attachments = pq.StringArray{}
	}
	updates := map[string]any{
		"status":              models.TaskRequestStatusPending,
		"product":             req.Product,
		"department":          req.Department,
		"fid":                 revised.FID,
		"oid":                 revised.OID,
		"franchise_name":      revised.FranchiseName,
		"outlet_name":         revised.OutletName,
		"priority":            req.Priority,
		"severity":            req.Severity,
		"title":               req.Title,
		"description":         req.Description,
		"attachments":         attachments,
		"decision_reason":     nil,
		"decision_by_user_id": nil,
		"decision_at":         nil,
		"clickup_task_id":     nil,
		"clickup_link":        nil,
	}

	reset, err := f.requestRepo.UpdateIfStatus(ctx, id, models.TaskRequestStatusRejected, actor.UserID, updates)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to resubmit task request", err)
	}
	if !reset {
		return nil, ErrTaskRequestConflict
	}

	resetRow, err := f.requestRepo.ByID(ctx, id)
	if err != nil || resetRow == nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to reload task request", err)
	}
	return &dto.ResubmitTaskRequestResponse{
		Message: "Task request resubmitted successfully",
		Request: toTaskRequestItem(resetRow),
	}, nil
}

// SyncTaskStatuses refreshes clickup_task_status for every ticket with a
// linked task. Each change is routed through the ticket update engine so the
// audit history stays consistent.
func (f *TaskRequestFlowImpl) SyncTaskStatuses(ctx context.Context, actor *Actor, metadata *ClientMetadata) (*dto.SyncTaskStatusesResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrReviewerNotAdmin
	}

	const batchSize = 200
	scanned, updated, failed := 0, 0, 0
	// keyset cursor; updating a ticket must not move it back into the scan
	lastID := uint(0)
	for {
		tickets, err := f.ticketRepo.ListWithClickupTask(ctx, lastID, batchSize)
		if err != nil {
			return nil, NewBusinessError("STORAGE_FAILED", "failed to list linked tickets", err)
		}
		if len(tickets) == 0 {
			break
		}

		for _, ticket := range tickets {
			lastID = ticket.ID
			scanned++
			task, err := f.clickup.FetchTask(ctx, *ticket.ClickupTaskID)
			if err != nil {
				failed++
				continue
			}
			if ticket.ClickupTaskStatus != nil && *ticket.ClickupTaskStatus == task.Status.Status {
				continue
			}
			update := &dto.UpdateTicketRequest{
				ClickupTaskStatus: dto.NewOptional(task.Status.Status),
			}
			if _, err := f.ticketFlow.UpdateTicket(ctx, ticket.ID, update, actor, metadata); err != nil {
				failed++
				continue
			}
			updated++
		}

		if len(tickets) < batchSize {
			break
		}
	}

	return &dto.SyncTaskStatusesResponse{
		Message: "Task status sync completed",
		Scanned: scanned,
		Updated: updated,
		Failed:  failed,
	}, nil
}

// buildTaskCustomFields maps the structured workflow fields onto the external
// tracker's custom field names
func buildTaskCustomFields(row *models.ClickupTaskRequest) map[string]string {
	fields := map[string]string{
		"Product":  row.Product,
		"Priority": row.Priority,
		"Severity": row.Severity,
	}
	if row.Department != nil {
		fields["Department"] = *row.Department
	}
	if row.FID != nil {
		fields["FID"] = *row.FID
	}
	if row.OID != nil {
		fields["OID"] = *row.OID
	}
	if row.FranchiseName != nil {
		fields["Franchise"] = *row.FranchiseName
	}
	if row.OutletName != nil {
		fields["Outlet"] = *row.OutletName
	}
	return fields
}

func toTaskRequestItem(r *models.ClickupTaskRequest) dto.TaskRequestItem {
	item := dto.TaskRequestItem{
		ID:              r.ID,
		TicketID:        r.TicketID,
		Product:         r.Product,
		Department:      r.Department,
		FID:             r.FID,
		OID:             r.OID,
		FranchiseName:   r.FranchiseName,
		OutletName:      r.OutletName,
		Priority:        r.Priority,
		Severity:        r.Severity,
		Title:           r.Title,
		Description:     r.Description,
		Attachments:     []string(r.Attachments),
		Status:          string(r.Status),
		DecisionReason:  r.DecisionReason,
		DecisionBy:      r.DecisionByUserID,
		ClickupTaskID:   r.ClickupTaskID,
		ClickupLink:     r.ClickupLink,
		CreatedByUserID: r.CreatedByUserID,
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.DecisionAt != nil {
		item.DecisionAt = utils.ToPtr(r.DecisionAt.UTC().Format(time.RFC3339))
	}
	return item
}

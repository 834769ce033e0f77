package businessflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/repository"
	"github.com/merchantops/support-console/utils"
)

// TicketFlow defines operations over support requests
type TicketFlow interface {
	CreateTicket(ctx context.Context, req *dto.CreateTicketRequest, actor *Actor, metadata *ClientMetadata) (*dto.CreateTicketResponse, error)
	ListTickets(ctx context.Context, req *dto.ListTicketsRequest, actor *Actor, metadata *ClientMetadata) (*dto.ListTicketsResponse, error)
	GetTicketDetail(ctx context.Context, ticketID uint, actor *Actor, metadata *ClientMetadata) (*dto.TicketDetailResponse, error)
	UpdateTicket(ctx context.Context, ticketID uint, req *dto.UpdateTicketRequest, actor *Actor, metadata *ClientMetadata) (*dto.UpdateTicketResponse, error)
}

// TicketFlowImpl implements TicketFlow
type TicketFlowImpl struct {
	db            *gorm.DB
	ticketRepo    repository.SupportRequestRepository
	historyRepo   repository.SupportRequestHistoryRepository
	tokenRepo     repository.CSATTokenRepository
	responseRepo  repository.CSATResponseRepository
	merchantRepo  repository.MerchantRepository
	outletRepo    repository.MerchantOutletRepository
	userRepo      repository.UserRepository
	merchantCache services.MerchantCache
}

func NewTicketFlow(
	db *gorm.DB,
	ticketRepo repository.SupportRequestRepository,
	historyRepo repository.SupportRequestHistoryRepository,
	tokenRepo repository.CSATTokenRepository,
	responseRepo repository.CSATResponseRepository,
	merchantRepo repository.MerchantRepository,
	outletRepo repository.MerchantOutletRepository,
	userRepo repository.UserRepository,
	merchantCache services.MerchantCache,
) TicketFlow {
	return &TicketFlowImpl{
		db:            db,
		ticketRepo:    ticketRepo,
		historyRepo:   historyRepo,
		tokenRepo:     tokenRepo,
		responseRepo:  responseRepo,
		merchantRepo:  merchantRepo,
		outletRepo:    outletRepo,
		userRepo:      userRepo,
		merchantCache: merchantCache,
	}
}

// stagedChange is one pending column write plus its audit row
type stagedChange struct {
	column   string
	value    any
	field    string
	oldValue *string
	newValue *string
	audited  bool
}

func (f *TicketFlowImpl) CreateTicket(ctx context.Context, req *dto.CreateTicketRequest, actor *Actor, metadata *ClientMetadata) (*dto.CreateTicketResponse, error) {
	channel := models.TicketChannelForm
	if req.Channel != nil {
		switch models.TicketChannel(*req.Channel) {
		case models.TicketChannelWhatsApp, models.TicketChannelEmail, models.TicketChannelForm:
			channel = models.TicketChannel(*req.Channel)
		default:
			return nil, ErrInvalidTicketChannel
		}
	}

	ticket := models.SupportRequest{
		Channel:           channel,
		Status:            models.TicketStatusOpen,
		Hidden:            utils.ToPtr(false),
		MerchantName:      req.MerchantName,
		PhoneNumber:       req.PhoneNumber,
		Email:             req.Email,
		FID:               req.FID,
		OID:               req.OID,
		IssueType:         req.IssueType,
		IssueSubcategory1: req.IssueSubcategory1,
		IssueSubcategory2: req.IssueSubcategory2,
		IssueDescription:  req.IssueDescription,
		TicketDescription: req.TicketDescription,
	}

	if req.FID != nil && req.OID != nil && *req.FID != "" && *req.OID != "" {
		franchise, outlet := f.resolveMerchantNames(ctx, *req.FID, *req.OID)
		ticket.FranchiseNameResolved = franchise
		ticket.OutletNameResolved = outlet
	}

	if err := f.ticketRepo.Save(ctx, &ticket); err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to create ticket", err)
	}

	return &dto.CreateTicketResponse{
		Message:   "Ticket created successfully",
		ID:        ticket.ID,
		Status:    string(ticket.Status),
		CreatedAt: ticket.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (f *TicketFlowImpl) ListTickets(ctx context.Context, req *dto.ListTicketsRequest, actor *Actor, metadata *ClientMetadata) (*dto.ListTicketsResponse, error) {
	if err := validateDateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	limit, offset, err := normalizePagination(req.Page, req.PageSize)
	if err != nil {
		return nil, err
	}

	filter := models.SupportRequestFilter{
		IssueType:     req.IssueType,
		MSPICUserID:   req.MSPICUserID,
		FID:           req.FID,
		OID:           req.OID,
		Hidden:        req.Hidden,
		CreatedAfter:  req.StartDate,
		CreatedBefore: req.EndDate,
	}
	if req.Status != nil {
		status := models.TicketStatus(*req.Status)
		filter.Status = &status
	}

	tickets, err := f.ticketRepo.ByFilter(ctx, filter, "created_at DESC", limit, offset)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to list tickets", err)
	}
	total, err := f.ticketRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to count tickets", err)
	}

	items := make([]dto.TicketItem, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, toTicketItem(t))
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	return &dto.ListTicketsResponse{
		Message: "Tickets retrieved successfully",
		Items:   items,
		Total:   total,
		Page:    page,
	}, nil
}

func (f *TicketFlowImpl) GetTicketDetail(ctx context.Context, ticketID uint, actor *Actor, metadata *ClientMetadata) (*dto.TicketDetailResponse, error) {
	ticket, err := f.ticketRepo.ByID(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load ticket", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	history, err := f.historyRepo.ListByRequest(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load ticket history", err)
	}

	surveyStatus, tokenPreview, err := f.displaySurveyStatus(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	historyItems := make([]dto.HistoryItem, 0, len(history))
	for _, h := range history {
		historyItems = append(historyItems, dto.HistoryItem{
			ID:        h.ID,
			FieldName: h.FieldName,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			ChangedAt: h.ChangedAt.UTC().Format(time.RFC3339),
			ChangedBy: h.ChangedBy,
		})
	}

	return &dto.TicketDetailResponse{
		Message:      "Ticket retrieved successfully",
		Ticket:       toTicketItem(ticket),
		Description:  ticket.IssueDescription,
		Notes:        ticket.TicketDescription,
		History:      historyItems,
		SurveyStatus: surveyStatus,
		TokenPreview: tokenPreview,
	}, nil
}

// UpdateTicket applies a sparse partial update: it diffs each proposed field
// against the stored value after normalizing both sides to string-or-null,
// persists only the changed columns, and appends one history row per change.
// Status transitions into the closed set additionally stamp closed_at and
// issue a fresh survey token; transitions out of it clear closed_at. The
// column writes, history rows, and token issuance commit in one transaction.
func (f *TicketFlowImpl) UpdateTicket(ctx context.Context, ticketID uint, req *dto.UpdateTicketRequest, actor *Actor, metadata *ClientMetadata) (*dto.UpdateTicketResponse, error) {
	ticket, err := f.ticketRepo.ByID(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load ticket", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	staged, err := f.stageChanges(ctx, ticket, req)
	if err != nil {
		return nil, err
	}

	if len(staged) == 0 {
		return &dto.UpdateTicketResponse{
			Message:       "No changes detected",
			ChangedFields: []string{},
			UpdatedAt:     ticket.UpdatedAt.UTC().Format(time.RFC3339),
		}, nil
	}

	now := utils.UTCNow()
	actorLabel := resolveActorLabel(ctx, f.userRepo, actor)

	priorStatus := ticket.Status
	targetStatus := priorStatus
	for _, c := range staged {
		if c.column == "status" {
			targetStatus = models.TicketStatus(*c.newValue)
		}
	}
	intoClosed := !priorStatus.IsClosed() && targetStatus.IsClosed()
	outOfClosed := priorStatus.IsClosed() && !targetStatus.IsClosed()

	updates := map[string]any{
		"updated_by": actorLabel,
		"updated_at": now,
	}
	changedFields := make([]string, 0, len(staged))
	historyRows := make([]*models.SupportRequestHistory, 0, len(staged)+1)
	for _, c := range staged {
		updates[c.column] = c.value
		if c.audited {
			changedFields = append(changedFields, c.field)
			historyRows = append(historyRows, &models.SupportRequestHistory{
				RequestID: ticketID,
				FieldName: c.field,
				OldValue:  c.oldValue,
				NewValue:  c.newValue,
				ChangedAt: now,
				ChangedBy: actorLabel,
			})
		}
	}

	if intoClosed {
		updates["closed_at"] = now
	}
	if outOfClosed {
		updates["closed_at"] = nil
	}

	tokenGenerated := false
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		exists, err := f.ticketRepo.UpdateFields(txCtx, ticketID, updates)
		if err != nil {
			return err
		}
		if !exists {
			return ErrTicketNotFound
		}

		if intoClosed {
			if err := f.tokenRepo.InvalidateUnused(txCtx, ticketID, now); err != nil {
				return err
			}
			token := &models.CSATToken{
				RequestID: ticketID,
				Token:     mintSurveyToken(),
				CreatedAt: now,
				ExpiresAt: now.Add(utils.CSATTokenTTL),
			}
			if err := f.tokenRepo.Save(txCtx, token); err != nil {
				return err
			}
			historyRows = append(historyRows, &models.SupportRequestHistory{
				RequestID: ticketID,
				FieldName: models.HistoryFieldCSATTokenGenerated,
				NewValue:  utils.ToPtr(maskToken(token.Token)),
				ChangedAt: now,
				ChangedBy: actorLabel,
			})
			tokenGenerated = true
		}

		return f.historyRepo.SaveBatch(txCtx, historyRows)
	})
	if err != nil {
		if IsTicketNotFound(err) {
			return nil, err
		}
		return nil, NewBusinessError("STORAGE_FAILED", "failed to apply ticket update", err)
	}

	return &dto.UpdateTicketResponse{
		Message:            "Ticket updated successfully",
		ChangedFields:      changedFields,
		CSATTokenGenerated: tokenGenerated,
		UpdatedAt:          now.Format(time.RFC3339),
	}, nil
}

// stageChanges computes the set of column writes and audit rows a sparse
// update implies. Fields absent from the payload are untouched; fields whose
// normalized value equals the stored one stage nothing.
func (f *TicketFlowImpl) stageChanges(ctx context.Context, ticket *models.SupportRequest, req *dto.UpdateTicketRequest) ([]stagedChange, error) {
	staged := make([]stagedChange, 0, 8)

	stage := func(column, field string, oldRaw, newRaw, value any) {
		oldNorm := normalizeValue(oldRaw)
		newNorm := normalizeValue(newRaw)
		if normalizedEqual(oldNorm, newNorm) {
			return
		}
		staged = append(staged, stagedChange{
			column:   column,
			value:    value,
			field:    field,
			oldValue: oldNorm,
			newValue: newNorm,
			audited:  true,
		})
	}

	if req.Status != nil {
		status := models.TicketStatus(*req.Status)
		switch status {
		case models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusWaitingMerchant,
			models.TicketStatusResolved, models.TicketStatusClosed:
		default:
			return nil, ErrInvalidTicketStatus
		}
		stage("status", models.HistoryFieldStatus, ticket.Status, status, status)
	}
	if req.Hidden.Present {
		stage("hidden", models.HistoryFieldHidden, ticket.Hidden, req.Hidden.Value, req.Hidden.Value)
	}
	stageString := func(opt dto.OptionalString, column, field string, current *string) {
		if !opt.Present {
			return
		}
		stage(column, field, current, opt.Value, opt.Value)
	}
	stageString(req.MerchantName, "merchant_name", models.HistoryFieldMerchantName, ticket.MerchantName)
	stageString(req.PhoneNumber, "phone_number", models.HistoryFieldPhoneNumber, ticket.PhoneNumber)
	stageString(req.FID, "fid", models.HistoryFieldFID, ticket.FID)
	stageString(req.OID, "oid", models.HistoryFieldOID, ticket.OID)
	stageString(req.IssueType, "issue_type", models.HistoryFieldIssueType, ticket.IssueType)
	stageString(req.IssueSubcategory1, "issue_subcategory1", models.HistoryFieldIssueSubcategory1, ticket.IssueSubcategory1)
	stageString(req.IssueSubcategory2, "issue_subcategory2", models.HistoryFieldIssueSubcategory2, ticket.IssueSubcategory2)
	stageString(req.IssueDescription, "issue_description", models.HistoryFieldIssueDescription, ticket.IssueDescription)
	stageString(req.TicketDescription, "ticket_description", models.HistoryFieldTicketDescription, ticket.TicketDescription)
	if req.MSPICUserID.Present {
		stage("ms_pic_user_id", models.HistoryFieldMSPICUserID, ticket.MSPICUserID, req.MSPICUserID.Value, req.MSPICUserID.Value)
	}
	stageString(req.ClickupTaskID, "clickup_task_id", models.HistoryFieldClickupTaskID, ticket.ClickupTaskID)
	stageString(req.ClickupLink, "clickup_link", models.HistoryFieldClickupLink, ticket.ClickupLink)
	if req.ClickupTaskStatus.Present {
		before := len(staged)
		stageString(req.ClickupTaskStatus, "clickup_task_status", models.HistoryFieldClickupTaskStatus, ticket.ClickupTaskStatus)
		if len(staged) > before {
			// a real status change also refreshes the sync timestamp
			now := utils.UTCNow()
			stage("clickup_task_status_synced_at", models.HistoryFieldClickupStatusSyncedAt,
				ticket.ClickupTaskStatusSyncedAt, now, now)
		}
	}

	// Composite rule: when fid or oid is proposed, merge with the unchanged
	// counterpart and re-resolve display names once both halves are present.
	if req.FID.Present || req.OID.Present {
		effFID := ticket.FID
		if req.FID.Present {
			effFID = req.FID.Value
		}
		effOID := ticket.OID
		if req.OID.Present {
			effOID = req.OID.Value
		}
		if effFID != nil && effOID != nil && strings.TrimSpace(*effFID) != "" && strings.TrimSpace(*effOID) != "" {
			franchise, outlet := f.resolveMerchantNames(ctx, *effFID, *effOID)
			stage("franchise_name_resolved", models.HistoryFieldFranchiseNameResolved, ticket.FranchiseNameResolved, franchise, franchise)
			stage("outlet_name_resolved", models.HistoryFieldOutletNameResolved, ticket.OutletNameResolved, outlet, outlet)
		}
	}

	return staged, nil
}

// resolveMerchantNames looks up display names for a fid/oid pair, cache
// first. Best-effort: no match or lookup failure yields nils, never an error.
func (f *TicketFlowImpl) resolveMerchantNames(ctx context.Context, fid, oid string) (*string, *string) {
	var franchiseName, outletName *string

	if f.merchantCache != nil {
		if m, err := f.merchantCache.GetMerchant(ctx, fid); err == nil && m != nil {
			franchiseName = utils.ToPtr(m.FranchiseName)
		}
		if o, err := f.merchantCache.GetOutlet(ctx, fid, oid); err == nil && o != nil {
			outletName = utils.ToPtr(o.OutletName)
		}
	}

	if franchiseName == nil && f.merchantRepo != nil {
		if m, err := f.merchantRepo.ByFID(ctx, fid); err == nil && m != nil {
			franchiseName = utils.ToPtr(m.FranchiseName)
			if f.merchantCache != nil {
				_ = f.merchantCache.SetMerchant(ctx, m)
			}
		}
	}
	if outletName == nil && f.outletRepo != nil {
		if o, err := f.outletRepo.ByFIDAndOID(ctx, fid, oid); err == nil && o != nil {
			outletName = utils.ToPtr(o.OutletName)
			if f.merchantCache != nil {
				_ = f.merchantCache.SetOutlet(ctx, o)
			}
		}
	}

	return franchiseName, outletName
}

// displaySurveyStatus derives the detail-surface survey state. The active
// state splits into "Generated" and "Send" depending on whether a link was
// ever shared with the merchant.
func (f *TicketFlowImpl) displaySurveyStatus(ctx context.Context, ticketID uint) (string, *string, error) {
	token, err := f.tokenRepo.LatestByRequest(ctx, ticketID)
	if err != nil {
		return "", nil, NewBusinessError("STORAGE_FAILED", "failed to load survey token", err)
	}
	if token == nil {
		return string(models.SurveyStatusNotSent), nil, nil
	}

	response, err := f.responseRepo.LatestByRequest(ctx, ticketID)
	if err != nil {
		return "", nil, NewBusinessError("STORAGE_FAILED", "failed to load survey response", err)
	}

	preview := utils.ToPtr(maskToken(token.Token))
	status := models.DeriveSurveyStatus(token, response, utils.UTCNow())
	if status != models.SurveyStatusActive {
		return string(status), preview, nil
	}

	shared, err := f.historyRepo.HasFieldEntry(ctx, ticketID, models.HistoryFieldCSATLinkShared)
	if err != nil {
		return "", nil, NewBusinessError("STORAGE_FAILED", "failed to load survey history", err)
	}
	if shared {
		return "Send", preview, nil
	}
	return "Generated", preview, nil
}

func mintSurveyToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func toTicketItem(t *models.SupportRequest) dto.TicketItem {
	item := dto.TicketItem{
		ID:                    t.ID,
		Channel:               string(t.Channel),
		Status:                string(t.Status),
		Hidden:                utils.IsTrue(t.Hidden),
		MerchantName:          t.MerchantName,
		PhoneNumber:           t.PhoneNumber,
		FID:                   t.FID,
		OID:                   t.OID,
		FranchiseNameResolved: t.FranchiseNameResolved,
		OutletNameResolved:    t.OutletNameResolved,
		IssueType:             t.IssueType,
		IssueSubcategory1:     t.IssueSubcategory1,
		IssueSubcategory2:     t.IssueSubcategory2,
		MSPICUserID:           t.MSPICUserID,
		ClickupTaskID:         t.ClickupTaskID,
		ClickupLink:           t.ClickupLink,
		ClickupTaskStatus:     t.ClickupTaskStatus,
		CreatedAt:             t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             t.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if t.MSPIC != nil {
		item.MSPICName = utils.ToPtr(t.MSPIC.ActorLabel())
	}
	if t.ClosedAt != nil {
		item.ClosedAt = utils.ToPtr(t.ClosedAt.UTC().Format(time.RFC3339))
	}
	return item
}

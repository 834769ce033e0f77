package businessflow

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/config"
	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/repository"
	"github.com/merchantops/support-console/utils"
)

// CSATFlow defines the survey operations exposed to merchants and agents
type CSATFlow interface {
	GetSurveyStatus(ctx context.Context, token string, metadata *ClientMetadata) (*dto.CSATStatusResponse, error)
	SubmitResponse(ctx context.Context, token string, req *dto.SubmitCSATRequest, metadata *ClientMetadata) (*dto.SubmitCSATResponse, error)
	SendSurveyLink(ctx context.Context, ticketID uint, actor *Actor, metadata *ClientMetadata) (*dto.SendCSATLinkResponse, error)
}

// CSATFlowImpl implements CSATFlow
type CSATFlowImpl struct {
	db           *gorm.DB
	ticketRepo   repository.SupportRequestRepository
	historyRepo  repository.SupportRequestHistoryRepository
	tokenRepo    repository.CSATTokenRepository
	responseRepo repository.CSATResponseRepository
	userRepo     repository.UserRepository
	twilio       services.TwilioService
	csatCfg      config.CSATConfig
}

func NewCSATFlow(
	db *gorm.DB,
	ticketRepo repository.SupportRequestRepository,
	historyRepo repository.SupportRequestHistoryRepository,
	tokenRepo repository.CSATTokenRepository,
	responseRepo repository.CSATResponseRepository,
	userRepo repository.UserRepository,
	twilio services.TwilioService,
	csatCfg config.CSATConfig,
) CSATFlow {
	return &CSATFlowImpl{
		db:           db,
		ticketRepo:   ticketRepo,
		historyRepo:  historyRepo,
		tokenRepo:    tokenRepo,
		responseRepo: responseRepo,
		userRepo:     userRepo,
		twilio:       twilio,
		csatCfg:      csatCfg,
	}
}

func (f *CSATFlowImpl) GetSurveyStatus(ctx context.Context, token string, metadata *ClientMetadata) (*dto.CSATStatusResponse, error) {
	row, err := f.tokenRepo.ByToken(ctx, token)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load survey token", err)
	}
	if row == nil {
		return nil, ErrSurveyTokenNotFound
	}

	response, err := f.responseRepo.ByTokenID(ctx, row.ID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load survey response", err)
	}

	ticket, err := f.ticketRepo.ByID(ctx, row.RequestID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load ticket", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}

	status := models.DeriveSurveyStatus(row, response, utils.UTCNow())
	result := &dto.CSATStatusResponse{
		Message:      "Survey status retrieved successfully",
		Status:       string(status),
		TokenPreview: maskToken(row.Token),
		TicketID:     ticket.ID,
		MerchantName: ticket.MerchantName,
		IssueType:    ticket.IssueType,
		ExpiresAt:    row.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if response != nil {
		result.SubmittedAt = utils.ToPtr(response.SubmittedAt.UTC().Format(time.RFC3339))
	}
	return result, nil
}

// SubmitResponse records a survey answer against an active token. The
// response insert and the token's used_at stamp commit together; a token
// that is expired or already answered is rejected with a distinct error and
// nothing is written.
func (f *CSATFlowImpl) SubmitResponse(ctx context.Context, token string, req *dto.SubmitCSATRequest, metadata *ClientMetadata) (*dto.SubmitCSATResponse, error) {
	if req.SupportScore < 1 || req.SupportScore > 5 || req.ProductScore < 1 || req.ProductScore > 5 {
		return nil, ErrInvalidSurveyRating
	}

	row, err := f.tokenRepo.ByToken(ctx, token)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load survey token", err)
	}
	if row == nil {
		return nil, ErrSurveyTokenNotFound
	}

	existing, err := f.responseRepo.ByTokenID(ctx, row.ID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load survey response", err)
	}

	now := utils.UTCNow()
	switch models.DeriveSurveyStatus(row, existing, now) {
	case models.SurveyStatusSubmitted:
		return nil, ErrSurveyAlreadyUsed
	case models.SurveyStatusExpired:
		return nil, ErrSurveyTokenExpired
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		// the conditional stamp is the serialization point for double submits
		marked, err := f.tokenRepo.MarkUsed(txCtx, row.ID, now)
		if err != nil {
			return err
		}
		if !marked {
			return ErrSurveyAlreadyUsed
		}

		return f.responseRepo.Save(txCtx, &models.CSATResponse{
			RequestID:       row.RequestID,
			TokenID:         row.ID,
			SupportScore:    req.SupportScore,
			SupportReason:   req.SupportReason,
			ProductScore:    req.ProductScore,
			ProductFeedback: req.ProductFeedback,
			SubmittedAt:     now,
		})
	})
	if err != nil {
		if IsSurveyAlreadyUsed(err) {
			return nil, err
		}
		return nil, NewBusinessError("STORAGE_FAILED", "failed to record survey response", err)
	}

	return &dto.SubmitCSATResponse{
		Message:     "Thank you for your feedback",
		SubmittedAt: now.Format(time.RFC3339),
	}, nil
}

// SendSurveyLink delivers the active survey link over WhatsApp and records
// the share in the ticket history
func (f *CSATFlowImpl) SendSurveyLink(ctx context.Context, ticketID uint, actor *Actor, metadata *ClientMetadata) (*dto.SendCSATLinkResponse, error) {
	ticket, err := f.ticketRepo.ByID(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load ticket", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if !ticket.Status.IsClosed() {
		return nil, ErrTicketNotClosed
	}
	if ticket.PhoneNumber == nil || *ticket.PhoneNumber == "" {
		return nil, ErrMissingContactChannel
	}

	token, err := f.tokenRepo.LatestByRequest(ctx, ticketID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load survey token", err)
	}
	if token == nil {
		return nil, ErrSurveyNotIssued
	}

	response, err := f.responseRepo.ByTokenID(ctx, token.ID)
	if err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to load survey response", err)
	}
	switch models.DeriveSurveyStatus(token, response, utils.UTCNow()) {
	case models.SurveyStatusSubmitted:
		return nil, ErrSurveyAlreadyUsed
	case models.SurveyStatusExpired:
		return nil, ErrSurveyTokenExpired
	}

	link := fmt.Sprintf("%s/%s", f.csatCfg.SurveyBaseURL, token.Token)
	body := fmt.Sprintf("Hi! Your support request #%d has been resolved. We'd love your feedback: %s", ticket.ID, link)
	if err := f.twilio.SendWhatsApp(ctx, *ticket.PhoneNumber, body); err != nil {
		return nil, NewBusinessError("UPSTREAM_FAILED", "failed to deliver survey link", err)
	}

	now := utils.UTCNow()
	history := &models.SupportRequestHistory{
		RequestID: ticketID,
		FieldName: models.HistoryFieldCSATLinkShared,
		NewValue:  utils.ToPtr(maskToken(token.Token)),
		ChangedAt: now,
		ChangedBy: resolveActorLabel(ctx, f.userRepo, actor),
	}
	if err := f.historyRepo.Save(ctx, history); err != nil {
		return nil, NewBusinessError("STORAGE_FAILED", "failed to record survey share", err)
	}

	return &dto.SendCSATLinkResponse{
		Message:      "Survey link sent successfully",
		TokenPreview: maskToken(token.Token),
		SentTo:       *ticket.PhoneNumber,
	}, nil
}

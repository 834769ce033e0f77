// Package businessflow contains the core business logic and use cases for the support console
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Ticket-related errors
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketUpdateRequired = errors.New("at least one field must be provided for update")
	ErrInvalidTicketStatus  = errors.New("invalid ticket status")
	ErrInvalidTicketChannel = errors.New("invalid ticket channel")
	ErrTicketConflict       = errors.New("ticket was modified by another request")

	// Merchant directory errors
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrOutletNotFound   = errors.New("outlet not found")

	// CSAT errors
	ErrSurveyTokenNotFound   = errors.New("survey token not found")
	ErrSurveyTokenExpired    = errors.New("survey token has expired")
	ErrSurveyAlreadyUsed     = errors.New("survey was already submitted")
	ErrSurveyNotIssued       = errors.New("no survey has been issued for this ticket")
	ErrInvalidSurveyRating   = errors.New("rating must be between 1 and 5")
	ErrTicketNotClosed       = errors.New("ticket is not in a closed status")
	ErrMissingContactChannel = errors.New("ticket has no phone number to deliver the survey to")

	// Task request errors
	ErrTaskRequestNotFound   = errors.New("task request not found")
	ErrTaskRequestConflict   = errors.New("task request was decided by another reviewer")
	ErrInvalidRequestAction  = errors.New("action must be approve or reject")
	ErrRejectionNoteRequired = errors.New("rejection requires a note")
	ErrNotOriginalRequester  = errors.New("only the original requester can resubmit")
	ErrNotPendingApproval    = errors.New("task request is not pending approval")
	ErrNotRejected           = errors.New("task request is not rejected")
	ErrTooManyAttachments    = errors.New("too many attachments")
	ErrReviewerNotAdmin      = errors.New("only admins can review task requests")

	// Webhook errors
	ErrInvalidWebhookSignature = errors.New("webhook signature is invalid")
	ErrEmptyWebhookBody        = errors.New("webhook message body is empty")

	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrUserInactive = errors.New("user is inactive")

	// Filter errors
	ErrInvalidPage           = errors.New("page must be at least 1")
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsTicketNotFound(err error) bool {
	return errors.Is(err, ErrTicketNotFound)
}

func IsTicketUpdateRequired(err error) bool {
	return errors.Is(err, ErrTicketUpdateRequired)
}

func IsInvalidTicketStatus(err error) bool {
	return errors.Is(err, ErrInvalidTicketStatus)
}

func IsInvalidTicketChannel(err error) bool {
	return errors.Is(err, ErrInvalidTicketChannel)
}

func IsTicketConflict(err error) bool {
	return errors.Is(err, ErrTicketConflict)
}

func IsMerchantNotFound(err error) bool {
	return errors.Is(err, ErrMerchantNotFound)
}

func IsOutletNotFound(err error) bool {
	return errors.Is(err, ErrOutletNotFound)
}

func IsSurveyTokenNotFound(err error) bool {
	return errors.Is(err, ErrSurveyTokenNotFound)
}

func IsSurveyTokenExpired(err error) bool {
	return errors.Is(err, ErrSurveyTokenExpired)
}

func IsSurveyAlreadyUsed(err error) bool {
	return errors.Is(err, ErrSurveyAlreadyUsed)
}

func IsSurveyNotIssued(err error) bool {
	return errors.Is(err, ErrSurveyNotIssued)
}

func IsInvalidSurveyRating(err error) bool {
	return errors.Is(err, ErrInvalidSurveyRating)
}

func IsTicketNotClosed(err error) bool {
	return errors.Is(err, ErrTicketNotClosed)
}

func IsMissingContactChannel(err error) bool {
	return errors.Is(err, ErrMissingContactChannel)
}

func IsTaskRequestNotFound(err error) bool {
	return errors.Is(err, ErrTaskRequestNotFound)
}

func IsTaskRequestConflict(err error) bool {
	return errors.Is(err, ErrTaskRequestConflict)
}

func IsInvalidRequestAction(err error) bool {
	return errors.Is(err, ErrInvalidRequestAction)
}

func IsRejectionNoteRequired(err error) bool {
	return errors.Is(err, ErrRejectionNoteRequired)
}

func IsNotOriginalRequester(err error) bool {
	return errors.Is(err, ErrNotOriginalRequester)
}

func IsNotPendingApproval(err error) bool {
	return errors.Is(err, ErrNotPendingApproval)
}

func IsNotRejected(err error) bool {
	return errors.Is(err, ErrNotRejected)
}

func IsTooManyAttachments(err error) bool {
	return errors.Is(err, ErrTooManyAttachments)
}

func IsReviewerNotAdmin(err error) bool {
	return errors.Is(err, ErrReviewerNotAdmin)
}

func IsInvalidWebhookSignature(err error) bool {
	return errors.Is(err, ErrInvalidWebhookSignature)
}

func IsEmptyWebhookBody(err error) bool {
	return errors.Is(err, ErrEmptyWebhookBody)
}

func IsUserNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func IsUserInactive(err error) bool {
	return errors.Is(err, ErrUserInactive)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}

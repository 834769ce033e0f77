package dto

// SubmitCSATRequest carries the merchant's survey answers.
// Scores are 1 to 5.
type SubmitCSATRequest struct {
	SupportScore    int     `json:"support_score" validate:"required,min=1,max=5"`
	SupportReason   *string `json:"support_reason,omitempty" validate:"omitempty,max=2000"`
	ProductScore    int     `json:"product_score" validate:"required,min=1,max=5"`
	ProductFeedback *string `json:"product_feedback,omitempty" validate:"omitempty,max=2000"`
}

// SubmitCSATResponse confirms a recorded survey answer
type SubmitCSATResponse struct {
	Message     string `json:"message"`
	SubmittedAt string `json:"submitted_at"`
}

// CSATStatusResponse describes the survey state for a token holder.
// The token is never echoed in full, only a masked preview.
type CSATStatusResponse struct {
	Message      string  `json:"message"`
	Status       string  `json:"status"`
	TokenPreview string  `json:"token_preview"`
	TicketID     uint    `json:"ticket_id"`
	MerchantName *string `json:"merchant_name,omitempty"`
	IssueType    *string `json:"issue_type,omitempty"`
	ExpiresAt    string  `json:"expires_at"`
	SubmittedAt  *string `json:"submitted_at,omitempty"`
}

// SendCSATLinkResponse confirms delivery of the survey link
type SendCSATLinkResponse struct {
	Message      string `json:"message"`
	TokenPreview string `json:"token_preview"`
	SentTo       string `json:"sent_to"`
}

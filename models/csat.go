package models

import (
	"time"
)

// SurveyStatus is the derived state of a ticket's CSAT survey
type SurveyStatus string

const (
	SurveyStatusNotSent   SurveyStatus = "not_sent"
	SurveyStatusActive    SurveyStatus = "active"
	SurveyStatusSubmitted SurveyStatus = "submitted"
	SurveyStatusExpired   SurveyStatus = "expired"
)

// CSATToken is a single-use capability granting access to the satisfaction
// survey for one support request. A ticket can accumulate several tokens over
// time but at most one is active; older tokens are invalidated when a new one
// is minted.
type CSATToken struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID uint       `gorm:"not null;index" json:"request_id"`
	Token     string     `gorm:"size:64;not null;uniqueIndex" json:"token"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`

	// Relations
	Request *SupportRequest `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CSATToken) TableName() string { return "csat_tokens" }

// DeriveSurveyStatus computes the survey state for a token/response pair at
// the given instant. A nil token means no survey was ever issued.
func DeriveSurveyStatus(token *CSATToken, response *CSATResponse, now time.Time) SurveyStatus {
	if token == nil {
		return SurveyStatusNotSent
	}
	if response != nil || token.UsedAt != nil {
		return SurveyStatusSubmitted
	}
	if now.After(token.ExpiresAt) {
		return SurveyStatusExpired
	}
	return SurveyStatusActive
}

// CSATTokenFilter represents filter criteria for token queries
type CSATTokenFilter struct {
	ID        *uint   `json:"id,omitempty"`
	RequestID *uint   `json:"request_id,omitempty"`
	Token     *string `json:"token,omitempty"`
	Unused    *bool   `json:"unused,omitempty"`
}

// CSATResponse is the merchant's answer to a satisfaction survey
type CSATResponse struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID       uint      `gorm:"not null;index" json:"request_id"`
	TokenID         uint      `gorm:"not null;uniqueIndex" json:"token_id"`
	SupportScore    int       `gorm:"not null" json:"support_score"`
	SupportReason   *string   `gorm:"type:text" json:"support_reason,omitempty"`
	ProductScore    int       `gorm:"not null" json:"product_score"`
	ProductFeedback *string   `gorm:"type:text" json:"product_feedback,omitempty"`
	SubmittedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"submitted_at"`

	// Relations
	Token   *CSATToken      `gorm:"foreignKey:TokenID;references:ID" json:"-"`
	Request *SupportRequest `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (CSATResponse) TableName() string { return "csat_responses" }

// CSATResponseFilter represents filter criteria for response queries
type CSATResponseFilter struct {
	ID             *uint      `json:"id,omitempty"`
	RequestID      *uint      `json:"request_id,omitempty"`
	TokenID        *uint      `json:"token_id,omitempty"`
	SubmittedAfter *time.Time `json:"submitted_after,omitempty"`
}

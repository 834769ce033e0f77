package dto

import "time"

// CreateTicketRequest carries data to open a new support request.
// Channel defaults to "form" when absent; webhook intake sets "whatsapp".
type CreateTicketRequest struct {
	Channel           *string `json:"channel,omitempty" validate:"omitempty,oneof=whatsapp email form"`
	MerchantName      *string `json:"merchant_name,omitempty" validate:"omitempty,max=255"`
	PhoneNumber       *string `json:"phone_number,omitempty" validate:"omitempty,max=20"`
	Email             *string `json:"email,omitempty" validate:"omitempty,email"`
	FID               *string `json:"fid,omitempty" validate:"omitempty,max=64"`
	OID               *string `json:"oid,omitempty" validate:"omitempty,max=64"`
	IssueType         *string `json:"issue_type,omitempty" validate:"omitempty,max=128"`
	IssueSubcategory1 *string `json:"issue_subcategory1,omitempty" validate:"omitempty,max=128"`
	IssueSubcategory2 *string `json:"issue_subcategory2,omitempty" validate:"omitempty,max=128"`
	IssueDescription  *string `json:"issue_description,omitempty" validate:"omitempty,max=10000"`
	TicketDescription *string `json:"ticket_description,omitempty" validate:"omitempty,max=10000"`
}

// CreateTicketResponse returns the created ticket identifiers
type CreateTicketResponse struct {
	Message   string `json:"message"`
	ID        uint   `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// UpdateTicketRequest is a sparse partial update. Only fields present in the
// payload are considered; null is a meaningful value that clears a column.
type UpdateTicketRequest struct {
	Status            *string        `json:"status,omitempty" validate:"omitempty,oneof=Open 'In Progress' 'Waiting for Merchant' Resolved Closed"`
	Hidden            OptionalBool   `json:"hidden,omitzero"`
	MerchantName      OptionalString `json:"merchant_name,omitzero"`
	PhoneNumber       OptionalString `json:"phone_number,omitzero"`
	FID               OptionalString `json:"fid,omitzero"`
	OID               OptionalString `json:"oid,omitzero"`
	IssueType         OptionalString `json:"issue_type,omitzero"`
	IssueSubcategory1 OptionalString `json:"issue_subcategory1,omitzero"`
	IssueSubcategory2 OptionalString `json:"issue_subcategory2,omitzero"`
	IssueDescription  OptionalString `json:"issue_description,omitzero"`
	TicketDescription OptionalString `json:"ticket_description,omitzero"`
	MSPICUserID       OptionalUint   `json:"ms_pic_user_id,omitzero"`
	ClickupTaskID     OptionalString `json:"clickup_task_id,omitzero"`
	ClickupLink       OptionalString `json:"clickup_link,omitzero"`
	ClickupTaskStatus OptionalString `json:"clickup_task_status,omitzero"`
}

// UpdateTicketResponse summarizes what the update engine did
type UpdateTicketResponse struct {
	Message            string   `json:"message"`
	ChangedFields      []string `json:"changed_fields"`
	CSATTokenGenerated bool     `json:"csat_token_generated"`
	UpdatedAt          string   `json:"updated_at"`
}

// TicketItem represents a ticket row in listings
type TicketItem struct {
	ID                    uint    `json:"id"`
	Channel               string  `json:"channel"`
	Status                string  `json:"status"`
	Hidden                bool    `json:"hidden"`
	MerchantName          *string `json:"merchant_name,omitempty"`
	PhoneNumber           *string `json:"phone_number,omitempty"`
	FID                   *string `json:"fid,omitempty"`
	OID                   *string `json:"oid,omitempty"`
	FranchiseNameResolved *string `json:"franchise_name_resolved,omitempty"`
	OutletNameResolved    *string `json:"outlet_name_resolved,omitempty"`
	IssueType             *string `json:"issue_type,omitempty"`
	IssueSubcategory1     *string `json:"issue_subcategory1,omitempty"`
	IssueSubcategory2     *string `json:"issue_subcategory2,omitempty"`
	MSPICUserID           *uint   `json:"ms_pic_user_id,omitempty"`
	MSPICName             *string `json:"ms_pic_name,omitempty"`
	ClickupTaskID         *string `json:"clickup_task_id,omitempty"`
	ClickupLink           *string `json:"clickup_link,omitempty"`
	ClickupTaskStatus     *string `json:"clickup_task_status,omitempty"`
	ClosedAt              *string `json:"closed_at,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

// ListTicketsRequest filters for listing tickets
type ListTicketsRequest struct {
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=Open 'In Progress' 'Waiting for Merchant' Resolved Closed"`
	IssueType   *string    `json:"issue_type,omitempty"`
	MSPICUserID *uint      `json:"ms_pic_user_id,omitempty"`
	FID         *string    `json:"fid,omitempty"`
	OID         *string    `json:"oid,omitempty"`
	Hidden      *bool      `json:"hidden,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Page        uint       `json:"page,omitempty"`
	PageSize    uint       `json:"page_size,omitempty"`
}

// ListTicketsResponse returns a page of tickets
type ListTicketsResponse struct {
	Message string       `json:"message"`
	Items   []TicketItem `json:"items"`
	Total   int64        `json:"total"`
	Page    uint         `json:"page"`
}

// HistoryItem is one audit entry on the ticket detail surface
type HistoryItem struct {
	ID        uint    `json:"id"`
	FieldName string  `json:"field_name"`
	OldValue  *string `json:"old_value"`
	NewValue  *string `json:"new_value"`
	ChangedAt string  `json:"changed_at"`
	ChangedBy string  `json:"changed_by"`
}

// TicketDetailResponse returns a ticket with its history and survey state
type TicketDetailResponse struct {
	Message      string        `json:"message"`
	Ticket       TicketItem    `json:"ticket"`
	Description  *string       `json:"issue_description,omitempty"`
	Notes        *string       `json:"ticket_description,omitempty"`
	History      []HistoryItem `json:"history"`
	SurveyStatus string        `json:"survey_status"`
	TokenPreview *string       `json:"token_preview,omitempty"`
}

package dto

import "time"

// CreateTaskRequestRequest proposes a new external tracking task.
// When TicketID is supplied, fid/oid/franchise/outlet fall back to the
// ticket's values; explicit input wins.
type CreateTaskRequestRequest struct {
	TicketID      *uint    `json:"ticket_id,omitempty"`
	Product       string   `json:"product" validate:"required,max=128"`
	Department    *string  `json:"department,omitempty" validate:"omitempty,max=128"`
	FID           *string  `json:"fid,omitempty" validate:"omitempty,max=64"`
	OID           *string  `json:"oid,omitempty" validate:"omitempty,max=64"`
	FranchiseName *string  `json:"franchise_name,omitempty" validate:"omitempty,max=255"`
	OutletName    *string  `json:"outlet_name,omitempty" validate:"omitempty,max=255"`
	Priority      string   `json:"priority" validate:"required,max=32"`
	Severity      string   `json:"severity" validate:"required,max=32"`
	Title         string   `json:"title" validate:"required,max=255"`
	Description   string   `json:"description" validate:"required,max=10000"`
	Attachments   []string `json:"attachments,omitempty" validate:"omitempty,max=3,dive,url"`
}

// TaskRequestItem represents one approval workflow row
type TaskRequestItem struct {
	ID              uint     `json:"id"`
	TicketID        *uint    `json:"ticket_id,omitempty"`
	Product         string   `json:"product"`
	Department      *string  `json:"department,omitempty"`
	FID             *string  `json:"fid,omitempty"`
	OID             *string  `json:"oid,omitempty"`
	FranchiseName   *string  `json:"franchise_name,omitempty"`
	OutletName      *string  `json:"outlet_name,omitempty"`
	Priority        string   `json:"priority"`
	Severity        string   `json:"severity"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Attachments     []string `json:"attachments"`
	Status          string   `json:"status"`
	DecisionReason  *string  `json:"decision_reason,omitempty"`
	DecisionBy      *uint    `json:"decision_by_user_id,omitempty"`
	DecisionAt      *string  `json:"decision_at,omitempty"`
	ClickupTaskID   *string  `json:"clickup_task_id,omitempty"`
	ClickupLink     *string  `json:"clickup_link,omitempty"`
	CreatedByUserID uint     `json:"created_by_user_id"`
	CreatedAt       string   `json:"created_at"`
}

// CreateTaskRequestResponse returns the created workflow row
type CreateTaskRequestResponse struct {
	Message string          `json:"message"`
	Request TaskRequestItem `json:"request"`
}

// ListTaskRequestsRequest filters for listing workflow rows
type ListTaskRequestsRequest struct {
	Status    *string    `json:"status,omitempty" validate:"omitempty,oneof='Pending Approval' Approved Rejected"`
	TicketID  *uint      `json:"ticket_id,omitempty"`
	Mine      bool       `json:"mine,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Page      uint       `json:"page,omitempty"`
	PageSize  uint       `json:"page_size,omitempty"`
}

// ListTaskRequestsResponse returns a page of workflow rows
type ListTaskRequestsResponse struct {
	Message string            `json:"message"`
	Items   []TaskRequestItem `json:"items"`
	Total   int64             `json:"total"`
	Page    uint              `json:"page"`
}

// ReviewTaskRequestRequest carries an approve or reject decision
type ReviewTaskRequestRequest struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

// ReviewTaskRequestResponse returns the decided workflow row
type ReviewTaskRequestResponse struct {
	Message string          `json:"message"`
	Request TaskRequestItem `json:"request"`
}

// ResubmitTaskRequestRequest carries revised fields for a rejected request
type ResubmitTaskRequestRequest struct {
	Product       string   `json:"product" validate:"required,max=128"`
	Department    *string  `json:"department,omitempty" validate:"omitempty,max=128"`
	FID           *string  `json:"fid,omitempty" validate:"omitempty,max=64"`
	OID           *string  `json:"oid,omitempty" validate:"omitempty,max=64"`
	FranchiseName *string  `json:"franchise_name,omitempty" validate:"omitempty,max=255"`
	OutletName    *string  `json:"outlet_name,omitempty" validate:"omitempty,max=255"`
	Priority      string   `json:"priority" validate:"required,max=32"`
	Severity      string   `json:"severity" validate:"required,max=32"`
	Title         string   `json:"title" validate:"required,max=255"`
	Description   string   `json:"description" validate:"required,max=10000"`
	Attachments   []string `json:"attachments,omitempty" validate:"omitempty,max=3,dive,url"`
}

// ResubmitTaskRequestResponse returns the reset workflow row
type ResubmitTaskRequestResponse struct {
	Message string          `json:"message"`
	Request TaskRequestItem `json:"request"`
}

// SyncTaskStatusesResponse summarizes a ClickUp status refresh run
type SyncTaskStatusesResponse struct {
	Message string `json:"message"`
	Scanned int    `json:"scanned"`
	Updated int    `json:"updated"`
	Failed  int    `json:"failed"`
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// TaskRequestStatus is the closed vocabulary of the approval workflow.
// Pending Approval -> Approved is terminal; Pending Approval -> Rejected can
// be resubmitted by the original requester.
type TaskRequestStatus string

const (
	TaskRequestStatusPending  TaskRequestStatus = "Pending Approval"
	TaskRequestStatusApproved TaskRequestStatus = "Approved"
	TaskRequestStatusRejected TaskRequestStatus = "Rejected"
)

// TaskRequestAction is a review decision
type TaskRequestAction string

const (
	TaskRequestActionApprove TaskRequestAction = "approve"
	TaskRequestActionReject  TaskRequestAction = "reject"
)

// ClickupTaskRequest is a proposal to create an external tracking task,
// gated behind admin approval.
// Table: clickup_task_requests
type ClickupTaskRequest struct {
	ID       uint  `gorm:"primaryKey;autoIncrement" json:"id"`
	TicketID *uint `gorm:"index" json:"ticket_id,omitempty"`

	// Structured fields
	Product       string         `gorm:"size:128;not null" json:"product"`
	Department    *string        `gorm:"size:128" json:"department,omitempty"`
	FID           *string        `gorm:"column:fid;size:64" json:"fid,omitempty"`
	OID           *string        `gorm:"column:oid;size:64" json:"oid,omitempty"`
	FranchiseName *string        `gorm:"size:255" json:"franchise_name,omitempty"`
	OutletName    *string        `gorm:"size:255" json:"outlet_name,omitempty"`
	Priority      string         `gorm:"size:32;not null" json:"priority"`
	Severity      string         `gorm:"size:32;not null" json:"severity"`
	Title         string         `gorm:"size:255;not null" json:"title"`
	Description   string         `gorm:"type:text;not null" json:"description"`
	Attachments   pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"attachments"`

	// Workflow state
	Status           TaskRequestStatus `gorm:"type:varchar(32);not null;default:'Pending Approval';index" json:"status"`
	DecisionReason   *string           `gorm:"type:text" json:"decision_reason,omitempty"`
	DecisionByUserID *uint             `json:"decision_by_user_id,omitempty"`
	DecisionAt       *time.Time        `json:"decision_at,omitempty"`

	// External task linkage (populated on approval only)
	ClickupTaskID *string `gorm:"size:64" json:"clickup_task_id,omitempty"`
	ClickupLink   *string `gorm:"size:512" json:"clickup_link,omitempty"`

	CreatedByUserID uint      `gorm:"not null;index" json:"created_by_user_id"`
	CreatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Ticket    *SupportRequest `gorm:"foreignKey:TicketID;references:ID" json:"-"`
	CreatedBy *User           `gorm:"foreignKey:CreatedByUserID;references:ID" json:"-"`
}

func (ClickupTaskRequest) TableName() string { return "clickup_task_requests" }

// ClickupTaskRequestFilter represents filter criteria for task request queries
type ClickupTaskRequestFilter struct {
	ID              *uint              `json:"id,omitempty"`
	TicketID        *uint              `json:"ticket_id,omitempty"`
	Status          *TaskRequestStatus `json:"status,omitempty"`
	CreatedByUserID *uint              `json:"created_by_user_id,omitempty"`
	CreatedAfter    *time.Time         `json:"created_after,omitempty"`
	CreatedBefore   *time.Time         `json:"created_before,omitempty"`
}

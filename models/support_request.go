// Package models contains domain entities and business models for the support console
package models

import (
	"time"
)

// TicketStatus is the closed vocabulary of support request statuses.
// "Resolved" and "Closed" form the closed set; everything else is open.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "Open"
	TicketStatusInProgress      TicketStatus = "In Progress"
	TicketStatusWaitingMerchant TicketStatus = "Waiting for Merchant"
	TicketStatusResolved        TicketStatus = "Resolved"
	TicketStatusClosed          TicketStatus = "Closed"
)

// IsClosed reports whether the status belongs to the closed set
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketChannel identifies how a support request entered the system
type TicketChannel string

const (
	TicketChannelWhatsApp TicketChannel = "whatsapp"
	TicketChannelEmail    TicketChannel = "email"
	TicketChannelForm     TicketChannel = "form"
)

// SupportRequest represents one merchant support case
// Table: support_requests
// Indices: status, ms_pic_user_id, fid, created_at
// closed_at is non-null exactly while status is in the closed set
type SupportRequest struct {
	ID      uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	Channel TicketChannel `gorm:"type:varchar(16);not null;default:'form'" json:"channel"`
	Status  TicketStatus  `gorm:"type:varchar(32);not null;default:'Open';index" json:"status"`
	Hidden  *bool         `gorm:"default:false" json:"hidden"`

	// Merchant identity
	MerchantName *string `gorm:"size:255" json:"merchant_name,omitempty"`
	PhoneNumber  *string `gorm:"size:20;index" json:"phone_number,omitempty"`
	Email        *string `gorm:"size:255" json:"email,omitempty"`
	FID          *string `gorm:"column:fid;size:64;index" json:"fid,omitempty"`
	OID          *string `gorm:"column:oid;size:64" json:"oid,omitempty"`

	// Resolved display names (looked up from imported merchant data)
	FranchiseNameResolved *string `gorm:"size:255" json:"franchise_name_resolved,omitempty"`
	OutletNameResolved    *string `gorm:"size:255" json:"outlet_name_resolved,omitempty"`

	// Classification (free text, independently editable)
	IssueType         *string `gorm:"size:128" json:"issue_type,omitempty"`
	IssueSubcategory1 *string `gorm:"size:128" json:"issue_subcategory1,omitempty"`
	IssueSubcategory2 *string `gorm:"size:128" json:"issue_subcategory2,omitempty"`
	IssueDescription  *string `gorm:"type:text" json:"issue_description,omitempty"`
	TicketDescription *string `gorm:"type:text" json:"ticket_description,omitempty"`

	// Ownership
	MSPICUserID *uint `gorm:"column:ms_pic_user_id;index" json:"ms_pic_user_id,omitempty"`

	// External task linkage
	ClickupTaskID             *string    `gorm:"size:64" json:"clickup_task_id,omitempty"`
	ClickupLink               *string    `gorm:"size:512" json:"clickup_link,omitempty"`
	ClickupTaskStatus         *string    `gorm:"size:64" json:"clickup_task_status,omitempty"`
	ClickupTaskStatusSyncedAt *time.Time `json:"clickup_task_status_synced_at,omitempty"`

	// Audit fields
	UpdatedBy *string    `gorm:"size:255" json:"updated_by,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	MSPIC *User `gorm:"foreignKey:MSPICUserID;references:ID" json:"ms_pic,omitempty"`
}

func (SupportRequest) TableName() string { return "support_requests" }

// SupportRequestFilter represents filter criteria for support request queries
type SupportRequestFilter struct {
	ID            *uint          `json:"id,omitempty"`
	Channel       *TicketChannel `json:"channel,omitempty"`
	Status        *TicketStatus  `json:"status,omitempty"`
	Hidden        *bool          `json:"hidden,omitempty"`
	PhoneNumber   *string        `json:"phone_number,omitempty"`
	FID           *string        `json:"fid,omitempty"`
	OID           *string        `json:"oid,omitempty"`
	IssueType     *string        `json:"issue_type,omitempty"`
	MSPICUserID   *uint          `json:"ms_pic_user_id,omitempty"`
	HasClickup    *bool          `json:"has_clickup,omitempty"`
	CreatedAfter  *time.Time     `json:"created_after,omitempty"`
	CreatedBefore *time.Time     `json:"created_before,omitempty"`
}

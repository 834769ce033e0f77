package models

import (
	"time"
)

// Tracked field names recorded in support_request_history.
// One history row is written per changed field; the vocabulary is fixed.
const (
	HistoryFieldStatus                 = "status"
	HistoryFieldHidden                 = "hidden"
	HistoryFieldMerchantName           = "merchant_name"
	HistoryFieldPhoneNumber            = "phone_number"
	HistoryFieldFID                    = "fid"
	HistoryFieldOID                    = "oid"
	HistoryFieldFranchiseNameResolved  = "franchise_name_resolved"
	HistoryFieldOutletNameResolved     = "outlet_name_resolved"
	HistoryFieldIssueType              = "issue_type"
	HistoryFieldIssueSubcategory1      = "issue_subcategory1"
	HistoryFieldIssueSubcategory2      = "issue_subcategory2"
	HistoryFieldIssueDescription       = "issue_description"
	HistoryFieldTicketDescription      = "ticket_description"
	HistoryFieldMSPICUserID            = "ms_pic_user_id"
	HistoryFieldClickupTaskID          = "clickup_task_id"
	HistoryFieldClickupLink            = "clickup_link"
	HistoryFieldClickupTaskStatus      = "clickup_task_status"
	HistoryFieldClickupStatusSyncedAt  = "clickup_task_status_synced_at"
	HistoryFieldCSATTokenGenerated     = "csat_token_generated"
	HistoryFieldCSATLinkShared         = "csat_link_shared"
)

// SupportRequestHistory is one append-only audit row recording a single
// field change on a support request. Rows are never updated or deleted.
type SupportRequestHistory struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID uint      `gorm:"not null;index" json:"request_id"`
	FieldName string    `gorm:"size:64;not null;index" json:"field_name"`
	OldValue  *string   `gorm:"type:text" json:"old_value,omitempty"`
	NewValue  *string   `gorm:"type:text" json:"new_value,omitempty"`
	ChangedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"changed_at"`
	ChangedBy string    `gorm:"size:255;not null" json:"changed_by"`

	// Relations
	Request *SupportRequest `gorm:"foreignKey:RequestID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SupportRequestHistory) TableName() string { return "support_request_history" }

// SupportRequestHistoryFilter represents filter criteria for history queries
type SupportRequestHistoryFilter struct {
	ID            *uint      `json:"id,omitempty"`
	RequestID     *uint      `json:"request_id,omitempty"`
	FieldName     *string    `json:"field_name,omitempty"`
	ChangedBy     *string    `json:"changed_by,omitempty"`
	ChangedAfter  *time.Time `json:"changed_after,omitempty"`
	ChangedBefore *time.Time `json:"changed_before,omitempty"`
}

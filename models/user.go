package models

import (
	"time"
)

// UserRole is the closed set of console roles
type UserRole string

const (
	UserRoleAgent UserRole = "agent"
	UserRoleAdmin UserRole = "admin"
)

// User is a console operator (support agent or admin). Authentication is
// handled by the gateway; this table only backs MS-PIC assignment and the
// actor labels recorded in the audit trail.
type User struct {
	ID         uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string   `gorm:"size:255;not null" json:"name"`
	Email      string   `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Role       UserRole `gorm:"type:varchar(16);not null;default:'agent'" json:"role"`
	Department *string  `gorm:"size:128" json:"department,omitempty"`
	IsActive   *bool    `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// ActorLabel is the display value recorded as "changed by" in audit history
func (u *User) ActorLabel() string {
	if u == nil {
		return "system"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID         *uint     `json:"id,omitempty"`
	Email      *string   `json:"email,omitempty"`
	Role       *UserRole `json:"role,omitempty"`
	Department *string   `json:"department,omitempty"`
	IsActive   *bool     `json:"is_active,omitempty"`
}

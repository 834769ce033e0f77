package models

import (
	"time"
)

// Merchant is a franchise imported from the POS merchant API.
// Table: merchants
// FID is the external franchise identifier and is unique.
type Merchant struct {
	ID            uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FID           string  `gorm:"column:fid;size:64;not null;uniqueIndex" json:"fid"`
	FranchiseName string  `gorm:"size:255;not null" json:"franchise_name"`
	ContactName   *string `gorm:"size:255" json:"contact_name,omitempty"`
	PhoneNumber   *string `gorm:"size:20" json:"phone_number,omitempty"`
	Email         *string `gorm:"size:255" json:"email,omitempty"`

	ImportedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"imported_at"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Outlets []MerchantOutlet `gorm:"foreignKey:MerchantID" json:"outlets,omitempty"`
}

func (Merchant) TableName() string { return "merchants" }

// MerchantFilter represents filter criteria for merchant queries
type MerchantFilter struct {
	ID            *uint   `json:"id,omitempty"`
	FID           *string `json:"fid,omitempty"`
	FranchiseName *string `json:"franchise_name,omitempty"`
}

// MerchantOutlet is one outlet of a franchise; (fid, oid) is unique.
// Table: merchant_outlets
type MerchantOutlet struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID uint    `gorm:"not null;index" json:"merchant_id"`
	FID        string  `gorm:"column:fid;size:64;not null;uniqueIndex:uk_merchant_outlets_fid_oid" json:"fid"`
	OID        string  `gorm:"column:oid;size:64;not null;uniqueIndex:uk_merchant_outlets_fid_oid" json:"oid"`
	OutletName string  `gorm:"size:255;not null" json:"outlet_name"`
	City       *string `gorm:"size:128" json:"city,omitempty"`
	Address    *string `gorm:"size:512" json:"address,omitempty"`

	ImportedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"imported_at"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	Merchant *Merchant `gorm:"foreignKey:MerchantID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MerchantOutlet) TableName() string { return "merchant_outlets" }

// MerchantOutletFilter represents filter criteria for outlet queries
type MerchantOutletFilter struct {
	ID         *uint   `json:"id,omitempty"`
	MerchantID *uint   `json:"merchant_id,omitempty"`
	FID        *string `json:"fid,omitempty"`
	OID        *string `json:"oid,omitempty"`
}

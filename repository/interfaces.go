// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/merchantops/support-console/models"
)

// contextKey for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// SupportRequestRepository defines operations for support requests
type SupportRequestRepository interface {
	Repository[models.SupportRequest, models.SupportRequestFilter]
	// UpdateFields applies a column map to one ticket; reports whether the
	// ticket row existed (zero affected rows means it did not)
	UpdateFields(ctx context.Context, id uint, updates map[string]any) (bool, error)
	ListWithClickupTask(ctx context.Context, afterID uint, limit int) ([]*models.SupportRequest, error)
}

// SupportRequestHistoryRepository defines operations for the audit history
type SupportRequestHistoryRepository interface {
	Repository[models.SupportRequestHistory, models.SupportRequestHistoryFilter]
	ListByRequest(ctx context.Context, requestID uint) ([]*models.SupportRequestHistory, error)
	HasFieldEntry(ctx context.Context, requestID uint, fieldName string) (bool, error)
}

// CSATTokenRepository defines operations for survey tokens
type CSATTokenRepository interface {
	Repository[models.CSATToken, models.CSATTokenFilter]
	ByToken(ctx context.Context, token string) (*models.CSATToken, error)
	LatestByRequest(ctx context.Context, requestID uint) (*models.CSATToken, error)
	// InvalidateUnused sets used_at for every unused token of the ticket
	InvalidateUnused(ctx context.Context, requestID uint, usedAt time.Time) error
	// MarkUsed sets used_at on one token conditioned on it being unused;
	// false means another writer got there first
	MarkUsed(ctx context.Context, tokenID uint, usedAt time.Time) (bool, error)
}

// CSATResponseRepository defines operations for survey responses
type CSATResponseRepository interface {
	Repository[models.CSATResponse, models.CSATResponseFilter]
	ByTokenID(ctx context.Context, tokenID uint) (*models.CSATResponse, error)
	LatestByRequest(ctx context.Context, requestID uint) (*models.CSATResponse, error)
}

// ClickupTaskRequestRepository defines operations for the approval workflow
type ClickupTaskRequestRepository interface {
	Repository[models.ClickupTaskRequest, models.ClickupTaskRequestFilter]
	// UpdateIfStatus applies updates conditioned on the current status (and,
	// when requesterID is non-nil, on created_by_user_id). Zero affected rows
	// reports false and signals a lost race, not an error.
	UpdateIfStatus(ctx context.Context, id uint, expected models.TaskRequestStatus, requesterID *uint, updates map[string]any) (bool, error)
}

// MerchantRepository defines operations for imported franchises
type MerchantRepository interface {
	Repository[models.Merchant, models.MerchantFilter]
	ByFID(ctx context.Context, fid string) (*models.Merchant, error)
	Upsert(ctx context.Context, merchant *models.Merchant) (created bool, err error)
}

// MerchantOutletRepository defines operations for imported outlets
type MerchantOutletRepository interface {
	Repository[models.MerchantOutlet, models.MerchantOutletFilter]
	ByFIDAndOID(ctx context.Context, fid, oid string) (*models.MerchantOutlet, error)
	Upsert(ctx context.Context, outlet *models.MerchantOutlet) (created bool, err error)
}

// UserRepository defines operations for console users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ListActive(ctx context.Context, limit, offset int) ([]*models.User, error)
}

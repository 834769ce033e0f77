package repository

import (
	"context"
	"fmt"

	"github.com/merchantops/support-console/models"
	"gorm.io/gorm"
)

// SupportRequestHistoryRepositoryImpl implements SupportRequestHistoryRepository
type SupportRequestHistoryRepositoryImpl struct {
	*BaseRepository[models.SupportRequestHistory, models.SupportRequestHistoryFilter]
}

// NewSupportRequestHistoryRepository creates a new history repository
func NewSupportRequestHistoryRepository(db *gorm.DB) SupportRequestHistoryRepository {
	return &SupportRequestHistoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SupportRequestHistory, models.SupportRequestHistoryFilter](db),
	}
}

func (r *SupportRequestHistoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.SupportRequestHistoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.FieldName != nil {
		query = query.Where("field_name = ?", *filter.FieldName)
	}
	if filter.ChangedBy != nil {
		query = query.Where("changed_by = ?", *filter.ChangedBy)
	}
	if filter.ChangedAfter != nil {
		query = query.Where("changed_at >= ?", *filter.ChangedAfter)
	}
	if filter.ChangedBefore != nil {
		query = query.Where("changed_at <= ?", *filter.ChangedBefore)
	}
	return query
}

// ByFilter retrieves history entries based on filter criteria
func (r *SupportRequestHistoryRepositoryImpl) ByFilter(ctx context.Context, filter models.SupportRequestHistoryFilter, orderBy string, limit, offset int) ([]*models.SupportRequestHistory, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SupportRequestHistory{}), filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.SupportRequestHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of history entries matching filter
func (r *SupportRequestHistoryRepositoryImpl) Count(ctx context.Context, filter models.SupportRequestHistoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SupportRequestHistory{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any history entry matches the filter
func (r *SupportRequestHistoryRepositoryImpl) Exists(ctx context.Context, filter models.SupportRequestHistoryFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ListByRequest retrieves the full audit trail for one ticket, oldest first
func (r *SupportRequestHistoryRepositoryImpl) ListByRequest(ctx context.Context, requestID uint) ([]*models.SupportRequestHistory, error) {
	db := r.getDB(ctx)

	var rows []*models.SupportRequestHistory
	err := db.Where("request_id = ?", requestID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list history by request: %w", err)
	}
	return rows, nil
}

// HasFieldEntry reports whether a given field was ever recorded for a ticket
func (r *SupportRequestHistoryRepositoryImpl) HasFieldEntry(ctx context.Context, requestID uint, fieldName string) (bool, error) {
	return r.Exists(ctx, models.SupportRequestHistoryFilter{
		RequestID: &requestID,
		FieldName: &fieldName,
	})
}

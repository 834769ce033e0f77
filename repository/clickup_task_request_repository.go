package repository

import (
	"context"

	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/utils"
	"gorm.io/gorm"
)

// ClickupTaskRequestRepositoryImpl implements ClickupTaskRequestRepository
type ClickupTaskRequestRepositoryImpl struct {
	*BaseRepository[models.ClickupTaskRequest, models.ClickupTaskRequestFilter]
}

// NewClickupTaskRequestRepository creates a new task request repository
func NewClickupTaskRequestRepository(db *gorm.DB) ClickupTaskRequestRepository {
	return &ClickupTaskRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ClickupTaskRequest, models.ClickupTaskRequestFilter](db),
	}
}

func (r *ClickupTaskRequestRepositoryImpl) applyFilter(query *gorm.DB, filter models.ClickupTaskRequestFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TicketID != nil {
		query = query.Where("ticket_id = ?", *filter.TicketID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedByUserID != nil {
		query = query.Where("created_by_user_id = ?", *filter.CreatedByUserID)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves task requests based on filter criteria
func (r *ClickupTaskRequestRepositoryImpl) ByFilter(ctx context.Context, filter models.ClickupTaskRequestFilter, orderBy string, limit, offset int) ([]*models.ClickupTaskRequest, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ClickupTaskRequest{}), filter)

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

	var rows []*models.ClickupTaskRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of task requests matching filter
func (r *ClickupTaskRequestRepositoryImpl) Count(ctx context.Context, filter models.ClickupTaskRequestFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.ClickupTaskRequest{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any task request matches the filter
func (r *ClickupTaskRequestRepositoryImpl) Exists(ctx context.Context, filter models.ClickupTaskRequestFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// UpdateIfStatus applies updates only while the row still holds the expected
// status. When requesterID is set the row must also belong to that requester.
// Returns false when the guard no longer matches, which means another actor
// decided or resubmitted the request first.
func (r *ClickupTaskRequestRepositoryImpl) UpdateIfStatus(ctx context.Context, id uint, expected models.TaskRequestStatus, requesterID *uint, updates map[string]any) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = utils.UTCNow()
	}

	query := db.Model(&models.ClickupTaskRequest{}).
		Where("id = ? AND status = ?", id, expected)
	if requesterID != nil {
		query = query.Where("created_by_user_id = ?", *requesterID)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		err = result.Error
		return false, err
	}
	return result.RowsAffected > 0, nil
}

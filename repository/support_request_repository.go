package repository

import (
	"context"

	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/utils"
	"gorm.io/gorm"
)

// SupportRequestRepositoryImpl implements SupportRequestRepository
type SupportRequestRepositoryImpl struct {
	*BaseRepository[models.SupportRequest, models.SupportRequestFilter]
}

// NewSupportRequestRepository creates a new support request repository
func NewSupportRequestRepository(db *gorm.DB) SupportRequestRepository {
	return &SupportRequestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SupportRequest, models.SupportRequestFilter](db),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *SupportRequestRepositoryImpl) applyFilter(query *gorm.DB, filter models.SupportRequestFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Channel != nil {
		query = query.Where("channel = ?", *filter.Channel)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Hidden != nil {
		query = query.Where("hidden = ?", *filter.Hidden)
	}
	if filter.PhoneNumber != nil {
		query = query.Where("phone_number = ?", *filter.PhoneNumber)
	}
	if filter.FID != nil {
		query = query.Where("fid = ?", *filter.FID)
	}
	if filter.OID != nil {
		query = query.Where("oid = ?", *filter.OID)
	}
	if filter.IssueType != nil {
		query = query.Where("issue_type = ?", *filter.IssueType)
	}
	if filter.MSPICUserID != nil {
		query = query.Where("ms_pic_user_id = ?", *filter.MSPICUserID)
	}
	if filter.HasClickup != nil {
		if *filter.HasClickup {
			query = query.Where("clickup_task_id IS NOT NULL")
		} else {
			query = query.Where("clickup_task_id IS NULL")
		}
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves support requests based on filter criteria
func (r *SupportRequestRepositoryImpl) ByFilter(ctx context.Context, filter models.SupportRequestFilter, orderBy string, limit, offset int) ([]*models.SupportRequest, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SupportRequest{}), filter)

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

	var rows []*models.SupportRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of support requests matching filter
func (r *SupportRequestRepositoryImpl) Count(ctx context.Context, filter models.SupportRequestFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.SupportRequest{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any support request matches the filter
func (r *SupportRequestRepositoryImpl) Exists(ctx context.Context, filter models.SupportRequestFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// UpdateFields applies a column map to one ticket row. The updated_at column
// is always refreshed. Zero affected rows means the ticket does not exist.
func (r *SupportRequestRepositoryImpl) UpdateFields(ctx context.Context, id uint, updates map[string]any) (bool, error) {
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

	result := db.Model(&models.SupportRequest{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		err = result.Error
		return false, err
	}
	return result.RowsAffected > 0, nil
}

// ListWithClickupTask retrieves tickets linked to an external task, keyset
// paged by id. Sync runs stamp synced_at on rows mid-scan, so any ordering
// over that column would shuffle unvisited rows past an offset cursor.
func (r *SupportRequestRepositoryImpl) ListWithClickupTask(ctx context.Context, afterID uint, limit int) ([]*models.SupportRequest, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SupportRequest{}).
		Where("clickup_task_id IS NOT NULL").
		Where("id > ?", afterID).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []*models.SupportRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

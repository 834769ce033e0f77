package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/merchantops/support-console/models"
	"gorm.io/gorm"
)

// CSATTokenRepositoryImpl implements CSATTokenRepository
type CSATTokenRepositoryImpl struct {
	*BaseRepository[models.CSATToken, models.CSATTokenFilter]
}

// NewCSATTokenRepository creates a new CSAT token repository
func NewCSATTokenRepository(db *gorm.DB) CSATTokenRepository {
	return &CSATTokenRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CSATToken, models.CSATTokenFilter](db),
	}
}

func (r *CSATTokenRepositoryImpl) applyFilter(query *gorm.DB, filter models.CSATTokenFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.Token != nil {
		query = query.Where("token = ?", *filter.Token)
	}
	if filter.Unused != nil {
		if *filter.Unused {
			query = query.Where("used_at IS NULL")
		} else {
			query = query.Where("used_at IS NOT NULL")
		}
	}
	return query
}

// ByFilter retrieves tokens based on filter criteria
func (r *CSATTokenRepositoryImpl) ByFilter(ctx context.Context, filter models.CSATTokenFilter, orderBy string, limit, offset int) ([]*models.CSATToken, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CSATToken{}), filter)

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

	var rows []*models.CSATToken
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of tokens matching filter
func (r *CSATTokenRepositoryImpl) Count(ctx context.Context, filter models.CSATTokenFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CSATToken{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any token matches the filter
func (r *CSATTokenRepositoryImpl) Exists(ctx context.Context, filter models.CSATTokenFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByToken retrieves a token by its opaque value
func (r *CSATTokenRepositoryImpl) ByToken(ctx context.Context, token string) (*models.CSATToken, error) {
	db := r.getDB(ctx)
	var row models.CSATToken
	if err := db.Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// LatestByRequest retrieves the most recently issued token for a ticket.
// Ordering by id makes the newest token win after an invalidate-then-insert.
func (r *CSATTokenRepositoryImpl) LatestByRequest(ctx context.Context, requestID uint) (*models.CSATToken, error) {
	db := r.getDB(ctx)
	var row models.CSATToken
	err := db.Where("request_id = ?", requestID).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// InvalidateUnused marks every unused token of the ticket as used
func (r *CSATTokenRepositoryImpl) InvalidateUnused(ctx context.Context, requestID uint, usedAt time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
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

	err = db.Model(&models.CSATToken{}).
		Where("request_id = ? AND used_at IS NULL", requestID).
		Update("used_at", usedAt).Error
	if err != nil {
		return fmt.Errorf("failed to invalidate unused tokens: %w", err)
	}
	return nil
}

// MarkUsed sets used_at on a token conditioned on it still being unused
func (r *CSATTokenRepositoryImpl) MarkUsed(ctx context.Context, tokenID uint, usedAt time.Time) (bool, error) {
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

	result := db.Model(&models.CSATToken{}).
		Where("id = ? AND used_at IS NULL", tokenID).
		Update("used_at", usedAt)
	if result.Error != nil {
		err = result.Error
		return false, err
	}
	return result.RowsAffected > 0, nil
}

// CSATResponseRepositoryImpl implements CSATResponseRepository
type CSATResponseRepositoryImpl struct {
	*BaseRepository[models.CSATResponse, models.CSATResponseFilter]
}

// NewCSATResponseRepository creates a new CSAT response repository
func NewCSATResponseRepository(db *gorm.DB) CSATResponseRepository {
	return &CSATResponseRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CSATResponse, models.CSATResponseFilter](db),
	}
}

func (r *CSATResponseRepositoryImpl) applyFilter(query *gorm.DB, filter models.CSATResponseFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.RequestID != nil {
		query = query.Where("request_id = ?", *filter.RequestID)
	}
	if filter.TokenID != nil {
		query = query.Where("token_id = ?", *filter.TokenID)
	}
	if filter.SubmittedAfter != nil {
		query = query.Where("submitted_at >= ?", *filter.SubmittedAfter)
	}
	return query
}

// ByFilter retrieves responses based on filter criteria
func (r *CSATResponseRepositoryImpl) ByFilter(ctx context.Context, filter models.CSATResponseFilter, orderBy string, limit, offset int) ([]*models.CSATResponse, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CSATResponse{}), filter)

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

	var rows []*models.CSATResponse
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of responses matching filter
func (r *CSATResponseRepositoryImpl) Count(ctx context.Context, filter models.CSATResponseFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.CSATResponse{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any response matches the filter
func (r *CSATResponseRepositoryImpl) Exists(ctx context.Context, filter models.CSATResponseFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByTokenID retrieves the response submitted against one token, if any
func (r *CSATResponseRepositoryImpl) ByTokenID(ctx context.Context, tokenID uint) (*models.CSATResponse, error) {
	db := r.getDB(ctx)
	var row models.CSATResponse
	if err := db.Where("token_id = ?", tokenID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// LatestByRequest retrieves the most recent response for a ticket, if any
func (r *CSATResponseRepositoryImpl) LatestByRequest(ctx context.Context, requestID uint) (*models.CSATResponse, error) {
	db := r.getDB(ctx)
	var row models.CSATResponse
	err := db.Where("request_id = ?", requestID).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

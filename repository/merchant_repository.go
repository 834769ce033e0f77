package repository

import (
	"context"
	"errors"

	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/utils"
	"gorm.io/gorm"
)

// MerchantRepositoryImpl implements MerchantRepository
type MerchantRepositoryImpl struct {
	*BaseRepository[models.Merchant, models.MerchantFilter]
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &MerchantRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Merchant, models.MerchantFilter](db),
	}
}

func (r *MerchantRepositoryImpl) applyFilter(query *gorm.DB, filter models.MerchantFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.FID != nil {
		query = query.Where("fid = ?", *filter.FID)
	}
	if filter.FranchiseName != nil {
		query = query.Where("franchise_name ILIKE ?", "%"+*filter.FranchiseName+"%")
	}
	return query
}

// ByFilter retrieves merchants based on filter criteria
func (r *MerchantRepositoryImpl) ByFilter(ctx context.Context, filter models.MerchantFilter, orderBy string, limit, offset int) ([]*models.Merchant, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Merchant{}), filter)

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

	var rows []*models.Merchant
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of merchants matching filter
func (r *MerchantRepositoryImpl) Count(ctx context.Context, filter models.MerchantFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Merchant{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any merchant matches the filter
func (r *MerchantRepositoryImpl) Exists(ctx context.Context, filter models.MerchantFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByFID retrieves a merchant by its franchise identifier
func (r *MerchantRepositoryImpl) ByFID(ctx context.Context, fid string) (*models.Merchant, error) {
	db := r.getDB(ctx)
	var row models.Merchant
	if err := db.Where("fid = ?", fid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Upsert inserts or refreshes a merchant keyed by fid. Reports whether a new
// row was created.
func (r *MerchantRepositoryImpl) Upsert(ctx context.Context, merchant *models.Merchant) (bool, error) {
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

	var existing models.Merchant
	err = db.Where("fid = ?", merchant.FID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		err = db.Create(merchant).Error
		if err != nil {
			return false, err
		}
		return true, nil
	}

	err = db.Model(&existing).Updates(map[string]any{
		"franchise_name": merchant.FranchiseName,
		"contact_name":   merchant.ContactName,
		"phone_number":   merchant.PhoneNumber,
		"email":          merchant.Email,
		"imported_at":    merchant.ImportedAt,
		"updated_at":     utils.UTCNow(),
	}).Error
	if err != nil {
		return false, err
	}
	merchant.ID = existing.ID
	return false, nil
}

// MerchantOutletRepositoryImpl implements MerchantOutletRepository
type MerchantOutletRepositoryImpl struct {
	*BaseRepository[models.MerchantOutlet, models.MerchantOutletFilter]
}

// NewMerchantOutletRepository creates a new merchant outlet repository
func NewMerchantOutletRepository(db *gorm.DB) MerchantOutletRepository {
	return &MerchantOutletRepositoryImpl{
		BaseRepository: NewBaseRepository[models.MerchantOutlet, models.MerchantOutletFilter](db),
	}
}

func (r *MerchantOutletRepositoryImpl) applyFilter(query *gorm.DB, filter models.MerchantOutletFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.FID != nil {
		query = query.Where("fid = ?", *filter.FID)
	}
	if filter.OID != nil {
		query = query.Where("oid = ?", *filter.OID)
	}
	return query
}

// ByFilter retrieves outlets based on filter criteria
func (r *MerchantOutletRepositoryImpl) ByFilter(ctx context.Context, filter models.MerchantOutletFilter, orderBy string, limit, offset int) ([]*models.MerchantOutlet, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MerchantOutlet{}), filter)

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

	var rows []*models.MerchantOutlet
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of outlets matching filter
func (r *MerchantOutletRepositoryImpl) Count(ctx context.Context, filter models.MerchantOutletFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.MerchantOutlet{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any outlet matches the filter
func (r *MerchantOutletRepositoryImpl) Exists(ctx context.Context, filter models.MerchantOutletFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByFIDAndOID retrieves an outlet by its franchise and outlet identifiers
func (r *MerchantOutletRepositoryImpl) ByFIDAndOID(ctx context.Context, fid, oid string) (*models.MerchantOutlet, error) {
	db := r.getDB(ctx)
	var row models.MerchantOutlet
	if err := db.Where("fid = ? AND oid = ?", fid, oid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Upsert inserts or refreshes an outlet keyed by (fid, oid). Reports whether
// a new row was created.
func (r *MerchantOutletRepositoryImpl) Upsert(ctx context.Context, outlet *models.MerchantOutlet) (bool, error) {
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

	var existing models.MerchantOutlet
	err = db.Where("fid = ? AND oid = ?", outlet.FID, outlet.OID).First(&existing).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
		err = db.Create(outlet).Error
		if err != nil {
			return false, err
		}
		return true, nil
	}

	err = db.Model(&existing).Updates(map[string]any{
		"merchant_id": outlet.MerchantID,
		"outlet_name": outlet.OutletName,
		"city":        outlet.City,
		"address":     outlet.Address,
		"imported_at": outlet.ImportedAt,
		"updated_at":  utils.UTCNow(),
	}).Error
	if err != nil {
		return false, err
	}
	outlet.ID = existing.ID
	return false, nil
}

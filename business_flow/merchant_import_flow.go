package businessflow

import (
	"context"

	"github.com/merchantops/support-console/app/dto"
	"github.com/merchantops/support-console/app/services"
	"github.com/merchantops/support-console/models"
	"github.com/merchantops/support-console/repository"
	"github.com/merchantops/support-console/utils"
)

// MerchantFlow imports the merchant directory and resolves display names
type MerchantFlow interface {
	ImportMerchants(ctx context.Context, actor *Actor, metadata *ClientMetadata) (*dto.ImportMerchantsResponse, error)
	Lookup(ctx context.Context, req *dto.MerchantLookupRequest, metadata *ClientMetadata) (*dto.MerchantLookupResponse, error)
}

// MerchantFlowImpl implements MerchantFlow
type MerchantFlowImpl struct {
	merchantRepo repository.MerchantRepository
	outletRepo   repository.MerchantOutletRepository
	pos          services.POSService
	cache        services.MerchantCache
	pageSize     int
}

func NewMerchantFlow(
	merchantRepo repository.MerchantRepository,
	outletRepo repository.MerchantOutletRepository,
	pos services.POSService,
	cache services.MerchantCache,
	pageSize int,
) MerchantFlow {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &MerchantFlowImpl{
		merchantRepo: merchantRepo,
		outletRepo:   outletRepo,
		pos:          pos,
		cache:        cache,
		pageSize:     pageSize,
	}
}

// ImportMerchants pulls the full merchant directory page by page and upserts
// franchises and outlets. Cached lookups for touched franchises are dropped
// so stale names do not survive an import.
func (f *MerchantFlowImpl) ImportMerchants(ctx context.Context, actor *Actor, metadata *ClientMetadata) (*dto.ImportMerchantsResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrReviewerNotAdmin
	}

	result := &dto.ImportMerchantsResponse{Message: "Merchant import completed"}
	now := utils.UTCNow()

	for page := 1; ; page++ {
		batch, err := f.pos.FetchMerchants(ctx, page, f.pageSize)
		if err != nil {
			return nil, NewBusinessError("UPSTREAM_FAILED", "merchant directory fetch failed", err)
		}
		if len(batch.Merchants) == 0 {
			break
		}
		result.PagesFetched++

		for _, m := range batch.Merchants {
			merchant := &models.Merchant{
				FID:           m.FID,
				FranchiseName: m.FranchiseName,
				ImportedAt:    now,
			}
			created, err := f.merchantRepo.Upsert(ctx, merchant)
			if err != nil {
				return nil, NewBusinessError("STORAGE_FAILED", "failed to upsert merchant", err)
			}
			if created {
				result.MerchantsCreated++
			} else {
				result.MerchantsUpdated++
			}

			for _, o := range m.Outlets {
				outlet := &models.MerchantOutlet{
					MerchantID: merchant.ID,
					FID:        m.FID,
					OID:        o.OID,
					OutletName: o.OutletName,
					ImportedAt: now,
				}
				outletCreated, err := f.outletRepo.Upsert(ctx, outlet)
				if err != nil {
					return nil, NewBusinessError("STORAGE_FAILED", "failed to upsert outlet", err)
				}
				if outletCreated {
					result.OutletsCreated++
				} else {
					result.OutletsUpdated++
				}
			}

			if f.cache != nil {
				_ = f.cache.Invalidate(ctx, m.FID)
			}
		}

		if batch.TotalPages > 0 && page >= batch.TotalPages {
			break
		}
	}

	return result, nil
}

// Lookup resolves franchise and outlet display names, cache first.
// Best-effort contract: unknown identifiers come back as nulls, not errors.
func (f *MerchantFlowImpl) Lookup(ctx context.Context, req *dto.MerchantLookupRequest, metadata *ClientMetadata) (*dto.MerchantLookupResponse, error) {
	result := &dto.MerchantLookupResponse{Message: "Lookup completed"}

	if f.cache != nil {
		if m, err := f.cache.GetMerchant(ctx, req.FID); err == nil && m != nil {
			result.FranchiseName = utils.ToPtr(m.FranchiseName)
		}
	}
	if result.FranchiseName == nil {
		m, err := f.merchantRepo.ByFID(ctx, req.FID)
		if err != nil {
			return nil, NewBusinessError("STORAGE_FAILED", "failed to look up merchant", err)
		}
		if m != nil {
			result.FranchiseName = utils.ToPtr(m.FranchiseName)
			if f.cache != nil {
				_ = f.cache.SetMerchant(ctx, m)
			}
		}
	}

	if req.OID != nil && *req.OID != "" {
		if f.cache != nil {
			if o, err := f.cache.GetOutlet(ctx, req.FID, *req.OID); err == nil && o != nil {
				result.OutletName = utils.ToPtr(o.OutletName)
			}
		}
		if result.OutletName == nil {
			o, err := f.outletRepo.ByFIDAndOID(ctx, req.FID, *req.OID)
			if err != nil {
				return nil, NewBusinessError("STORAGE_FAILED", "failed to look up outlet", err)
			}
			if o != nil {
				result.OutletName = utils.ToPtr(o.OutletName)
				if f.cache != nil {
					_ = f.cache.SetOutlet(ctx, o)
				}
			}
		}
	}

	return result, nil
}

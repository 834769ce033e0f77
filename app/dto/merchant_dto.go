package dto

// ImportMerchantsResponse summarizes a merchant directory import run
type ImportMerchantsResponse struct {
	Message          string `json:"message"`
	MerchantsCreated int    `json:"merchants_created"`
	MerchantsUpdated int    `json:"merchants_updated"`
	OutletsCreated   int    `json:"outlets_created"`
	OutletsUpdated   int    `json:"outlets_updated"`
	PagesFetched     int    `json:"pages_fetched"`
}

// MerchantLookupRequest resolves display names for a fid/oid pair
type MerchantLookupRequest struct {
	FID string  `json:"fid" validate:"required,max=64"`
	OID *string `json:"oid,omitempty" validate:"omitempty,max=64"`
}

// MerchantLookupResponse returns resolved display names; nulls mean no match
type MerchantLookupResponse struct {
	Message       string  `json:"message"`
	FranchiseName *string `json:"franchise_name"`
	OutletName    *string `json:"outlet_name"`
}

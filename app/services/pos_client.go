package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/merchantops/support-console/config"
)

// POSService fetches the merchant directory from the point-of-sale platform
type POSService interface {
	FetchMerchants(ctx context.Context, page, pageSize int) (*POSMerchantPage, error)
}

// POSMerchant is one franchise record from the POS directory
type POSMerchant struct {
	FID           string      `json:"fid"`
	FranchiseName string      `json:"franchise_name"`
	Outlets       []POSOutlet `json:"outlets"`
}

// POSOutlet is one outlet under a franchise
type POSOutlet struct {
	OID        string `json:"oid"`
	OutletName string `json:"outlet_name"`
}

// POSMerchantPage is one page of the merchant directory
type POSMerchantPage struct {
	Merchants  []POSMerchant `json:"merchants"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
}

// POSServiceImpl implements POSService
type POSServiceImpl struct {
	config *config.POSConfig
	client *http.Client
}

// NewPOSService creates a new POS service instance
func NewPOSService(cfg *config.POSConfig) POSService {
	return &POSServiceImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchMerchants retrieves one page of the merchant directory
func (s *POSServiceImpl) FetchMerchants(ctx context.Context, page, pageSize int) (*POSMerchantPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	endpoint := fmt.Sprintf("%s/api/merchants?%s", s.config.BaseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("x-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("merchant directory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("merchant directory returned status %d", resp.StatusCode)
	}

	var result POSMerchantPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode merchant directory response: %w", err)
	}
	return &result, nil
}

// MockPOSService implements POSService for testing
type MockPOSService struct {
	Pages    []POSMerchantPage
	FetchErr error
}

// NewMockPOSService creates a new mock POS service
func NewMockPOSService(pages ...POSMerchantPage) *MockPOSService {
	return &MockPOSService{Pages: pages}
}

// FetchMerchants returns the configured page
func (m *MockPOSService) FetchMerchants(ctx context.Context, page, pageSize int) (*POSMerchantPage, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	if page < 1 || page > len(m.Pages) {
		return &POSMerchantPage{Page: page, TotalPages: len(m.Pages)}, nil
	}
	result := m.Pages[page-1]
	result.Page = page
	result.TotalPages = len(m.Pages)
	return &result, nil
}

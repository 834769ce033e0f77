package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merchantops/support-console/config"
	"github.com/merchantops/support-console/models"
)

// MerchantCache caches merchant directory lookups so ticket enrichment does
// not hit the database on every webhook
type MerchantCache interface {
	GetMerchant(ctx context.Context, fid string) (*models.Merchant, error)
	SetMerchant(ctx context.Context, merchant *models.Merchant) error
	GetOutlet(ctx context.Context, fid, oid string) (*models.MerchantOutlet, error)
	SetOutlet(ctx context.Context, outlet *models.MerchantOutlet) error
	Invalidate(ctx context.Context, fid string) error
	Ping(ctx context.Context) error
}

// RedisMerchantCache implements MerchantCache on redis
type RedisMerchantCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMerchantCache creates a new redis backed merchant cache
func NewRedisMerchantCache(cfg *config.CacheConfig) *RedisMerchantCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisMerchantCache{client: client, ttl: cfg.TTL}
}

func merchantKey(fid string) string {
	return "merchant:" + fid
}

func outletKey(fid, oid string) string {
	return "outlet:" + fid + ":" + oid
}

// GetMerchant returns the cached merchant or nil on a miss
func (c *RedisMerchantCache) GetMerchant(ctx context.Context, fid string) (*models.Merchant, error) {
	raw, err := c.client.Get(ctx, merchantKey(fid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("merchant cache read failed: %w", err)
	}
	var merchant models.Merchant
	if err := json.Unmarshal([]byte(raw), &merchant); err != nil {
		return nil, fmt.Errorf("merchant cache entry corrupt: %w", err)
	}
	return &merchant, nil
}

// SetMerchant caches a merchant record
func (c *RedisMerchantCache) SetMerchant(ctx context.Context, merchant *models.Merchant) error {
	raw, err := json.Marshal(merchant)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, merchantKey(merchant.FID), raw, c.ttl).Err()
}

// GetOutlet returns the cached outlet or nil on a miss
func (c *RedisMerchantCache) GetOutlet(ctx context.Context, fid, oid string) (*models.MerchantOutlet, error) {
	raw, err := c.client.Get(ctx, outletKey(fid, oid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("outlet cache read failed: %w", err)
	}
	var outlet models.MerchantOutlet
	if err := json.Unmarshal([]byte(raw), &outlet); err != nil {
		return nil, fmt.Errorf("outlet cache entry corrupt: %w", err)
	}
	return &outlet, nil
}

// SetOutlet caches an outlet record
func (c *RedisMerchantCache) SetOutlet(ctx context.Context, outlet *models.MerchantOutlet) error {
	raw, err := json.Marshal(outlet)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, outletKey(outlet.FID, outlet.OID), raw, c.ttl).Err()
}

// Invalidate drops every cached entry of a franchise
func (c *RedisMerchantCache) Invalidate(ctx context.Context, fid string) error {
	iter := c.client.Scan(ctx, 0, "outlet:"+fid+":*", 0).Iterator()
	keys := []string{merchantKey(fid)}
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.client.Del(ctx, keys...).Err()
}

// Ping checks cache connectivity
func (c *RedisMerchantCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// MockMerchantCache implements MerchantCache in memory for testing
type MockMerchantCache struct {
	Merchants map[string]*models.Merchant
	Outlets   map[string]*models.MerchantOutlet
}

// NewMockMerchantCache creates a new in-memory merchant cache
func NewMockMerchantCache() *MockMerchantCache {
	return &MockMerchantCache{
		Merchants: make(map[string]*models.Merchant),
		Outlets:   make(map[string]*models.MerchantOutlet),
	}
}

func (m *MockMerchantCache) GetMerchant(ctx context.Context, fid string) (*models.Merchant, error) {
	return m.Merchants[fid], nil
}

func (m *MockMerchantCache) SetMerchant(ctx context.Context, merchant *models.Merchant) error {
	m.Merchants[merchant.FID] = merchant
	return nil
}

func (m *MockMerchantCache) GetOutlet(ctx context.Context, fid, oid string) (*models.MerchantOutlet, error) {
	return m.Outlets[fid+":"+oid], nil
}

func (m *MockMerchantCache) SetOutlet(ctx context.Context, outlet *models.MerchantOutlet) error {
	m.Outlets[outlet.FID+":"+outlet.OID] = outlet
	return nil
}

func (m *MockMerchantCache) Invalidate(ctx context.Context, fid string) error {
	delete(m.Merchants, fid)
	for key := range m.Outlets {
		if len(key) > len(fid) && key[:len(fid)+1] == fid+":" {
			delete(m.Outlets, key)
		}
	}
	return nil
}

func (m *MockMerchantCache) Ping(ctx context.Context) error {
	return nil
}

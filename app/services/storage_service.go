package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/merchantops/support-console/config"
)

// StorageService handles attachment upload and retrieval in object storage
type StorageService interface {
	Upload(ctx context.Context, objectKey, contentType string, content io.Reader, size int64) (string, error)
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

// StorageServiceImpl implements StorageService on a MinIO compatible backend
type StorageServiceImpl struct {
	config *config.StorageConfig
	client *minio.Client
}

// NewStorageService creates a new object storage service instance
func NewStorageService(cfg *config.StorageConfig) (StorageService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &StorageServiceImpl{config: cfg, client: client}, nil
}

// Upload stores an object and returns its key
func (s *StorageServiceImpl) Upload(ctx context.Context, objectKey, contentType string, content io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.config.Bucket, objectKey, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return objectKey, nil
}

// Download opens a stream over a stored object
func (s *StorageServiceImpl) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.config.Bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", objectKey, err)
	}
	return object, nil
}

// PresignedURL returns a short lived download URL for an object
func (s *StorageServiceImpl) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.config.Bucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", objectKey, err)
	}
	return url.String(), nil
}

// MockStorageService implements StorageService for testing
type MockStorageService struct {
	Objects map[string][]byte
}

// NewMockStorageService creates a new mock storage service
func NewMockStorageService() *MockStorageService {
	return &MockStorageService{Objects: make(map[string][]byte)}
}

// Upload stores content in memory
func (m *MockStorageService) Upload(ctx context.Context, objectKey, contentType string, content io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	m.Objects[objectKey] = data
	return objectKey, nil
}

// Download opens a stream over in-memory content
func (m *MockStorageService) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	data, ok := m.Objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// PresignedURL returns a deterministic fake URL
func (m *MockStorageService) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	if _, ok := m.Objects[objectKey]; !ok {
		return "", fmt.Errorf("object %s not found", objectKey)
	}
	return "https://storage.local/" + objectKey, nil
}

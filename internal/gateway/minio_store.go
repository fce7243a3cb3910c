package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/config"
	"github.com/ahmad-alkadri/meme-depot/internal/metrics"
)

type MinioStore struct {
	client        *minio.Client
	bucket        string
	presignExpiry time.Duration
	logger        *zap.Logger
}

// NewMinioStore creates a MinIO backed object store. The bucket is not
// touched until EnsureBucket is called.
func NewMinioStore(cfg *config.GatewayConfig, logger *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	return &MinioStore{
		client:        client,
		bucket:        cfg.MinioBucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        logger,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (m *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("error checking if bucket exists: %w", err)
	}

	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("error creating bucket: %w", err)
		}
		m.logger.Info("created bucket", zap.String("bucket", m.bucket))
	}

	return nil
}

// RemoveBucket empties the bucket and deletes it. A missing bucket is not
// an error.
func (m *MinioStore) RemoveBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("error checking if bucket exists: %w", err)
	}
	if !exists {
		m.logger.Info("bucket does not exist", zap.String("bucket", m.bucket))
		return nil
	}

	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return fmt.Errorf("error listing objects: %w", object.Err)
		}
		if err := m.client.RemoveObject(ctx, m.bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete object %s: %w", object.Key, err)
		}
	}

	if err := m.client.RemoveBucket(ctx, m.bucket); err != nil {
		return fmt.Errorf("error removing bucket: %w", err)
	}
	m.logger.Info("removed bucket", zap.String("bucket", m.bucket))
	return nil
}

func (m *MinioStore) PutObject(ctx context.Context, name string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	metrics.ObserveStorage("put", err)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", name, err)
	}

	m.logger.Debug("saved object", zap.String("object", name), zap.Int("size", len(data)), zap.String("content_type", contentType))
	return nil
}

func (m *MinioStore) GetObject(ctx context.Context, name string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		metrics.ObserveStorage("get", err)
		return nil, fmt.Errorf("failed to get object %s: %w", name, err)
	}
	defer object.Close()

	var buffer bytes.Buffer
	_, err = buffer.ReadFrom(object)
	metrics.ObserveStorage("get", err)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", name, err)
	}

	return buffer.Bytes(), nil
}

func (m *MinioStore) RemoveObject(ctx context.Context, name string) error {
	err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		err = nil
	}
	metrics.ObserveStorage("remove", err)
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", name, err)
	}

	m.logger.Debug("deleted object", zap.String("object", name))
	return nil
}

// PresignedURL returns a GET URL for name valid for the configured expiry.
func (m *MinioStore) PresignedURL(ctx context.Context, name string) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, name, m.presignExpiry, url.Values{})
	metrics.ObserveStorage("presign", err)
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", name, err)
	}
	return u.String(), nil
}

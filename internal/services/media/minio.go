package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/asset-service/internal/config"
)

// MinIO stores uploads in an S3-compatible bucket and hands out presigned
// GET URLs as locators.
type MinIO struct {
	client     *minio.Client
	bucketName string
	prefix     string
	urlTTL     time.Duration
}

// NewMinIO creates the client and makes sure the bucket exists.
func NewMinIO(ctx context.Context, cfg config.MinIO) (*MinIO, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	m := &MinIO{
		client:     client,
		bucketName: cfg.BucketName,
		prefix:     cfg.Prefix,
		urlTTL:     cfg.PresignedURLTTL,
	}

	if err := m.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return m, nil
}

func (m *MinIO) ensureBucket(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = m.client.MakeBucket(ctx, m.bucketName, minio.MakeBucketOptions{Region: region})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

func (m *MinIO) Remote() bool { return true }

func (m *MinIO) Put(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if contentType == "" {
		contentType = ContentType(filename)
	}
	key := m.prefix + GenerateObjectName(filename, time.Now())

	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	presigned, err := m.client.PresignedGetObject(ctx, m.bucketName, key, m.urlTTL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presigned.String(), nil
}

func (m *MinIO) Delete(ctx context.Context, locator string) error {
	key, err := m.ObjectKey(locator)
	if err != nil {
		return err
	}
	return m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{})
}

func (m *MinIO) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	key, err := m.ObjectKey(locator)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// ObjectKey extracts the object key from a presigned or plain object URL.
// Both virtual-hosted (bucket.host/key) and path-style (host/bucket/key)
// URLs are accepted.
func (m *MinIO) ObjectKey(locator string) (string, error) {
	return objectKey(m.bucketName, locator)
}

func objectKey(bucket, locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidLocator, locator)
	}

	path := strings.TrimPrefix(u.Path, "/")
	if strings.HasPrefix(u.Host, bucket+".") {
		if path == "" {
			return "", fmt.Errorf("%w: %s", ErrInvalidLocator, locator)
		}
		return path, nil
	}

	key, ok := strings.CutPrefix(path, bucket+"/")
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidLocator, locator)
	}
	return key, nil
}

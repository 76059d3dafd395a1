package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService stores image objects in a single bucket.
type StorageService interface {
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	RemoveObject(ctx context.Context, key string) error
	// ObjectURL returns a stable, unsigned URL for key.
	ObjectURL(key string) string
	EnsureBucket(ctx context.Context) error
	Ping(ctx context.Context) error
}

type StorageOptions struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
}

type minioStorage struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

func NewStorageService(opts StorageOptions) (StorageService, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	publicBase := strings.TrimRight(opts.PublicBaseURL, "/")
	if publicBase == "" {
		publicBase = strings.TrimRight(client.EndpointURL().String(), "/") + "/" + opts.Bucket
	}

	return &minioStorage{client: client, bucket: opts.Bucket, publicBase: publicBase}, nil
}

func (m *minioStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioStorage) RemoveObject(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *minioStorage) ObjectURL(key string) string {
	return m.publicBase + "/" + strings.TrimLeft(key, "/")
}

func (m *minioStorage) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", m.bucket, err)
		}
	}
	return nil
}

func (m *minioStorage) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}

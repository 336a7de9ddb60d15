package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tunedrop/config"
	"tunedrop/logger"
)

// MinioStore holds track audio as objects keyed
// {artistId}/{submissionId}/{timestamp}_{filename}.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the object store, verifies the bucket exists and
// creates it if it doesn't.
func NewMinioStore(cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created storage bucket", logger.String("bucket", cfg.MinioBucket))
	}

	publicURL := strings.TrimSuffix(cfg.MinioPublicURL, "/")
	if publicURL == "" {
		// Objects are served through this process instead.
		publicURL = "/static"
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.MinioBucket,
		publicURL: publicURL,
	}, nil
}

// Put streams one object into the bucket.
func (s *MinioStore) Put(ctx context.Context, objectPath string, reader io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, objectPath, reader, size, opts); err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectPath, err)
	}
	return nil
}

// Remove deletes one object.
func (s *MinioStore) Remove(ctx context.Context, objectPath string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectPath, err)
	}
	return nil
}

// Get opens one object for reading. The caller closes it.
func (s *MinioStore) Get(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	return object, nil
}

// Stat returns object metadata; used by the CLI bucket inspector.
func (s *MinioStore) Stat(ctx context.Context, objectPath string) (minio.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, objectPath, minio.StatObjectOptions{})
	if err != nil {
		return minio.ObjectInfo{}, fmt.Errorf("failed to stat object %s: %w", objectPath, err)
	}
	return info, nil
}

// List walks the bucket under the given prefix.
func (s *MinioStore) List(ctx context.Context, prefix string, recursive bool) <-chan minio.ObjectInfo {
	return s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	})
}

// PublicURL derives the retrieval URL for a stored object.
func (s *MinioStore) PublicURL(objectPath string) string {
	return s.publicURL + "/" + objectPath
}

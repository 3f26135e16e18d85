package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"revify/internal/config"
)

// AssetStore uploads audio files and cover images to an S3-compatible
// object store and hands back publicly reachable URLs.
type AssetStore struct {
	client *minio.Client
	cfg    *config.StorageConfig
	logger *logrus.Logger
}

// New connects to the object store and ensures the configured bucket exists.
func New(cfg *config.StorageConfig, logger *logrus.Logger) (*AssetStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.WithField("bucket", cfg.Bucket).Info("Created storage bucket")
	}

	logger.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.Bucket,
	}).Info("Connected to asset storage")

	return &AssetStore{client: client, cfg: cfg, logger: logger}, nil
}

// UploadAudio stores an audio stream under audio/<name> and returns its public URL.
func (s *AssetStore) UploadAudio(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	return s.upload(ctx, path.Join("audio", name), r, size, contentType)
}

// UploadCover stores a cover image under covers/<name> and returns its public URL.
func (s *AssetStore) UploadCover(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	return s.upload(ctx, path.Join("covers", name), r, size, contentType)
}

// UploadCoverBase64 decodes a data-URI or raw base64 cover image and stores it.
// Clients submit cover art this way from the upload form.
func (s *AssetStore) UploadCoverBase64(ctx context.Context, name, encoded string) (string, error) {
	contentType := "image/jpeg"
	if idx := strings.Index(encoded, ";base64,"); idx >= 0 {
		header := encoded[:idx]
		if strings.HasPrefix(header, "data:") {
			contentType = header[len("data:"):]
		}
		encoded = encoded[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64 image data: %w", err)
	}

	return s.UploadCover(ctx, name, strings.NewReader(string(data)), int64(len(data)), contentType)
}

func (s *AssetStore) upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}

	s.logger.WithFields(logrus.Fields{
		"object": objectName,
		"size":   size,
	}).Debug("Uploaded asset")

	return s.PublicURL(objectName), nil
}

// PublicURL builds the externally reachable URL for a stored object.
func (s *AssetStore) PublicURL(objectName string) string {
	base := strings.TrimRight(s.cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if s.cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket)
	}
	return base + "/" + objectName
}

// RemoveObject deletes a stored object. Used when a song is removed.
func (s *AssetStore) RemoveObject(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.cfg.Bucket, objectName, minio.RemoveObjectOptions{})
}

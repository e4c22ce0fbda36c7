// Package storage downloads and uploads the daily SQLite databases from an
// S3-compatible object store (Cloudflare R2 in production).
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vestra-data/signalgate/pkg/config"
	"github.com/vestra-data/signalgate/pkg/feed"
)

// ErrNotConfigured is returned when the object store credentials are absent.
// Callers fall back to local data sources.
var ErrNotConfigured = errors.New("object storage not configured")

// Client wraps a MinIO client scoped to one bucket.
type Client struct {
	mc     *minio.Client
	bucket string
	logger zerolog.Logger
}

// New builds a Client from configuration. Missing endpoint or credentials
// yield ErrNotConfigured rather than a half-working client.
func New(cfg config.StorageConfig) (*Client, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, ErrNotConfigured
	}

	endpoint := cfg.Endpoint
	secure := true
	if u, err := url.Parse(cfg.Endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		secure = u.Scheme != "http"
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Client{mc: mc, bucket: cfg.Bucket, logger: log.Logger}, nil
}

// DownloadDB fetches one daily database ("news" or "rss") for the given day
// into the working directory and returns the local path.
func (c *Client) DownloadDB(ctx context.Context, kind string, day time.Time) (string, error) {
	objectKey := fmt.Sprintf("%s/%s.db", kind, day.Format("2006-01-02"))
	localPath := feed.DBPath(kind, day)

	c.logger.Info().Str("object", objectKey).Str("local", localPath).Msg("downloading daily db")
	if err := c.mc.FGetObject(ctx, c.bucket, objectKey, localPath, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("download %s: %w", objectKey, err)
	}
	return localPath, nil
}

// UploadDB pushes a local daily database back to the store under the
// conventional key layout.
func (c *Client) UploadDB(ctx context.Context, kind string, day time.Time, localPath string) error {
	objectKey := fmt.Sprintf("%s/%s.db", kind, day.Format("2006-01-02"))
	_, err := c.mc.FPutObject(ctx, c.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectKey, err)
	}
	c.logger.Info().Str("object", objectKey).Msg("daily db uploaded")
	return nil
}

// IsNotFound reports whether err means the object does not exist yet, which
// is expected early in the day before the crawler has run.
func IsNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
	}
	return strings.Contains(err.Error(), "NoSuchKey")
}

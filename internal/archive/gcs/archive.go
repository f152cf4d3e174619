// Package gcs archives raw page bodies in Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// Config captures the parameters required to archive into GCS.
type Config struct {
	Bucket string
	// Prefix is prepended to every object name, e.g. "harvest".
	Prefix string
}

// Archive writes page bodies to a configured GCS bucket. Authentication is
// handled via Application Default Credentials on the injected client.
type Archive struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// New wraps an existing GCS client. Call Verify before first use to fail
// fast on a missing or inaccessible bucket.
func New(client *storage.Client, cfg Config, logger *zap.Logger) (*Archive, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: logger,
	}, nil
}

// Verify checks that the bucket exists and is accessible.
func (a *Archive) Verify(ctx context.Context) error {
	if _, err := a.client.Bucket(a.bucket).Attrs(ctx); err != nil {
		return fmt.Errorf("get GCS bucket %q attributes: %w", a.bucket, err)
	}
	return nil
}

// Save uploads the body to the bucket. Close must succeed for the upload to
// be finalized.
func (a *Archive) Save(ctx context.Context, objectName string, data []byte) error {
	if strings.TrimSpace(objectName) == "" {
		return fmt.Errorf("object name is required")
	}
	name := objectName
	if a.prefix != "" {
		name = a.prefix + "/" + objectName
	}
	wc := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = "text/html; charset=utf-8"
	if _, err := wc.Write(data); err != nil {
		if closeErr := wc.Close(); closeErr != nil {
			a.logger.Warn("close GCS writer after write failure",
				zap.String("object", name), zap.Error(closeErr))
		}
		return fmt.Errorf("write GCS object %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close GCS writer for object %s: %w", name, err)
	}
	return nil
}

package content

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// GCSSink implements Sink on a Google Cloud Storage bucket. Authentication
// uses Application Default Credentials.
type GCSSink struct {
	client *storage.Client
	bucket string
	logger *zap.Logger
}

// NewGCSSink initializes the client and verifies the bucket is reachable,
// failing fast on misconfiguration.
func NewGCSSink(ctx context.Context, bucket string, logger *zap.Logger) (*GCSSink, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("closing gcs client after bucket check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("stat gcs bucket %q: %w", bucket, err)
	}
	return &GCSSink{client: client, bucket: bucket, logger: logger}, nil
}

// Save uploads the body and returns its gs:// URI.
func (g *GCSSink) Save(ctx context.Context, objectPath string, data []byte) (string, error) {
	w := g.client.Bucket(g.bucket).Object(objectPath).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		if closeErr := w.Close(); closeErr != nil {
			g.logger.Warn("closing gcs writer after write failure", zap.Error(closeErr))
		}
		return "", fmt.Errorf("write gcs object %s: %w", objectPath, err)
	}
	// Close finalizes the upload and flushes buffered data.
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gcs object %s: %w", objectPath, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, objectPath), nil
}

// Close releases the underlying client.
func (g *GCSSink) Close() error {
	return g.client.Close()
}

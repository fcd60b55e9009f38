package rawstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Store archives raw source payloads to a GCS bucket so any ingestion run can
// be replayed. Objects are laid out as raw/<source>/<yyyy/mm/dd>/<uuid> with
// the payload checksum in object metadata. It assumes Application Default
// Credentials are configured.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates an archive over the given bucket.
func New(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Archive writes one payload and returns its gs:// URI.
func (s *Store) Archive(ctx context.Context, source string, payload []byte) (string, error) {
	now := time.Now().UTC()
	objectName := fmt.Sprintf("raw/%s/%s/%s", source, now.Format("2006/01/02"), uuid.NewString())

	sum := sha256.Sum256(payload)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(objectName).NewWriter(ctx)
	w.Metadata = map[string]string{
		"checksum_sha256": hex.EncodeToString(sum[:]),
		"source":          source,
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write payload to %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload %s: %w", objectName, err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

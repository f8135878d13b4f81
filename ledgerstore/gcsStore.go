package ledgerstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSStore keeps the ledger as a single JSON object.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string
}

func NewGCSStore(client *storage.Client, bucket, key string) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
		object: "ledger/" + key + ".json",
	}
}

func (s *GCSStore) Load(ctx context.Context) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return data, nil
}

func (s *GCSStore) Save(ctx context.Context, data []byte) error {
	w := s.client.Bucket(s.bucket).Object(s.object).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "no-store"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", s.bucket, s.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", s.bucket, s.object, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

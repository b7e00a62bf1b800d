package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"google.golang.org/api/googleapi"
)

// GCSStore keeps uploads as objects in a Cloud Storage bucket, one
// object per document ID.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
}

func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs blob store requires a bucket name")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{bucket: client.Bucket(bucket), name: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, documentID, contentType string, data []byte) error {
	writer := s.bucket.Object(objectName(documentID)).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing blob to gcs: %w", err)
	}
	if err := writer.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 412 {
			logger.Log.WithField("document_id", documentID).Warn("blob object already exists, keeping existing")
			return nil
		}
		return fmt.Errorf("finalizing gcs write: %w", err)
	}
	return nil
}

func (s *GCSStore) Get(ctx context.Context, documentID string) ([]byte, error) {
	reader, err := s.bucket.Object(objectName(documentID)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening blob reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading blob from gcs: %w", err)
	}
	return data, nil
}

func (s *GCSStore) Delete(ctx context.Context, documentID string) error {
	err := s.bucket.Object(objectName(documentID)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func objectName(documentID string) string {
	return "documents/" + documentID
}

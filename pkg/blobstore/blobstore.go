package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no blob exists for a document. The
// pipeline maps it to its content-missing failure reason.
var ErrNotFound = errors.New("blob not found")

// Store owns the raw uploaded bytes, addressed by document ID. The
// core keeps a reference only, never a second copy. Blobs survive
// successful processing so a document can be re-extracted later.
type Store interface {
	Put(ctx context.Context, documentID, contentType string, data []byte) error
	Get(ctx context.Context, documentID string) ([]byte, error)
	Delete(ctx context.Context, documentID string) error
}

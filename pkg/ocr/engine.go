package ocr

import (
	"context"

	"github.com/fra-atlas/platform/pkg/extract"
)

// Request carries one document image into an engine.
type Request struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Result is what an engine produced for one image. Fields may be nil,
// in which case the orchestrator runs keyword extraction over Text.
// Confidence may be nil, in which case the orchestrator scores the
// extracted fields itself.
type Result struct {
	Text       string
	Fields     extract.FieldMap
	Confidence *float64
	Language   string
}

// Engine recognizes text in a scanned document image. Implementations
// must be safe for concurrent use; the dispatcher calls them from
// multiple workers.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, req Request) (*Result, error)
}

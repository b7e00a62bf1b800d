package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/fra-atlas/platform/pkg/blobstore"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/fra-atlas/platform/pkg/document"
	"github.com/fra-atlas/platform/pkg/extract"
	"github.com/fra-atlas/platform/pkg/notify"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var (
	// ErrContentMissing means the document row exists but its blob is
	// gone, which is unrecoverable without a fresh upload.
	ErrContentMissing = errors.New("document content missing from blob store")
	// ErrEngineUnavailable means every configured engine failed.
	ErrEngineUnavailable = errors.New("no extraction engine available")
	// ErrNoReadableText means recognition ran but produced nothing.
	ErrNoReadableText = errors.New("no readable text in document")
)

// DocumentStore is the slice of the document repository the
// orchestrator drives: claiming a pending document and persisting the
// outcome.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	BeginProcessing(ctx context.Context, id string) error
	CompleteOCR(ctx context.Context, id string, res document.OCRResult) error
	FailOCR(ctx context.Context, id, reason string) error
}

// Orchestrator runs one extraction attempt end to end: claim the
// document, recognize text, extract and score fields, persist the
// outcome and publish the stage event.
type Orchestrator struct {
	store     DocumentStore
	blobs     blobstore.Store
	cloud     Engine
	local     Engine
	publisher notify.Publisher
}

// NewOrchestrator wires the engines. cloud may be nil when no cloud
// project is configured; local may be nil in unusual deployments. At
// least one must be set for image documents to complete.
func NewOrchestrator(store DocumentStore, blobs blobstore.Store, cloud, local Engine, publisher notify.Publisher) *Orchestrator {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Orchestrator{store: store, blobs: blobs, cloud: cloud, local: local, publisher: publisher}
}

// Process runs one attempt for the given document. A document that is
// not in pending state is skipped silently: some other worker already
// owns it, which is the expected outcome of duplicate scheduling.
func (o *Orchestrator) Process(ctx context.Context, documentID string) error {
	if err := o.store.BeginProcessing(ctx, documentID); err != nil {
		if errors.Is(err, document.ErrConflict) {
			logger.WithField("document_id", documentID).Debug("document already claimed, skipping")
			return nil
		}
		return err
	}

	o.publish(ctx, notify.EventExtractionStarted, map[string]interface{}{
		"document_id": documentID,
	})

	res, err := o.attempt(ctx, documentID)
	if err != nil {
		reason := err.Error()
		if failErr := o.store.FailOCR(ctx, documentID, reason); failErr != nil {
			logger.Log.WithError(failErr).WithField("document_id", documentID).Error("failed to record extraction failure")
		}
		o.publish(ctx, notify.EventExtractionFailed, map[string]interface{}{
			"document_id": documentID,
			"reason":      reason,
		})
		return err
	}

	if err := o.store.CompleteOCR(ctx, documentID, *res); err != nil {
		// The document must not stay in processing: Requeue only
		// re-arms failed or completed documents, so a missed terminal
		// transition here would strand it beyond operator reach.
		reason := "result persistence failed: " + err.Error()
		if failErr := o.store.FailOCR(ctx, documentID, reason); failErr != nil {
			logger.Log.WithError(failErr).WithField("document_id", documentID).Error("failed to record persistence failure")
		}
		o.publish(ctx, notify.EventExtractionFailed, map[string]interface{}{
			"document_id": documentID,
			"reason":      reason,
		})
		return fmt.Errorf("persisting extraction result: %w", err)
	}

	o.publish(ctx, notify.EventExtractionCompleted, map[string]interface{}{
		"document_id": documentID,
		"engine":      res.Engine,
		"confidence":  res.Confidence,
		"language":    res.Language,
	})

	logger.WithFields(map[string]interface{}{
		"document_id": documentID,
		"engine":      res.Engine,
		"confidence":  res.Confidence,
	}).Info("extraction completed")
	return nil
}

func (o *Orchestrator) attempt(ctx context.Context, documentID string) (*document.OCRResult, error) {
	doc, err := o.store.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	data, err := o.blobs.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrContentMissing
		}
		return nil, fmt.Errorf("loading document content: %w", err)
	}

	if doc.FileType == document.MediaTypePDF {
		return o.processPDF(documentID, data)
	}

	engineResult, engineName, err := o.recognize(ctx, Request{
		Data:      data,
		MediaType: doc.FileType,
		Filename:  doc.OriginalFilename,
	})
	if err != nil {
		return nil, err
	}
	if engineResult.Text == "" {
		return nil, ErrNoReadableText
	}

	fields := engineResult.Fields
	if fields == nil {
		fields = extract.Extract(engineResult.Text)
	}

	docType := extract.Classify(engineResult.Text)
	confidence := extract.Confidence(docType, fields)
	if engineResult.Confidence != nil {
		confidence = *engineResult.Confidence
	}

	language := engineResult.Language
	if language == "" {
		language = extract.DetectScript(engineResult.Text)
	}

	return &document.OCRResult{
		Text:             engineResult.Text,
		Fields:           fields,
		Confidence:       confidence,
		ValidationStatus: extract.ValidationStatus(fields),
		Language:         language,
		Engine:           engineName,
	}, nil
}

// processPDF completes PDFs without text recognition. Scanned PDFs
// need page rasterization, which the engines do not do; the document
// still lands in the review queue so an officer can key it manually.
func (o *Orchestrator) processPDF(documentID string, data []byte) (*document.OCRResult, error) {
	pages, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return nil, fmt.Errorf("reading pdf structure: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"document_id": documentID,
		"pages":       pages,
	}).Info("pdf accepted without text recognition")

	return &document.OCRResult{
		Text:             fmt.Sprintf("[PDF document, %d page(s). Automatic text recognition is not available for PDFs; upload a scanned image of each page for automatic data capture.]", pages),
		Fields:           extract.FieldMap{},
		Confidence:       0,
		ValidationStatus: extract.ValidationFailed,
		Language:         "",
		Engine:           document.EngineNone,
	}, nil
}

// recognize tries the cloud engine first and falls back to the local
// engine on any cloud error. Both failing is terminal for the attempt.
func (o *Orchestrator) recognize(ctx context.Context, req Request) (*Result, string, error) {
	var cloudErr error
	if o.cloud != nil {
		res, err := o.cloud.Recognize(ctx, req)
		if err == nil {
			return res, o.cloud.Name(), nil
		}
		cloudErr = err
		logger.Log.WithError(err).Warn("cloud engine failed, falling back to local engine")
	}

	if o.local != nil {
		res, err := o.local.Recognize(ctx, req)
		if err == nil {
			return res, o.local.Name(), nil
		}
		if cloudErr != nil {
			return nil, "", fmt.Errorf("%w: cloud: %v; local: %v", ErrEngineUnavailable, cloudErr, err)
		}
		return nil, "", fmt.Errorf("%w: local: %v", ErrEngineUnavailable, err)
	}

	if cloudErr != nil {
		return nil, "", fmt.Errorf("%w: cloud: %v", ErrEngineUnavailable, cloudErr)
	}
	return nil, "", ErrEngineUnavailable
}

func (o *Orchestrator) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if err := o.publisher.Publish(ctx, eventType, data); err != nil {
		logger.Log.WithError(err).WithField("event_type", eventType).Warn("failed to publish event")
	}
}

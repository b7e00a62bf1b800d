package document

import (
	"context"
	"fmt"

	"github.com/fra-atlas/platform/pkg/audit"
	"github.com/fra-atlas/platform/pkg/blobstore"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/fra-atlas/platform/pkg/common/models"
	"github.com/fra-atlas/platform/pkg/extract"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Scheduler hands a document to the extraction dispatcher. Upload
// returns as soon as the document row is durable; extraction happens
// on the dispatcher's workers.
type Scheduler interface {
	Enqueue(ctx context.Context, documentID string) error
}

// Store is the slice of the repository the service drives. Repository
// satisfies it; the state-machine guards (conflict on a forward-only
// transition) live behind these methods.
type Store interface {
	Create(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context) ([]Document, error)
	ReviewQueue(ctx context.Context) ([]Document, error)
	Requeue(ctx context.Context, id string) error
	FailOCR(ctx context.Context, id, reason string) error
	ApplyReview(ctx context.Context, id, ocrText string, fields datatypes.JSONMap, validationStatus, reviewStatus, reviewedBy string) error
}

type Service struct {
	repo      Store
	blobs     blobstore.Store
	validator *Validator
	scheduler Scheduler
	auditor   *audit.Recorder
}

func NewService(repo Store, blobs blobstore.Store, validator *Validator, scheduler Scheduler, auditor *audit.Recorder) *Service {
	return &Service{
		repo:      repo,
		blobs:     blobs,
		validator: validator,
		scheduler: scheduler,
		auditor:   auditor,
	}
}

type UploadRequest struct {
	Filename  string
	MediaType string
	Content   []byte
	ClaimID   string
}

// Upload validates the payload, persists the blob, creates the
// document in pending state and schedules extraction exactly once.
// The call returns without waiting for extraction.
func (s *Service) Upload(ctx context.Context, actor models.Identity, req UploadRequest) (*Document, error) {
	if err := s.validator.Validate(req.MediaType, int64(len(req.Content))); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	if err := s.blobs.Put(ctx, id, req.MediaType, req.Content); err != nil {
		return nil, fmt.Errorf("persisting upload blob: %w", err)
	}

	doc := &Document{
		ID:               id,
		ClaimID:          req.ClaimID,
		Filename:         id + "_" + sanitizeFilename(req.Filename),
		OriginalFilename: req.Filename,
		FileType:         req.MediaType,
		FileSize:         int64(len(req.Content)),
		OCRStatus:        OCRStatusPending,
		ReviewStatus:     ReviewStatusPending,
		UploadedBy:       actor.UserID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persisting document record: %w", err)
	}

	s.auditor.Record(ctx, actor.UserID, "upload", "document", id, map[string]interface{}{
		"filename":  req.Filename,
		"file_type": req.MediaType,
		"file_size": len(req.Content),
	})

	if err := s.scheduler.Enqueue(ctx, id); err != nil {
		// The upload itself succeeded; surface the scheduling failure
		// on the document so the operator can reprocess it.
		logger.Log.WithError(err).WithField("document_id", id).Warn("failed to schedule extraction")
		if failErr := s.repo.FailOCR(ctx, id, "extraction could not be scheduled: "+err.Error()); failErr != nil {
			logger.Log.WithError(failErr).WithField("document_id", id).Error("failed to record scheduling failure")
		}
		doc.OCRStatus = OCRStatusFailed
	}

	return doc, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Document, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.List(ctx)
}

func (s *Service) ReviewQueue(ctx context.Context) ([]Document, error) {
	return s.repo.ReviewQueue(ctx)
}

type CorrectionRequest struct {
	OCRText         string            `json:"ocrText"`
	ExtractedFields map[string]string `json:"extractedFields"`
	ReviewStatus    string            `json:"reviewStatus"`
}

// Correct persists an officer's replacement text and fields verbatim
// and moves the review status to approved or rejected. Officer edits
// always win over machine output; validation status is recomputed from
// the corrected fields for downstream display.
func (s *Service) Correct(ctx context.Context, actor models.Identity, id string, req CorrectionRequest) (*Document, error) {
	if req.ReviewStatus != ReviewStatusApproved && req.ReviewStatus != ReviewStatusRejected {
		return nil, ValidationError{reason: fmt.Errorf("review status must be %q or %q", ReviewStatusApproved, ReviewStatusRejected)}
	}

	fields := extract.FieldMap(req.ExtractedFields)
	validationStatus := extract.ValidationStatus(fields)

	if err := s.repo.ApplyReview(ctx, id, req.OCRText, FieldsToJSON(fields), validationStatus, req.ReviewStatus, actor.UserID); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, actor.UserID, "correct_ocr", "document", id, map[string]interface{}{
		"review_status": req.ReviewStatus,
	})

	return s.repo.Get(ctx, id)
}

// Reprocess re-arms a failed (or completed-but-unreviewed) document
// and schedules a fresh extraction attempt. The attempt overwrites any
// prior text, fields and confidence.
func (s *Service) Reprocess(ctx context.Context, actor models.Identity, id string) error {
	if err := s.repo.Requeue(ctx, id); err != nil {
		return err
	}
	if err := s.scheduler.Enqueue(ctx, id); err != nil {
		logger.Log.WithError(err).WithField("document_id", id).Warn("failed to schedule reprocessing")
		if failErr := s.repo.FailOCR(ctx, id, "extraction could not be scheduled: "+err.Error()); failErr != nil {
			logger.Log.WithError(failErr).WithField("document_id", id).Error("failed to record scheduling failure")
		}
		return fmt.Errorf("scheduling reprocess: %w", err)
	}

	s.auditor.Record(ctx, actor.UserID, "reprocess", "document", id, nil)
	return nil
}

// AuditTrail returns the recorded actions for a document, newest
// first.
func (s *Service) AuditTrail(ctx context.Context, id string) ([]audit.Entry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.auditor.List(ctx, "document", id)
}

// Download returns the raw uploaded bytes together with their media
// type and original filename.
func (s *Service) Download(ctx context.Context, id string) ([]byte, string, string, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	data, err := s.blobs.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	return data, doc.FileType, doc.OriginalFilename, nil
}

func sanitizeFilename(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "upload"
	}
	return string(out)
}

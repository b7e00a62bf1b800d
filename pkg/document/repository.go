package document

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when a state-machine guard rejects a
	// transition, e.g. scheduling a document that is already processing
	// or reviewing one that has moved past pending.
	ErrConflict = errors.New("document state conflict")
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&Document{})
}

func (r *Repository) Create(ctx context.Context, doc *Document) error {
	doc.CreatedAt = time.Now().UTC()
	doc.UpdatedAt = doc.CreatedAt
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	result := r.db.WithContext(ctx).First(&doc, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &doc, result.Error
}

func (r *Repository) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

// ReviewQueue returns documents whose extraction finished but whose
// human review has not started.
func (r *Repository) ReviewQueue(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := r.db.WithContext(ctx).
		Where("ocr_status = ? AND review_status = ?", OCRStatusCompleted, ReviewStatusPending).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

// BeginProcessing flips a pending document to processing. The
// conditional update is the single-writer guard: a document already
// processing (or in any other state) is left untouched and ErrConflict
// is returned, so no second extraction attempt can start.
func (r *Repository) BeginProcessing(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ? AND ocr_status = ?", id, OCRStatusPending).
		Updates(map[string]interface{}{
			"ocr_status": OCRStatusProcessing,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// Requeue re-arms a document for extraction. Permitted from failed, or
// from completed while review is still pending (re-extraction of an
// already reviewed document would discard officer work).
func (r *Repository) Requeue(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ? AND (ocr_status = ? OR (ocr_status = ? AND review_status = ?))",
			id, OCRStatusFailed, OCRStatusCompleted, ReviewStatusPending).
		Updates(map[string]interface{}{
			"ocr_status": OCRStatusPending,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// CompleteOCR persists a successful extraction outcome and clears any
// previous failure reason. Reprocessing overwrites prior results.
func (r *Repository) CompleteOCR(ctx context.Context, id string, res OCRResult) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ocr_status":        OCRStatusCompleted,
			"ocr_text":          res.Text,
			"ocr_error":         "",
			"extracted_fields":  FieldsToJSON(res.Fields),
			"confidence":        res.Confidence,
			"validation_status": res.ValidationStatus,
			"detected_language": res.Language,
			"engine":            res.Engine,
			"processed_at":      now,
			"updated_at":        now,
		}).Error
}

// FailOCR records a terminal extraction failure. The reason stays on
// the row for operator diagnostics; fields and confidence are cleared
// per the failed-state invariant.
func (r *Repository) FailOCR(ctx context.Context, id, reason string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"ocr_status":        OCRStatusFailed,
			"ocr_error":         reason,
			"extracted_fields":  datatypes.JSONMap{},
			"confidence":        nil,
			"validation_status": "",
			"processed_at":      now,
			"updated_at":        now,
		}).Error
}

// ApplyReview stores an officer correction verbatim and moves the
// review status forward. Only completed documents still pending review
// qualify; everything else is a conflict, which keeps the review axis
// monotonic.
func (r *Repository) ApplyReview(ctx context.Context, id, ocrText string, fields datatypes.JSONMap, validationStatus, reviewStatus, reviewedBy string) error {
	result := r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ? AND ocr_status = ? AND review_status = ?", id, OCRStatusCompleted, ReviewStatusPending).
		Updates(map[string]interface{}{
			"ocr_text":          ocrText,
			"extracted_fields":  fields,
			"validation_status": validationStatus,
			"review_status":     reviewStatus,
			"reviewed_by":       reviewedBy,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// LinkClaim records a successful materialization. Guarded on approved
// so the promotion is one-way; callers treat a conflict on an
// already-materialized document as benign.
func (r *Repository) LinkClaim(ctx context.Context, id, claimID string) error {
	result := r.db.WithContext(ctx).Model(&Document{}).
		Where("id = ? AND review_status = ?", id, ReviewStatusApproved).
		Updates(map[string]interface{}{
			"review_status":   ReviewStatusClaimCreated,
			"linked_claim_id": claimID,
			"updated_at":      time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

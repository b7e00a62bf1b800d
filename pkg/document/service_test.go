package document

import (
	"context"
	"errors"
	"testing"

	"github.com/fra-atlas/platform/pkg/blobstore"
	"github.com/fra-atlas/platform/pkg/common/models"
	"github.com/fra-atlas/platform/pkg/extract"
	"gorm.io/datatypes"
)

type fakeStore struct {
	docs        map[string]*Document
	reviews     int
	failReasons map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*Document), failReasons: make(map[string]string)}
}

func (s *fakeStore) Create(ctx context.Context, doc *Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*Document, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *fakeStore) List(ctx context.Context) ([]Document, error) {
	var out []Document
	for _, d := range s.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (s *fakeStore) ReviewQueue(ctx context.Context) ([]Document, error) {
	var out []Document
	for _, d := range s.docs {
		if d.OCRStatus == OCRStatusCompleted && d.ReviewStatus == ReviewStatusPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) Requeue(ctx context.Context, id string) error {
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	if doc.OCRStatus != OCRStatusFailed && !(doc.OCRStatus == OCRStatusCompleted && doc.ReviewStatus == ReviewStatusPending) {
		return ErrConflict
	}
	doc.OCRStatus = OCRStatusPending
	return nil
}

func (s *fakeStore) FailOCR(ctx context.Context, id, reason string) error {
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.OCRStatus = OCRStatusFailed
	s.failReasons[id] = reason
	return nil
}

func (s *fakeStore) ApplyReview(ctx context.Context, id, ocrText string, fields datatypes.JSONMap, validationStatus, reviewStatus, reviewedBy string) error {
	doc, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	// Same guard as the repository's conditional update: review moves
	// forward from pending only.
	if doc.OCRStatus != OCRStatusCompleted || doc.ReviewStatus != ReviewStatusPending {
		return ErrConflict
	}
	doc.OCRText = ocrText
	doc.ExtractedFields = fields
	doc.ValidationStatus = validationStatus
	doc.ReviewStatus = reviewStatus
	doc.ReviewedBy = reviewedBy
	s.reviews++
	return nil
}

type memBlobs struct {
	data map[string][]byte
}

func (b *memBlobs) Put(ctx context.Context, id, contentType string, data []byte) error {
	b.data[id] = data
	return nil
}

func (b *memBlobs) Get(ctx context.Context, id string) ([]byte, error) {
	data, ok := b.data[id]
	if !ok {
		return nil, blobstore.ErrNotFound
	}
	return data, nil
}

func (b *memBlobs) Delete(ctx context.Context, id string) error {
	delete(b.data, id)
	return nil
}

type fakeScheduler struct {
	enqueued []string
	err      error
}

func (s *fakeScheduler) Enqueue(ctx context.Context, documentID string) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, documentID)
	return nil
}

var reviewer = models.Identity{UserID: "officer-1", Role: "district"}

func newTestService(store *fakeStore, scheduler *fakeScheduler) *Service {
	return NewService(store, &memBlobs{data: make(map[string][]byte)}, NewValidator(1<<20), scheduler, nil)
}

func seedCompleted(store *fakeStore, id string) {
	store.docs[id] = &Document{
		ID:           id,
		OCRStatus:    OCRStatusCompleted,
		ReviewStatus: ReviewStatusPending,
	}
}

func TestUploadSchedulesExtractionOnce(t *testing.T) {
	store := newFakeStore()
	scheduler := &fakeScheduler{}
	svc := newTestService(store, scheduler)

	doc, err := svc.Upload(context.Background(), reviewer, UploadRequest{
		Filename:  "claim.png",
		MediaType: "image/png",
		Content:   []byte("png bytes"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.OCRStatus != OCRStatusPending || doc.ReviewStatus != ReviewStatusPending {
		t.Fatalf("fresh upload must be pending/pending, got %s/%s", doc.OCRStatus, doc.ReviewStatus)
	}
	if len(scheduler.enqueued) != 1 || scheduler.enqueued[0] != doc.ID {
		t.Fatalf("expected exactly one scheduled job for %s, got %v", doc.ID, scheduler.enqueued)
	}
}

func TestUploadSchedulingFailureMarksDocumentFailed(t *testing.T) {
	store := newFakeStore()
	scheduler := &fakeScheduler{err: errors.New("queue full")}
	svc := newTestService(store, scheduler)

	doc, err := svc.Upload(context.Background(), reviewer, UploadRequest{
		Filename:  "claim.png",
		MediaType: "image/png",
		Content:   []byte("png bytes"),
	})
	if err != nil {
		t.Fatalf("the upload itself must still succeed, got %v", err)
	}

	if doc.OCRStatus != OCRStatusFailed {
		t.Fatalf("expected failed status after scheduling failure, got %q", doc.OCRStatus)
	}
	if reason := store.failReasons[doc.ID]; reason == "" {
		t.Fatal("expected an operator-facing scheduling failure reason")
	}
}

func TestCorrectRejectsInvalidTargetStatus(t *testing.T) {
	store := newFakeStore()
	seedCompleted(store, "doc-1")
	svc := newTestService(store, &fakeScheduler{})

	for _, target := range []string{ReviewStatusPending, ReviewStatusClaimCreated, "bogus"} {
		_, err := svc.Correct(context.Background(), reviewer, "doc-1", CorrectionRequest{
			ReviewStatus: target,
		})
		if err == nil || !IsValidationError(err) {
			t.Fatalf("target %q: expected a validation error, got %v", target, err)
		}
	}
	if store.reviews != 0 {
		t.Fatalf("no review may be applied for an invalid target, applied %d", store.reviews)
	}
}

func TestCorrectAppliesOfficerEditsVerbatim(t *testing.T) {
	store := newFakeStore()
	seedCompleted(store, "doc-1")
	svc := newTestService(store, &fakeScheduler{})

	fields := map[string]string{
		extract.FieldClaimNumber:  "FRA-2024-0153",
		extract.FieldClaimantName: "Ram Singh",
		extract.FieldVillage:      "Jamgaon",
		extract.FieldDistrict:     "Mandla",
		extract.FieldState:        "Madhya Pradesh",
		extract.FieldArea:         "3.75",
		extract.FieldLandType:     extract.LandTypeIndividual,
	}
	doc, err := svc.Correct(context.Background(), reviewer, "doc-1", CorrectionRequest{
		OCRText:         "corrected text",
		ExtractedFields: fields,
		ReviewStatus:    ReviewStatusApproved,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ReviewStatus != ReviewStatusApproved {
		t.Fatalf("expected approved, got %q", doc.ReviewStatus)
	}
	if doc.ReviewedBy != reviewer.UserID {
		t.Fatalf("expected reviewer recorded, got %q", doc.ReviewedBy)
	}
	if got := doc.Fields()[extract.FieldArea]; got != "3.75" {
		t.Fatalf("officer edits must persist verbatim, got area %q", got)
	}
	if doc.ValidationStatus != extract.ValidationValidated {
		t.Fatalf("expected validation recomputed from corrected fields, got %q", doc.ValidationStatus)
	}
}

func TestCorrectIsForwardOnly(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeScheduler{})

	for _, settled := range []string{ReviewStatusApproved, ReviewStatusRejected} {
		seedCompleted(store, "doc-1")
		if _, err := svc.Correct(context.Background(), reviewer, "doc-1", CorrectionRequest{ReviewStatus: settled}); err != nil {
			t.Fatalf("first review to %s failed: %v", settled, err)
		}

		_, err := svc.Correct(context.Background(), reviewer, "doc-1", CorrectionRequest{ReviewStatus: ReviewStatusApproved})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("re-reviewing a %s document must conflict, got %v", settled, err)
		}
		if store.docs["doc-1"].ReviewStatus != settled {
			t.Fatalf("review status moved backward from %s to %s", settled, store.docs["doc-1"].ReviewStatus)
		}
	}
}

func TestReprocessReschedulesFailedDocument(t *testing.T) {
	store := newFakeStore()
	store.docs["doc-1"] = &Document{ID: "doc-1", OCRStatus: OCRStatusFailed, ReviewStatus: ReviewStatusPending}
	scheduler := &fakeScheduler{}
	svc := newTestService(store, scheduler)

	if err := svc.Reprocess(context.Background(), reviewer, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.docs["doc-1"].OCRStatus != OCRStatusPending {
		t.Fatalf("expected document re-armed to pending, got %q", store.docs["doc-1"].OCRStatus)
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("expected one scheduled job, got %v", scheduler.enqueued)
	}
}

func TestReprocessRefusedWhileProcessing(t *testing.T) {
	store := newFakeStore()
	store.docs["doc-1"] = &Document{ID: "doc-1", OCRStatus: OCRStatusProcessing, ReviewStatus: ReviewStatusPending}
	svc := newTestService(store, &fakeScheduler{})

	if err := svc.Reprocess(context.Background(), reviewer, "doc-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict for an in-flight document, got %v", err)
	}
}

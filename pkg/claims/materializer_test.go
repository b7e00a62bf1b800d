package claims

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/fra-atlas/platform/pkg/common/models"
	"github.com/fra-atlas/platform/pkg/document"
	"github.com/fra-atlas/platform/pkg/extract"
)

type fakeDocs struct {
	docs map[string]*document.Document
}

func (f *fakeDocs) Get(ctx context.Context, id string) (*document.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, document.ErrNotFound
	}
	return doc, nil
}

func (f *fakeDocs) LinkClaim(ctx context.Context, id, claimID string) error {
	doc, ok := f.docs[id]
	if !ok {
		return document.ErrNotFound
	}
	if doc.ReviewStatus != document.ReviewStatusApproved {
		return document.ErrConflict
	}
	doc.ReviewStatus = document.ReviewStatusClaimCreated
	doc.LinkedClaimID = claimID
	return nil
}

type fakeClaims struct {
	claims map[string]*Claim
}

func (f *fakeClaims) Create(ctx context.Context, claim *Claim) error {
	f.claims[claim.ID] = claim
	return nil
}

func (f *fakeClaims) Get(ctx context.Context, id string) (*Claim, error) {
	claim, ok := f.claims[id]
	if !ok {
		return nil, ErrNotFound
	}
	return claim, nil
}

func (f *fakeClaims) Delete(ctx context.Context, id string) error {
	delete(f.claims, id)
	return nil
}

func approvedDocument(id string, fields extract.FieldMap) *document.Document {
	return &document.Document{
		ID:              id,
		OCRStatus:       document.OCRStatusCompleted,
		ReviewStatus:    document.ReviewStatusApproved,
		ExtractedFields: document.FieldsToJSON(fields),
	}
}

var officer = models.Identity{UserID: "officer-1", Role: "district"}

func TestMaterializeCreatesClaimFromApprovedDocument(t *testing.T) {
	docs := &fakeDocs{docs: map[string]*document.Document{
		"doc-1": approvedDocument("doc-1", extract.FieldMap{
			extract.FieldClaimantName:   "Ram Singh",
			extract.FieldVillage:        "Bargaon",
			extract.FieldDistrict:       "Mandla",
			extract.FieldState:          "Madhya Pradesh",
			extract.FieldArea:           "3.75",
			extract.FieldAreaUnit:       "acre",
			extract.FieldLandType:       extract.LandTypeCommunity,
			extract.FieldSubmissionDate: "12/03/2024",
		}),
	}}
	registry := &fakeClaims{claims: make(map[string]*Claim)}

	m := NewMaterializer(registry, docs, nil, nil)
	claim, err := m.Materialize(context.Background(), officer, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok, _ := regexp.MatchString(`^FRA-MP-\d{4}-[0-9A-F]{8}$`, claim.ClaimID); !ok {
		t.Fatalf("unexpected claim id format %q", claim.ClaimID)
	}
	if claim.ClaimantName != "Ram Singh" || claim.Location != "Bargaon" || claim.District != "Mandla" {
		t.Fatalf("claim fields do not match document fields: %+v", claim)
	}
	if claim.Area != 3.75 || claim.AreaUnit != "acre" {
		t.Fatalf("expected corrected area 3.75 acre, got %v %s", claim.Area, claim.AreaUnit)
	}
	if claim.LandType != extract.LandTypeCommunity {
		t.Fatalf("expected community land type, got %q", claim.LandType)
	}
	if claim.Status != StatusPending {
		t.Fatalf("materialized claims must start pending, got %q", claim.Status)
	}
	if claim.SourceDocumentID != "doc-1" {
		t.Fatalf("expected source document link, got %q", claim.SourceDocumentID)
	}

	doc := docs.docs["doc-1"]
	if doc.ReviewStatus != document.ReviewStatusClaimCreated {
		t.Fatalf("expected claim-created review status, got %q", doc.ReviewStatus)
	}
	if doc.LinkedClaimID != claim.ID {
		t.Fatalf("expected document linked to claim %s, got %s", claim.ID, doc.LinkedClaimID)
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	docs := &fakeDocs{docs: map[string]*document.Document{
		"doc-1": approvedDocument("doc-1", extract.FieldMap{
			extract.FieldClaimantName: "Ram Singh",
			extract.FieldState:        "Odisha",
		}),
	}}
	registry := &fakeClaims{claims: make(map[string]*Claim)}

	m := NewMaterializer(registry, docs, nil, nil)
	first, err := m.Materialize(context.Background(), officer, "doc-1")
	if err != nil {
		t.Fatalf("first promotion failed: %v", err)
	}
	second, err := m.Materialize(context.Background(), officer, "doc-1")
	if err != nil {
		t.Fatalf("repeat promotion must succeed, got %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("repeat promotion returned a different claim: %s vs %s", first.ID, second.ID)
	}
	if len(registry.claims) != 1 {
		t.Fatalf("expected exactly one claim, got %d", len(registry.claims))
	}
}

// racingDocs simulates another promotion winning the link guard between
// this call's claim creation and its LinkClaim attempt.
type racingDocs struct {
	fakeDocs
	winnerID string
}

func (f *racingDocs) LinkClaim(ctx context.Context, id, claimID string) error {
	doc, ok := f.docs[id]
	if !ok {
		return document.ErrNotFound
	}
	doc.ReviewStatus = document.ReviewStatusClaimCreated
	doc.LinkedClaimID = f.winnerID
	return document.ErrConflict
}

func TestMaterializeConcurrentPromotionLeavesNoOrphan(t *testing.T) {
	winner := &Claim{ID: "claim-winner", ClaimID: "FRA-MP-2024-AAAAAAAA", Status: StatusPending}
	registry := &fakeClaims{claims: map[string]*Claim{winner.ID: winner}}
	docs := &racingDocs{
		fakeDocs: fakeDocs{docs: map[string]*document.Document{
			"doc-1": approvedDocument("doc-1", extract.FieldMap{
				extract.FieldClaimantName: "Ram Singh",
				extract.FieldState:        "Madhya Pradesh",
			}),
		}},
		winnerID: winner.ID,
	}

	m := NewMaterializer(registry, docs, nil, nil)
	claim, err := m.Materialize(context.Background(), officer, "doc-1")
	if err != nil {
		t.Fatalf("losing promotion must still resolve, got %v", err)
	}
	if claim.ID != winner.ID {
		t.Fatalf("expected the winning claim %s, got %s", winner.ID, claim.ID)
	}
	if len(registry.claims) != 1 {
		t.Fatalf("superseded claim must be removed, registry holds %d claims", len(registry.claims))
	}
	if _, ok := registry.claims[winner.ID]; !ok {
		t.Fatalf("winning claim must remain in the registry")
	}
}

func TestMaterializeRefusesUnapprovedDocuments(t *testing.T) {
	for _, status := range []string{document.ReviewStatusPending, document.ReviewStatusRejected} {
		doc := approvedDocument("doc-1", extract.FieldMap{})
		doc.ReviewStatus = status
		docs := &fakeDocs{docs: map[string]*document.Document{"doc-1": doc}}
		registry := &fakeClaims{claims: make(map[string]*Claim)}

		m := NewMaterializer(registry, docs, nil, nil)
		if _, err := m.Materialize(context.Background(), officer, "doc-1"); !errors.Is(err, ErrNotApproved) {
			t.Fatalf("status %q: expected ErrNotApproved, got %v", status, err)
		}
		if len(registry.claims) != 0 {
			t.Fatalf("status %q: no claim may be created", status)
		}
	}
}

func TestMaterializeFillsPlaceholders(t *testing.T) {
	docs := &fakeDocs{docs: map[string]*document.Document{
		"doc-1": approvedDocument("doc-1", extract.FieldMap{
			extract.FieldVillage: "Bargaon",
		}),
	}}
	registry := &fakeClaims{claims: make(map[string]*Claim)}

	m := NewMaterializer(registry, docs, nil, nil)
	claim, err := m.Materialize(context.Background(), officer, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if claim.ClaimantName != "Unknown Claimant" {
		t.Fatalf("expected claimant placeholder, got %q", claim.ClaimantName)
	}
	if claim.State != "Unknown State" {
		t.Fatalf("expected state placeholder, got %q", claim.State)
	}
	if claim.Location != "Bargaon" {
		t.Fatalf("readable fields must pass through, got %q", claim.Location)
	}
	if claim.Area != 0 {
		t.Fatalf("unreadable area must be zero, got %v", claim.Area)
	}
	if ok, _ := regexp.MatchString(`^FRA-XX-\d{4}-[0-9A-F]{8}$`, claim.ClaimID); !ok {
		t.Fatalf("unknown state must use the XX code, got %q", claim.ClaimID)
	}
}

func TestCodeForState(t *testing.T) {
	cases := map[string]string{
		"Madhya Pradesh": "MP",
		"odisha":         "OR",
		"TG":             "TG",
		"Karnataka":      "XX",
		"":               "XX",
	}
	for name, want := range cases {
		if got := CodeForState(name); got != want {
			t.Fatalf("CodeForState(%q) = %q, want %q", name, got, want)
		}
	}
}

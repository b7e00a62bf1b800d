package claims

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fra-atlas/platform/pkg/audit"
	"github.com/fra-atlas/platform/pkg/common/logger"
	"github.com/fra-atlas/platform/pkg/common/models"
	"github.com/fra-atlas/platform/pkg/document"
	"github.com/fra-atlas/platform/pkg/extract"
	"github.com/fra-atlas/platform/pkg/notify"
	"github.com/google/uuid"
)

// ErrNotApproved is returned when promotion is requested for a
// document whose review status does not allow it.
var ErrNotApproved = errors.New("document is not approved for claim creation")

// DocumentStore is the slice of the document repository that
// materialization drives.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	LinkClaim(ctx context.Context, id, claimID string) error
}

// ClaimStore is the registry side of materialization. Satisfied by
// Repository.
type ClaimStore interface {
	Create(ctx context.Context, claim *Claim) error
	Get(ctx context.Context, id string) (*Claim, error)
	Delete(ctx context.Context, id string) error
}

// Materializer turns an approved digitized document into a claim in
// the registry, exactly once per document.
type Materializer struct {
	claims    ClaimStore
	documents DocumentStore
	auditor   *audit.Recorder
	publisher notify.Publisher
}

func NewMaterializer(claims ClaimStore, documents DocumentStore, auditor *audit.Recorder, publisher notify.Publisher) *Materializer {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &Materializer{claims: claims, documents: documents, auditor: auditor, publisher: publisher}
}

// Materialize promotes an approved document into a claim. Repeat calls
// for an already promoted document return the existing claim instead
// of creating a duplicate. The document's extracted fields, including
// any officer corrections, are the single source of the claim values;
// unreadable fields get explicit placeholders rather than blocking the
// promotion.
func (m *Materializer) Materialize(ctx context.Context, actor models.Identity, documentID string) (*Claim, error) {
	doc, err := m.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	switch doc.ReviewStatus {
	case document.ReviewStatusClaimCreated:
		if doc.LinkedClaimID == "" {
			return nil, fmt.Errorf("document %s is marked claim-created but has no linked claim", documentID)
		}
		return m.claims.Get(ctx, doc.LinkedClaimID)
	case document.ReviewStatusApproved:
		// proceed
	default:
		return nil, fmt.Errorf("%w: review status is %q", ErrNotApproved, doc.ReviewStatus)
	}

	claim := claimFromFields(doc)
	if err := m.claims.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("creating claim: %w", err)
	}

	if err := m.documents.LinkClaim(ctx, documentID, claim.ID); err != nil {
		if errors.Is(err, document.ErrConflict) {
			// A concurrent promotion won the guard. Drop the claim we
			// just created so no orphan row lingers, then return the
			// winner instead of failing the caller.
			if delErr := m.claims.Delete(ctx, claim.ID); delErr != nil {
				logger.Log.WithError(delErr).WithField("claim_id", claim.ID).Warn("failed to remove superseded claim")
			}
			fresh, getErr := m.documents.Get(ctx, documentID)
			if getErr == nil && fresh.LinkedClaimID != "" {
				logger.WithField("document_id", documentID).Warn("concurrent promotion detected, returning winning claim")
				return m.claims.Get(ctx, fresh.LinkedClaimID)
			}
		}
		return nil, fmt.Errorf("linking claim to document: %w", err)
	}

	m.auditor.Record(ctx, actor.UserID, "promote", "document", documentID, map[string]interface{}{
		"claim_id": claim.ClaimID,
	})

	if err := m.publisher.Publish(ctx, notify.EventClaimCreated, map[string]interface{}{
		"document_id": documentID,
		"claim_id":    claim.ClaimID,
		"state":       claim.State,
	}); err != nil {
		logger.Log.WithError(err).Warn("failed to publish claim creation event")
	}

	return claim, nil
}

func claimFromFields(doc *document.Document) *Claim {
	fields := doc.Fields()

	area := 0.0
	if v, err := strconv.ParseFloat(strings.TrimSpace(fields[extract.FieldArea]), 64); err == nil && v > 0 {
		area = v
	}

	areaUnit := fields[extract.FieldAreaUnit]
	if areaUnit == "" {
		areaUnit = "hectare"
	}
	landType := fields[extract.FieldLandType]
	if landType == "" {
		landType = extract.LandTypeIndividual
	}

	state := fieldOrPlaceholder(fields, extract.FieldState, "State")

	return &Claim{
		ID:               uuid.New().String(),
		ClaimID:          newClaimID(state),
		ClaimantName:     fieldOrPlaceholder(fields, extract.FieldClaimantName, "Claimant"),
		Location:         fieldOrPlaceholder(fields, extract.FieldVillage, "Village"),
		District:         fieldOrPlaceholder(fields, extract.FieldDistrict, "District"),
		State:            state,
		Area:             area,
		AreaUnit:         areaUnit,
		LandType:         landType,
		Status:           StatusPending,
		DateSubmitted:    fields[extract.FieldSubmissionDate],
		SourceDocumentID: doc.ID,
	}
}

func fieldOrPlaceholder(fields extract.FieldMap, field, label string) string {
	if v := strings.TrimSpace(fields[field]); v != "" {
		return v
	}
	return "Unknown " + label
}

// newClaimID builds the public identifier, e.g. FRA-MP-2026-3F2A9C01.
func newClaimID(state string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
	return fmt.Sprintf("FRA-%s-%d-%s", CodeForState(state), time.Now().UTC().Year(), suffix)
}

package claims

import (
	"time"
)

// Claim statuses follow the review workflow of the claims registry.
// Materialized claims always start pending.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Claim is one forest-rights land claim in the registry. Claims come
// from two places: direct entry and materialization of an approved
// digitized document. SourceDocumentID is set only for the latter.
type Claim struct {
	ID               string     `json:"id" gorm:"primaryKey;column:id"`
	ClaimID          string     `json:"claimId" gorm:"column:claim_id;uniqueIndex"`
	ClaimantName     string     `json:"claimantName" gorm:"column:claimant_name"`
	Location         string     `json:"location" gorm:"column:location"`
	District         string     `json:"district" gorm:"column:district"`
	State            string     `json:"state" gorm:"column:state"`
	Area             float64    `json:"area" gorm:"column:area"`
	AreaUnit         string     `json:"areaUnit" gorm:"column:area_unit"`
	LandType         string     `json:"landType" gorm:"column:land_type"`
	Status           string     `json:"status" gorm:"column:status"`
	DateSubmitted    string     `json:"dateSubmitted,omitempty" gorm:"column:date_submitted"`
	AssignedOfficer  string     `json:"assignedOfficer,omitempty" gorm:"column:assigned_officer"`
	Notes            string     `json:"notes,omitempty" gorm:"column:notes"`
	SourceDocumentID string     `json:"sourceDocumentId,omitempty" gorm:"column:source_document_id"`
	CreatedAt        time.Time  `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" gorm:"column:updated_at"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty" gorm:"column:reviewed_at"`
}

func (Claim) TableName() string {
	return "claims"
}

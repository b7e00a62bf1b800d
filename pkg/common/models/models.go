package models

import (
	"time"
)

// Event is the envelope published to the event bus on pipeline stage
// transitions. Consumers subscribe per Type; this service only ever
// publishes.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // extraction_started, extraction_completed, extraction_failed, claim_created
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Identity is the acting user as resolved by the authorization layer.
// This service only consumes identity; it never issues credentials.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"` // ministry, state, district, village
	Email  string `json:"email,omitempty"`
}

// Roles with claim-editing privilege may correct OCR output and
// promote approved documents into claims.
func (i Identity) CanEditClaims() bool {
	switch i.Role {
	case "ministry", "state", "district":
		return true
	}
	return false
}

package notify

import (
	"context"
)

// Event types published on pipeline stage transitions.
const (
	EventExtractionStarted   = "extraction_started"
	EventExtractionCompleted = "extraction_completed"
	EventExtractionFailed    = "extraction_failed"
	EventClaimCreated        = "claim_created"
)

// Publisher is the message-passing boundary to the event notifier.
// The core only ever publishes; delivery and fan-out are the
// notifier's concern, and it never enumerates subscribers.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{}) error
}

// Nop discards everything. Used when no broker is configured and in
// tests.
type Nop struct{}

func (Nop) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	return nil
}

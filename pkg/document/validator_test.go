package document

import (
	"errors"
	"testing"
)

func TestValidatorAcceptsAllowedTypes(t *testing.T) {
	v := NewValidator(1 << 20)
	for _, mediaType := range AllowedMediaTypes {
		if err := v.Validate(mediaType, 512); err != nil {
			t.Fatalf("expected %s to be accepted, got %v", mediaType, err)
		}
	}
}

func TestValidatorRejectsUnsupportedType(t *testing.T) {
	v := NewValidator(1 << 20)
	err := v.Validate("text/plain", 512)
	if err == nil {
		t.Fatal("expected rejection for text/plain")
	}
	if !IsValidationError(err) {
		t.Fatalf("expected a validation error, got %v", err)
	}
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestValidatorRejectsOversizedPayload(t *testing.T) {
	v := NewValidator(100)
	err := v.Validate("image/png", 101)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if err := v.Validate("image/png", 100); err != nil {
		t.Fatalf("expected payload at the limit to pass, got %v", err)
	}
}

func TestValidatorRejectsEmptyPayload(t *testing.T) {
	v := NewValidator(100)
	err := v.Validate("image/jpeg", 0)
	if err == nil || !IsValidationError(err) {
		t.Fatalf("expected a validation error for empty payload, got %v", err)
	}
}

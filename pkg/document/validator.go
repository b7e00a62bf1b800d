package document

import (
	"errors"
	"fmt"
)

// MediaTypePDF is the single supported non-image document type. It is
// accepted at upload but skipped by automatic text recognition.
const MediaTypePDF = "application/pdf"

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	errEmptyPayload         = errors.New("empty payload")
)

// ValidationError marks upload rejections that are the caller's fault
// and must be surfaced synchronously before any storage write.
type ValidationError struct {
	reason error
}

func (e ValidationError) Error() string {
	return e.reason.Error()
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Validator holds the upload allow-list and size ceiling.
type Validator struct {
	allowedTypes map[string]struct{}
	maxBytes     int64
}

// AllowedMediaTypes is the upload allow-list: the scanned-image types
// the OCR engines understand, plus PDF.
var AllowedMediaTypes = []string{
	"image/jpeg",
	"image/png",
	"image/tiff",
	MediaTypePDF,
}

func NewValidator(maxBytes int64) *Validator {
	allowed := make(map[string]struct{}, len(AllowedMediaTypes))
	for _, t := range AllowedMediaTypes {
		allowed[t] = struct{}{}
	}
	return &Validator{allowedTypes: allowed, maxBytes: maxBytes}
}

func (v *Validator) Validate(mediaType string, size int64) error {
	if _, ok := v.allowedTypes[mediaType]; !ok {
		return ValidationError{reason: fmt.Errorf("media type %q: %w", mediaType, ErrUnsupportedMediaType)}
	}
	if size <= 0 {
		return ValidationError{reason: errEmptyPayload}
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		return ValidationError{reason: fmt.Errorf("%d bytes exceeds limit of %d: %w", size, v.maxBytes, ErrPayloadTooLarge)}
	}
	return nil
}

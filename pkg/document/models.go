package document

import (
	"time"

	"github.com/fra-atlas/platform/pkg/extract"
	"gorm.io/datatypes"
)

// Automatic extraction lifecycle.
const (
	OCRStatusPending    = "pending"
	OCRStatusProcessing = "processing"
	OCRStatusCompleted  = "completed"
	OCRStatusFailed     = "failed"
)

// Human review lifecycle, independent of the OCR axis. Transitions are
// forward-only: pending -> approved|rejected, approved -> claim-created.
const (
	ReviewStatusPending      = "pending"
	ReviewStatusApproved     = "approved"
	ReviewStatusRejected     = "rejected"
	ReviewStatusClaimCreated = "claim-created"
)

// Extraction engine identifiers recorded on the document.
const (
	EngineCloud = "gemini"
	EngineLocal = "tesseract"
	EngineNone  = "none"
)

// Document is one uploaded artifact moving through the digitization
// pipeline. Raw bytes live in the blob store, never on this row.
type Document struct {
	ID               string            `json:"id" gorm:"primaryKey;column:id"`
	ClaimID          string            `json:"claimId,omitempty" gorm:"column:claim_id"`
	Filename         string            `json:"filename" gorm:"column:filename"`
	OriginalFilename string            `json:"originalFilename" gorm:"column:original_filename"`
	FileType         string            `json:"fileType" gorm:"column:file_type"`
	FileSize         int64             `json:"fileSize" gorm:"column:file_size"`
	OCRStatus        string            `json:"ocrStatus" gorm:"column:ocr_status"`
	OCRText          string            `json:"ocrText,omitempty" gorm:"column:ocr_text"`
	OCRError         string            `json:"ocrError,omitempty" gorm:"column:ocr_error"`
	ExtractedFields  datatypes.JSONMap `json:"extractedFields,omitempty" gorm:"column:extracted_fields"`
	Confidence       *float64          `json:"confidence,omitempty" gorm:"column:confidence"`
	ValidationStatus string            `json:"validationStatus,omitempty" gorm:"column:validation_status"`
	DetectedLanguage string            `json:"detectedLanguage,omitempty" gorm:"column:detected_language"`
	Engine           string            `json:"engine,omitempty" gorm:"column:engine"`
	ReviewStatus     string            `json:"reviewStatus" gorm:"column:review_status"`
	ReviewedBy       string            `json:"reviewedBy,omitempty" gorm:"column:reviewed_by"`
	UploadedBy       string            `json:"uploadedBy,omitempty" gorm:"column:uploaded_by"`
	LinkedClaimID    string            `json:"linkedClaimId,omitempty" gorm:"column:linked_claim_id"`
	ProcessedAt      *time.Time        `json:"processedAt,omitempty" gorm:"column:processed_at"`
	CreatedAt        time.Time         `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt        time.Time         `json:"updatedAt" gorm:"column:updated_at"`
}

func (Document) TableName() string {
	return "documents"
}

// Fields returns the extracted fields as a typed field map.
func (d *Document) Fields() extract.FieldMap {
	return FieldsFromJSON(d.ExtractedFields)
}

// OCRResult is the outcome of one extraction attempt, persisted onto
// the document when the attempt completes.
type OCRResult struct {
	Text             string
	Fields           extract.FieldMap
	Confidence       float64
	ValidationStatus string
	Language         string
	Engine           string
}

// FieldsToJSON converts a field map for storage in the JSON column.
func FieldsToJSON(fields extract.FieldMap) datatypes.JSONMap {
	if fields == nil {
		return datatypes.JSONMap{}
	}
	out := make(datatypes.JSONMap, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// FieldsFromJSON converts a stored JSON column back to a field map.
// Non-string values are ignored; the extractor only ever writes strings.
func FieldsFromJSON(m datatypes.JSONMap) extract.FieldMap {
	out := make(extract.FieldMap, len(m))
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

package extract

import (
	"strconv"
	"strings"
)

// Validation status values. Advisory metadata for the reviewing
// officer; never a gate that blocks review.
const (
	ValidationValidated = "validated"
	ValidationPartial   = "partial_validation"
	ValidationFailed    = "validation_failed"
)

const (
	classifiedBase  = 45.0
	perFieldBonus   = 7.0
	unclassifiedCap = 25.0
)

// Confidence derives a 0-100 reliability estimate for the pattern
// extraction path. Engine-reported confidence, when available, is used
// instead of this heuristic. The exact weights are a placeholder
// policy; what matters is the ordering: a classified document with
// more populated required fields never scores below one with fewer.
func Confidence(docType DocType, fields FieldMap) float64 {
	populated := 0
	for _, field := range RequiredFields {
		if _, ok := fields[field]; ok {
			populated++
		}
	}

	if docType == DocTypeUnknown {
		score := 10.0 + 2.0*float64(populated)
		if score > unclassifiedCap {
			score = unclassifiedCap
		}
		return score
	}

	score := classifiedBase + perFieldBonus*float64(populated)
	if score > 100 {
		score = 100
	}
	return score
}

// MissingRequired reports which of the seven required fields are
// absent or structurally invalid (an area that does not parse to a
// positive number counts as missing).
func MissingRequired(fields FieldMap) []string {
	var missing []string
	for _, field := range RequiredFields {
		value, ok := fields[field]
		if !ok || strings.TrimSpace(value) == "" {
			missing = append(missing, field)
			continue
		}
		if field == FieldArea && !validArea(value) {
			missing = append(missing, field)
		}
	}
	return missing
}

// ValidationStatus grades required-field completeness: zero missing is
// validated, one or two is partial_validation, three or more is
// validation_failed.
func ValidationStatus(fields FieldMap) string {
	switch n := len(MissingRequired(fields)); {
	case n == 0:
		return ValidationValidated
	case n <= 2:
		return ValidationPartial
	default:
		return ValidationFailed
	}
}

func validArea(value string) bool {
	area, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil && area > 0
}

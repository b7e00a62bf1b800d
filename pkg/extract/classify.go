package extract

import "strings"

// DocType is the coarse document classification that decides which
// field-pattern table applies.
type DocType string

const (
	DocTypeClaimForm DocType = "claim_form"
	DocTypeIdentity  DocType = "identity"
	DocTypeSurvey    DocType = "survey"
	DocTypeUnknown   DocType = "unknown"
)

// Classify scans the text for the keyword sets of every supported
// language and picks the document type with the most hits. Ties are
// resolved in favour of claim forms, then identity, then survey.
// Zero hits across all sets yields DocTypeUnknown.
func Classify(text string) DocType {
	lower := strings.ToLower(text)

	var claimHits, identityHits, surveyHits int
	for _, lang := range Languages() {
		claimHits += countHits(lower, lang.ClaimKeywords)
		identityHits += countHits(lower, lang.IdentityKeywords)
		surveyHits += countHits(lower, lang.SurveyKeywords)
	}

	switch {
	case claimHits == 0 && identityHits == 0 && surveyHits == 0:
		return DocTypeUnknown
	case claimHits >= identityHits && claimHits >= surveyHits:
		return DocTypeClaimForm
	case identityHits >= surveyHits:
		return DocTypeIdentity
	default:
		return DocTypeSurvey
	}
}

func countHits(lower string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			hits++
		}
	}
	return hits
}

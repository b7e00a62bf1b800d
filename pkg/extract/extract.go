package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// claimFormFields is the ordered field-pattern table for claim forms.
// Identity and survey documents carry no claim number or area; only
// the person/place fields are attempted for them.
var claimFormFields = []string{
	FieldClaimNumber,
	FieldClaimantName,
	FieldVillage,
	FieldDistrict,
	FieldState,
	FieldArea,
	FieldSubmissionDate,
}

var auxiliaryFields = []string{
	FieldClaimantName,
	FieldVillage,
	FieldDistrict,
	FieldState,
}

var magnitudeRe = regexp.MustCompile(`([0-9]+(?:[.,][0-9]+)?)`)

// Extract locates semantically meaningful substrings inside noisy,
// multi-script OCR output. It classifies the document first, then
// applies the matching label-anchored pattern table line by line. The
// first match for a field wins; later matches are ignored. Malformed
// input never fails; unmatched fields are simply absent.
func Extract(rawText string) FieldMap {
	text := normalizeDigits(rawText)
	docType := Classify(text)

	// Unknown documents still get the claim-form table: the officer may
	// salvage a badly scanned form, and confidence is capped elsewhere.
	claimTable := docType == DocTypeClaimForm || docType == DocTypeUnknown
	fieldOrder := claimFormFields
	if !claimTable {
		fieldOrder = auxiliaryFields
	}

	fields := FieldMap{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		applyBestMatch(fields, fieldOrder, line)
	}

	// Area magnitudes often appear without their label surviving OCR;
	// fall back to the first "<number> <unit>" token pair in the text.
	if _, ok := fields[FieldArea]; !ok && claimTable {
		if magnitude, unit, ok := findAreaToken(text); ok {
			fields[FieldArea] = magnitude
			if unit != "" {
				fields[FieldAreaUnit] = unit
			}
		}
	}

	if landType, ok := inferLandType(text); ok {
		fields[FieldLandType] = landType
	}

	return fields
}

// applyBestMatch tries every (field, language, label) pattern on the
// line and keeps the match with the longest label. Longest wins so a
// generic synonym like "name" cannot swallow a "name of village" line.
func applyBestMatch(fields FieldMap, fieldOrder []string, line string) {
	var bestField, bestValue string
	bestLen := 0

	for _, field := range fieldOrder {
		if _, done := fields[field]; done {
			continue
		}
		for _, lang := range Languages() {
			for _, label := range lang.Labels[field] {
				if len(label) <= bestLen {
					continue
				}
				m := labelPattern(label).FindStringSubmatch(line)
				if m == nil {
					continue
				}
				value := cleanValue(m[1])
				if value == "" {
					continue
				}
				bestField, bestValue, bestLen = field, value, len(label)
			}
		}
	}

	if bestField == "" {
		return
	}
	if bestField == FieldArea {
		magnitude, unit, ok := parseArea(bestValue)
		if !ok {
			return
		}
		fields[FieldArea] = magnitude
		if unit != "" {
			fields[FieldAreaUnit] = unit
		}
		return
	}
	fields[bestField] = bestValue
}

// parseArea splits a captured area value into its decimal magnitude and
// a canonical unit. No conversion between hectares and acres happens;
// the unit is carried alongside the raw magnitude.
func parseArea(value string) (magnitude, unit string, ok bool) {
	loc := magnitudeRe.FindStringSubmatchIndex(value)
	if loc == nil {
		return "", "", false
	}
	magnitude = strings.ReplaceAll(value[loc[2]:loc[3]], ",", ".")
	rest := strings.TrimSpace(value[loc[3]:])
	return magnitude, matchUnit(rest), true
}

func matchUnit(s string) string {
	lower := strings.ToLower(s)
	for _, lang := range Languages() {
		for canonical, spellings := range lang.Units {
			for _, spelling := range spellings {
				if strings.HasPrefix(lower, strings.ToLower(spelling)) {
					return canonical
				}
			}
		}
	}
	return ""
}

func findAreaToken(text string) (magnitude, unit string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		loc := magnitudeRe.FindStringSubmatchIndex(line)
		if loc == nil {
			continue
		}
		rest := strings.TrimSpace(line[loc[3]:])
		if u := matchUnit(rest); u != "" {
			return strings.ReplaceAll(line[loc[2]:loc[3]], ",", "."), u, true
		}
	}
	return "", "", false
}

// inferLandType looks for an individual or community keyword anywhere
// in the document, in any supported language. Absence of both leaves
// the field unset rather than defaulting.
func inferLandType(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, canonical := range []string{LandTypeIndividual, LandTypeCommunity} {
		for _, lang := range Languages() {
			for _, kw := range lang.LandTypes[canonical] {
				if strings.Contains(lower, strings.ToLower(kw)) {
					return canonical, true
				}
			}
		}
	}
	return "", false
}

func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, ":-–—.,;|")
	v = strings.Join(strings.Fields(v), " ")
	if len(v) > 120 {
		// Cut on a rune boundary; a byte cut could split a multi-byte
		// Indic character and store invalid UTF-8.
		cut := 120
		for cut > 0 && !utf8.RuneStart(v[cut]) {
			cut--
		}
		v = v[:cut]
	}
	return strings.TrimSpace(v)
}

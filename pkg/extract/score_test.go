package extract

import "testing"

func fullFields() FieldMap {
	return FieldMap{
		FieldClaimNumber:  "FRA-2024-0153",
		FieldClaimantName: "Ram Singh",
		FieldVillage:      "Jamgaon",
		FieldDistrict:     "Mandla",
		FieldState:        "Madhya Pradesh",
		FieldArea:         "2.5",
		FieldAreaUnit:     "hectare",
		FieldLandType:     LandTypeIndividual,
	}
}

func TestValidationStatusThresholds(t *testing.T) {
	fields := fullFields()
	if got := ValidationStatus(fields); got != ValidationValidated {
		t.Fatalf("all fields present: got %s", got)
	}

	delete(fields, FieldClaimNumber)
	if got := ValidationStatus(fields); got != ValidationPartial {
		t.Fatalf("one missing: got %s", got)
	}

	delete(fields, FieldVillage)
	if got := ValidationStatus(fields); got != ValidationPartial {
		t.Fatalf("two missing: got %s", got)
	}

	delete(fields, FieldDistrict)
	if got := ValidationStatus(fields); got != ValidationFailed {
		t.Fatalf("three missing: got %s", got)
	}
}

func TestValidationStatusInvalidArea(t *testing.T) {
	fields := fullFields()
	fields[FieldArea] = "-1"
	if got := ValidationStatus(fields); got != ValidationPartial {
		t.Fatalf("negative area should count as missing, got %s", got)
	}
	fields[FieldArea] = "not a number"
	if got := ValidationStatus(fields); got != ValidationPartial {
		t.Fatalf("unparseable area should count as missing, got %s", got)
	}
}

// Fewer missing required fields must never yield a worse validation
// status than more missing fields.
func TestValidationStatusOrdering(t *testing.T) {
	rank := map[string]int{
		ValidationValidated: 0,
		ValidationPartial:   1,
		ValidationFailed:    2,
	}

	fields := fullFields()
	prev := rank[ValidationStatus(fields)]
	for _, field := range RequiredFields {
		delete(fields, field)
		cur := rank[ValidationStatus(fields)]
		if cur < prev {
			t.Fatalf("status improved after removing %s", field)
		}
		prev = cur
	}
}

func TestConfidenceFullyPopulatedClaimForm(t *testing.T) {
	score := Confidence(DocTypeClaimForm, fullFields())
	if score < 80 {
		t.Fatalf("fully populated claim form scored %.1f, want >= 80", score)
	}
	if score > 100 {
		t.Fatalf("confidence out of range: %.1f", score)
	}
}

func TestConfidenceUnclassifiedCapped(t *testing.T) {
	if score := Confidence(DocTypeUnknown, fullFields()); score > 25 {
		t.Fatalf("unclassified text scored %.1f, want <= 25", score)
	}
}

func TestConfidenceMonotoneInPopulatedFields(t *testing.T) {
	fields := fullFields()
	prev := Confidence(DocTypeClaimForm, fields)
	for _, field := range RequiredFields {
		delete(fields, field)
		cur := Confidence(DocTypeClaimForm, fields)
		if cur > prev {
			t.Fatalf("confidence increased after removing %s", field)
		}
		prev = cur
	}
}

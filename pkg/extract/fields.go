package extract

// Semantic field names produced by the extractor and stored on the
// document's extracted_fields column. Values are always strings; the
// area magnitude keeps its raw decimal form with the unit held
// separately (no unit conversion is performed).
const (
	FieldClaimNumber    = "claim_number"
	FieldClaimantName   = "claimant_name"
	FieldVillage        = "village"
	FieldDistrict       = "district"
	FieldState          = "state"
	FieldArea           = "area"
	FieldAreaUnit       = "area_unit"
	FieldLandType       = "land_type"
	FieldSubmissionDate = "submission_date"
)

// LandType values, inferred from keyword presence anywhere in the text.
const (
	LandTypeIndividual = "individual"
	LandTypeCommunity  = "community"
)

// RequiredFields are the seven fields a complete claim form carries.
// area_unit and submission_date are informational, not required.
var RequiredFields = []string{
	FieldClaimNumber,
	FieldClaimantName,
	FieldVillage,
	FieldDistrict,
	FieldState,
	FieldArea,
	FieldLandType,
}

// FieldMap is a sparse mapping of field name to extracted value.
// Unmatched fields are simply absent.
type FieldMap map[string]string

func (f FieldMap) Clone() FieldMap {
	if f == nil {
		return nil
	}
	out := make(FieldMap, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
